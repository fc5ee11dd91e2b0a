package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/glazia/storefront/internal/utils"
)

func TestDefaultAdminLogin(t *testing.T) {
	store, err := NewStaticStore(DefaultAccounts(), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAuthenticator(store)

	acct, err := a.Verify(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if acct.Role != "admin" || acct.PasswordHash == "admin123" {
		t.Errorf("account = %+v", acct)
	}

	for _, tc := range []struct{ user, pass string }{
		{"admin", "wrong"},
		{"nobody", "admin123"},
		{"Admin", "admin123"},
	} {
		if _, err := a.Verify(context.Background(), tc.user, tc.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Verify(%q,%q) err = %v", tc.user, tc.pass, err)
		}
	}
}

func TestLoadStaticFile(t *testing.T) {
	hash, err := utils.HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "admins.yaml")
	body := "admins:\n" +
		"  - username: ops\n" +
		"    password_hash: " + hash + "\n" +
		"    role: editor\n" +
		"    permissions: [read]\n" +
		"  - username: lead\n" +
		"    password: lead-pass\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := LoadStaticFile(path, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("LoadStaticFile: %v", err)
	}
	a := NewAuthenticator(store)
	ops, err := a.Verify(context.Background(), "ops", "s3cret")
	if err != nil || ops.Role != "editor" || len(ops.Permissions) != 1 {
		t.Errorf("ops = %+v, %v", ops, err)
	}
	lead, err := a.Verify(context.Background(), "lead", "lead-pass")
	if err != nil || lead.Role != "admin" || lead.ID != "2" {
		t.Errorf("lead = %+v, %v", lead, err)
	}
}

func TestStaticStoreRejectsBadEntries(t *testing.T) {
	cases := [][]StaticAccount{
		{{Username: ""}},
		{{Username: "x"}},
		{{Username: "x", Password: "a"}, {Username: "x", Password: "b"}},
	}
	for i, accts := range cases {
		if _, err := NewStaticStore(accts, bcrypt.MinCost); err == nil {
			t.Errorf("case %d accepted", i)
		}
	}
}

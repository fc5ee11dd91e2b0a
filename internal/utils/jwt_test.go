package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/glazia/storefront/internal/model"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	acct := model.AdminAccount{ID: "1", Username: "admin", Role: "admin", Permissions: []string{"read", "write"}}
	at, err := NewAdminToken("s3cret", acct, 24*time.Hour, "glazia")
	if err != nil {
		t.Fatalf("NewAdminToken: %v", err)
	}
	if parts := strings.Split(at.Token, "."); len(parts) != 3 {
		t.Fatalf("token has %d segments", len(parts))
	}
	if d := time.Until(at.Exp); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("expiry in %v", d)
	}

	claims, err := ParseAdminToken("s3cret", at.Token)
	if err != nil {
		t.Fatalf("ParseAdminToken: %v", err)
	}
	if claims.Subject != "1" || claims.Role != "admin" || len(claims.Permissions) != 2 {
		t.Errorf("claims = %+v", claims)
	}
	if _, err := ParseAdminToken("other", at.Token); err == nil {
		t.Error("token verified with wrong secret")
	}
}

func TestExpiredAdminToken(t *testing.T) {
	at, err := NewAdminToken("k", model.AdminAccount{ID: "1", Role: "admin"}, -time.Minute, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAdminToken("k", at.Token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("admin123", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(h, "admin123") || VerifyPassword(h, "wrong") {
		t.Error("bcrypt verify mismatch")
	}
}

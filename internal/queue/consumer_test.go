package queue

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	err := writeLine(&buf, AdminLoginEvent{Username: "admin", AdminID: "1", Role: "admin", Success: true, RemoteIP: "10.0.0.1", At: "2026-01-02T03:04:05Z"})
	if err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	want := `[2026-01-02T03:04:05Z] Admin login ok | username="admin" | admin_id=1 | role=admin | ip=10.0.0.1 | ua=""` + "\n"
	if got != want {
		t.Errorf("line = %q\nwant  %q", got, want)
	}
}

func TestAppendEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "admin-login.log")
	if err := appendEvent(path, []byte(`{"username":"bob","success":false,"remote_ip":"1.2.3.4","at":"t1"}`)); err != nil {
		t.Fatalf("appendEvent: %v", err)
	}
	if err := appendEvent(path, []byte(`{"username":"admin","success":true,"at":"t2"}`)); err != nil {
		t.Fatalf("appendEvent: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "Admin login failed") || !strings.Contains(lines[0], "admin_id=-") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Admin login ok") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestAppendEventRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	if err := appendEvent(path, []byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}

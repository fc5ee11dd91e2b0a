package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AdminTokenTTL != 24*time.Hour {
		t.Errorf("AdminTokenTTL = %v, want 24h", cfg.AdminTokenTTL)
	}
	if cfg.UserProfilePath != "/api/user/profile" {
		t.Errorf("UserProfilePath = %q", cfg.UserProfilePath)
	}
	if cfg.AdminDB.Enabled() {
		t.Error("admin db should be disabled without host")
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadPublicAndDB(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://x.supabase.co")
	t.Setenv("NEXT_PUBLIC_GA_ID", "G-123")
	t.Setenv("ADMIN_DB_HOST", "db")
	t.Setenv("ADMIN_DB_USER", "glazia")
	t.Setenv("ADMIN_DB_NAME", "admin")
	t.Setenv("BACKEND_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Public.SupabaseURL != "https://x.supabase.co" || cfg.Public.GAID != "G-123" {
		t.Errorf("public config = %+v", cfg.Public)
	}
	if !cfg.AdminDB.Enabled() || cfg.AdminDB.Port != "3306" {
		t.Errorf("admin db = %+v", cfg.AdminDB)
	}
	if cfg.BackendTimeout != 3*time.Second {
		t.Errorf("BackendTimeout = %v", cfg.BackendTimeout)
	}
}

func TestLoadClientNeedsNoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BACKEND_URL", "https://api.glazia.in")
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.BackendURL != "https://api.glazia.in" || cfg.StoragePrefix != "glazia:storage" {
		t.Errorf("client config = %+v", cfg)
	}
}

func TestRateLimitFloors(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	if rl.Capacity != 1 {
		t.Errorf("Capacity = %d, want 1", rl.Capacity)
	}
	if rl.TTL != 5*time.Minute {
		t.Errorf("TTL = %v, want 5m", rl.TTL)
	}
}

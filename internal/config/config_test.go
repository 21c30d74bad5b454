package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EBAY_CLIENT_ID", "app")
	t.Setenv("EBAY_CLIENT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DatabasePath != "data/sellsync.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.SyncDaysBack != 30 || cfg.SyncPageSize != 200 || cfg.SyncMaxRetries != 3 {
		t.Errorf("sync defaults = %d/%d/%d, want 30/200/3",
			cfg.SyncDaysBack, cfg.SyncPageSize, cfg.SyncMaxRetries)
	}
	if cfg.SyncSchedule != "" {
		t.Errorf("SyncSchedule = %q, want empty by default", cfg.SyncSchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EBAY_CLIENT_ID", "app")
	t.Setenv("EBAY_CLIENT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("SYNC_DAYS_BACK", "90")
	t.Setenv("EBAY_SANDBOX", "true")
	t.Setenv("SYNC_SCHEDULE", "0 3 * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.SyncDaysBack != 90 {
		t.Errorf("SyncDaysBack = %d, want 90", cfg.SyncDaysBack)
	}
	if !cfg.EbaySandbox {
		t.Error("EbaySandbox = false, want true")
	}
	if cfg.SyncSchedule != "0 3 * * *" {
		t.Errorf("SyncSchedule = %q", cfg.SyncSchedule)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("EBAY_CLIENT_ID", "")
	t.Setenv("EBAY_CLIENT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load succeeded without eBay credentials")
	}
}

func TestEnvIntBadValue(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")

	if got := envInt("SOME_INT", 42); got != 42 {
		t.Errorf("envInt = %d, want fallback 42", got)
	}
}

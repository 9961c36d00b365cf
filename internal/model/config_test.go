package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.API.TimeoutSec != 30 {
		t.Errorf("api timeout = %d, want 30", cfg.API.TimeoutSec)
	}
	if cfg.Feed.HandshakeTimeoutSec != 10 {
		t.Errorf("handshake timeout = %d, want 10", cfg.Feed.HandshakeTimeoutSec)
	}
	if cfg.Display.ToastDurationSec != 5 {
		t.Errorf("toast duration = %d, want 5", cfg.Display.ToastDurationSec)
	}
	if !cfg.Display.Sound {
		t.Error("expected sound enabled by default")
	}
	if cfg.UserID != "" {
		t.Errorf("expected empty user id, got %q", cfg.UserID)
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
user_id: user-42
api:
  base_url: https://api.foodly.example
feed:
  url: wss://feed.foodly.example/v1
display:
  toast_duration_sec: 8
cache:
  path: /tmp/history.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.UserID != "user-42" {
		t.Errorf("user id = %q", cfg.UserID)
	}
	if cfg.API.BaseURL != "https://api.foodly.example" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.Feed.URL != "wss://feed.foodly.example/v1" {
		t.Errorf("feed url = %q", cfg.Feed.URL)
	}
	if cfg.API.TimeoutSec != 30 {
		t.Errorf("expected defaulted timeout, got %d", cfg.API.TimeoutSec)
	}
	if cfg.Display.ToastDurationSec != 8 {
		t.Errorf("toast duration = %d", cfg.Display.ToastDurationSec)
	}
	if cfg.Cache.Path != "/tmp/history.db" {
		t.Errorf("cache path = %q", cfg.Cache.Path)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.UserID = "user-7"
	cfg.API.BaseURL = "https://api.foodly.example"
	cfg.Feed.URL = "wss://feed.foodly.example/v1"

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.UserID != "user-7" {
		t.Errorf("user id = %q", loaded.UserID)
	}
	if loaded.API.BaseURL != cfg.API.BaseURL || loaded.Feed.URL != cfg.Feed.URL {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

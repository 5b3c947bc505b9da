package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Codeforces.APIBase != "https://codeforces.com/api" {
		t.Errorf("expected default api base, got %s", cfg.Codeforces.APIBase)
	}
	if cfg.GetPollInterval() != 500*time.Millisecond {
		t.Errorf("expected 500ms poll interval, got %v", cfg.GetPollInterval())
	}
	if cfg.Poll.MaxAttempts != 20 {
		t.Errorf("expected MaxAttempts=20, got %d", cfg.Poll.MaxAttempts)
	}
	if cfg.Generate.Language != "go" {
		t.Errorf("expected Language=go, got %s", cfg.Generate.Language)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "cfscaffold.yaml")

	cfg := DefaultConfig()
	cfg.Generate.Language = "rust"
	cfg.Poll.MaxAttempts = 3
	cfg.Cache.Enabled = false

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Generate.Language != "rust" {
		t.Errorf("expected Language=rust, got %s", loaded.Generate.Language)
	}
	if loaded.Poll.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", loaded.Poll.MaxAttempts)
	}
	if loaded.Cache.Enabled {
		t.Errorf("expected cache disabled")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Codeforces.SiteBase != DefaultConfig().Codeforces.SiteBase {
		t.Errorf("expected default site base, got %s", cfg.Codeforces.SiteBase)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "cfscaffold.yaml")
	content := "poll:\n  interval: 2s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetPollInterval() != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.GetPollInterval())
	}
	if cfg.Poll.MaxAttempts != 20 {
		t.Errorf("expected default MaxAttempts kept, got %d", cfg.Poll.MaxAttempts)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfscaffold.yaml")
	if err := os.WriteFile(path, []byte("poll: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{}
	cfg.Poll.Interval = "bogus"
	cfg.HTTP.Timeout = "-1s"
	cfg.Cache.TTL = ""
	cfg.Browser.Timeout = "nope"

	if cfg.GetPollInterval() != 500*time.Millisecond {
		t.Errorf("poll interval fallback wrong: %v", cfg.GetPollInterval())
	}
	if cfg.GetHTTPTimeout() != 30*time.Second {
		t.Errorf("http timeout fallback wrong: %v", cfg.GetHTTPTimeout())
	}
	if cfg.GetCacheTTL() != 24*time.Hour {
		t.Errorf("cache ttl fallback wrong: %v", cfg.GetCacheTTL())
	}
	if cfg.GetBrowserTimeout() != 45*time.Second {
		t.Errorf("browser timeout fallback wrong: %v", cfg.GetBrowserTimeout())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty api base", func(c *Config) { c.Codeforces.APIBase = "" }},
		{"empty site base", func(c *Config) { c.Codeforces.SiteBase = "" }},
		{"zero attempts", func(c *Config) { c.Poll.MaxAttempts = 0 }},
		{"negative rate", func(c *Config) { c.HTTP.RequestsPerSecond = -1 }},
		{"empty language", func(c *Config) { c.Generate.Language = "" }},
		{"cache without path", func(c *Config) { c.Cache.Enabled = true; c.Cache.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestValidate_LanguageNameNotRestricted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generate.Language = "kotlin"
	if err := cfg.Validate(); err != nil {
		t.Errorf("language names are resolved by the generator, got %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CFSCAFFOLD_API_BASE", "CFSCAFFOLD_SITE_BASE", "CFSCAFFOLD_LANG",
		"CFSCAFFOLD_CACHE", "CFSCAFFOLD_DEBUGGER_URL",
	} {
		t.Setenv(k, "")
	}
}

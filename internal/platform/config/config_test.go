package config

import (
	"os"
	"path/filepath"
	"testing"
)

func baseConfig() Config {
	return Config{
		Addr:               ":8080",
		DatabaseURL:        "postgres://localhost/worktime",
		JWTSecret:          "secret",
		Environment:        "test",
		MaxBodyBytes:       1048576,
		RateLimitPerSecond: 5,
		RateLimitBurst:     20,
		LeaveStore:         "memory",
	}
}

func TestValidateAcceptsBaseConfig(t *testing.T) {
	if err := baseConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = " " }},
		{"tiny body limit", func(c *Config) { c.MaxBodyBytes = 100 }},
		{"zero rate limit", func(c *Config) { c.RateLimitPerSecond = 0 }},
		{"email without smtp host", func(c *Config) { c.EmailEnabled = true; c.SMTPHost = "" }},
		{"push without vapid keys", func(c *Config) { c.PushEnabled = true }},
		{"unknown leave store", func(c *Config) { c.LeaveStore = "redis" }},
		{"production without jwt secret", func(c *Config) { c.Environment = "production"; c.JWTSecret = "" }},
	}

	for _, tc := range cases {
		cfg := baseConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":9090\"\nleave_store: postgres\nrate_limit_burst: 50\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg := baseConfig()
	if err := cfg.applyFile(path); err != nil {
		t.Fatalf("applyFile failed: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected addr override, got %s", cfg.Addr)
	}
	if cfg.LeaveStore != "postgres" {
		t.Fatalf("expected leave store override, got %s", cfg.LeaveStore)
	}
	if cfg.RateLimitBurst != 50 {
		t.Fatalf("expected burst override, got %d", cfg.RateLimitBurst)
	}
	// Values absent from the file keep their env-derived defaults.
	if cfg.DatabaseURL != "postgres://localhost/worktime" {
		t.Fatalf("unexpected database url: %s", cfg.DatabaseURL)
	}
}

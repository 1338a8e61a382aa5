package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/crm",
		JWTSecret:          "test-secret",
		Timezone:           "UTC",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		NotificationTTL:    time.Hour,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"missing database": func(c *Config) { c.DatabaseURL = "" },
		"missing secret":   func(c *Config) { c.JWTSecret = "" },
		"short prod secret": func(c *Config) {
			c.Environment = "production"
			c.RunSeed = false
		},
		"bad timezone":    func(c *Config) { c.Timezone = "Mars/Olympus" },
		"tiny body limit": func(c *Config) { c.MaxBodyBytes = 10 },
		"email no host":   func(c *Config) { c.EmailEnabled = true },
		"bad proxy":       func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/33"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := Config{Timezone: "not/a-zone"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", cfg.Location())
	}
}

func TestTrustedProxyPrefixes(t *testing.T) {
	cfg := Config{TrustedProxies: []string{"10.0.0.0/8", " 192.0.2.10 ", "", "::1"}}
	prefixes, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"10.0.0.0/8", "192.0.2.10/32", "::1/128"}
	if len(prefixes) != len(want) {
		t.Fatalf("expected %d prefixes, got %v", len(want), prefixes)
	}
	for i, p := range prefixes {
		if p.String() != want[i] {
			t.Fatalf("prefix %d: expected %s, got %s", i, want[i], p)
		}
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dashboard")
	t.Setenv("GIN_MODE", "")
	t.Setenv("SESSION_MAX_AGE_MINUTES", "")
	t.Setenv("SESSION_IDLE_MINUTES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.SessionMaxAge() != 12*time.Hour {
		t.Fatalf("unexpected max age: %v", cfg.SessionMaxAge())
	}
	if cfg.SessionIdleTimeout() != 30*time.Minute {
		t.Fatalf("unexpected idle timeout: %v", cfg.SessionIdleTimeout())
	}
	if !cfg.RunMigrations {
		t.Fatal("expected migrations to be enabled by default")
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dashboard")
	t.Setenv("SESSION_IDLE_MINUTES", "soon")
	t.Setenv("RUN_MIGRATIONS", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SessionIdleMin != 30 {
		t.Fatalf("expected fallback idle minutes, got %d", cfg.SessionIdleMin)
	}
	if !cfg.RunMigrations {
		t.Fatal("expected fallback to default for invalid bool")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseURL:      "postgres://localhost/dashboard",
		SessionMaxAgeMin: 60,
		SessionIdleMin:   10,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "debug without secret", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: true},
		{name: "zero max age", mutate: func(c *Config) { c.SessionMaxAgeMin = 0 }, wantErr: true},
		{name: "negative idle", mutate: func(c *Config) { c.SessionIdleMin = -1 }, wantErr: true},
		{name: "release without secret", mutate: func(c *Config) { c.GinMode = "release" }, wantErr: true},
		{name: "release short secret", mutate: func(c *Config) {
			c.GinMode = "release"
			c.SessionSecret = "short"
		}, wantErr: true},
		{name: "release ok", mutate: func(c *Config) {
			c.GinMode = "release"
			c.SessionSecret = "0123456789abcdef0123456789abcdef"
		}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Config{CORSAllowedOrigins: "http://a.example, ,http://b.example"}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[0] != "http://a.example" || origins[1] != "http://b.example" {
		t.Fatalf("unexpected origins: %#v", origins)
	}
}

func TestSecureCookies(t *testing.T) {
	if (&Config{GinMode: "debug"}).SecureCookies() {
		t.Fatal("debug mode should not force secure cookies")
	}
	if !(&Config{GinMode: "release"}).SecureCookies() {
		t.Fatal("release mode should force secure cookies")
	}
	if !(&Config{GinMode: "debug", SessionCookieSecure: true}).SecureCookies() {
		t.Fatal("explicit flag should force secure cookies")
	}
}

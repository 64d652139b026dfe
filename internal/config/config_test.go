package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Org.DefaultCurrency != "GHS" {
		t.Errorf("Expected GHS default currency, got %s", cfg.Org.DefaultCurrency)
	}
	if cfg.Features.CardSuccessRate != 0.8 {
		t.Errorf("Expected 0.8 card success rate, got %v", cfg.Features.CardSuccessRate)
	}
	if cfg.RateLimit.WindowDuration() != time.Hour {
		t.Errorf("Expected one hour window, got %v", cfg.RateLimit.WindowDuration())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.json")
	body := `{"server":{"port":"9000"},"org":{"receipt_prefix":"ACC"},"auth":{"jwt_secret":"from-file"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("RECEIPT_PREFIX", "KSI")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("Expected port from file, got %s", cfg.Server.Port)
	}
	if cfg.Org.ReceiptPrefix != "KSI" {
		t.Errorf("Expected env to override file, got %s", cfg.Org.ReceiptPrefix)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Errorf("Expected secret from file, got %s", cfg.Auth.JWTSecret)
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ORG_NAME=Dotenv District\n"), 0o600); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	// Registers a restore of ORG_NAME; godotenv only fills unset variables.
	t.Setenv("ORG_NAME", "")
	os.Unsetenv("ORG_NAME")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Org.Name != "Dotenv District" {
		t.Errorf("Expected name from .env, got %s", cfg.Org.Name)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8000"},
			Database:  DatabaseConfig{Path: "x.db"},
			RateLimit: RateLimitConfig{Enabled: true, Window: 60, SubmitMax: 1, PaymentMax: 1, LoginMax: 1},
			Auth:      AuthConfig{JWTSecret: "s", TokenTTL: 10},
			Features:  FeaturesConfig{CardSuccessRate: 0.5},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"missing database", func(c *Config) { c.Database.Path = "" }},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"zero max", func(c *Config) { c.RateLimit.LoginMax = 0 }},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"success rate above one", func(c *Config) { c.Features.CardSuccessRate = 1.5 }},
		{"tls without cert", func(c *Config) { c.Server.EnableTLS = true }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

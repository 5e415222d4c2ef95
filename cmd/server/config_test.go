package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 5433 {
		t.Errorf("Expected default port 5433, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default level info, got %s", cfg.Log.Level)
	}
	if cfg.AuthConfig() != nil {
		t.Error("Expected auth to be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("PGPARSE_TEST_SECRET", "from-env")

	path := writeConfig(t, `
[server]
port = 6000

[log]
level = "debug"

[auth]
enabled = true
jwt_secret = "${PGPARSE_TEST_SECRET}"
issuer = "tests"
name_claim = "preferred_username"

[store]
base_dir = "/var/lib/pgparse"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Expected port 6000, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected level debug, got %s", cfg.Log.Level)
	}
	if cfg.Store.BaseDir != "/var/lib/pgparse" {
		t.Errorf("Expected base dir, got %q", cfg.Store.BaseDir)
	}

	auth := cfg.AuthConfig()
	if auth == nil {
		t.Fatal("Expected auth config")
	}
	if auth.JWTSecret != "from-env" {
		t.Errorf("Expected secret from environment, got %q", auth.JWTSecret)
	}
	if auth.Issuer != "tests" {
		t.Errorf("Expected issuer tests, got %q", auth.Issuer)
	}
	if name, email := auth.claimNames(); name != "preferred_username" || email != "email" {
		t.Errorf("Unexpected claim names %q, %q", name, email)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not found error, got %v", err)
	}

	path := writeConfig(t, "[server\nport = ")
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("Expected parse error, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true }, true},
		{"auth with secret", func(c *Config) { c.Auth.Enabled = true; c.Auth.JWTSecret = "s" }, false},
		{"cert without key", func(c *Config) { c.Server.TLSCert = "cert.pem" }, true},
		{"cert and key", func(c *Config) { c.Server.TLSCert = "cert.pem"; c.Server.TLSKey = "key.pem" }, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.modify(cfg)
			if err := cfg.Validate(); (err != nil) != test.wantErr {
				t.Errorf("Expected error %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest("select * from t;")
	if err != nil || req.Query != "select * from t;" || req.Tokens {
		t.Errorf("Unexpected raw request %+v, %v", req, err)
	}

	req, err = DecodeRequest(`{"query":";","tokens":true,"save":"a.sql"}`)
	if err != nil {
		t.Fatalf("Failed to decode request: %v", err)
	}
	if req.Query != ";" || !req.Tokens || req.Save != "a.sql" {
		t.Errorf("Unexpected JSON request %+v", req)
	}

	if _, err := DecodeRequest(`{"query":`); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

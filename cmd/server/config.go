package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the server configuration file.
type Config struct {
	Server ServerConfig    `toml:"server"`
	Log    LogConfig       `toml:"log"`
	Auth   AuthFileConfig  `toml:"auth"`
	Store  StoreFileConfig `toml:"store"`
}

type ServerConfig struct {
	Port    int    `toml:"port"`
	TLSCert string `toml:"tls_cert"`
	TLSKey  string `toml:"tls_key"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type AuthFileConfig struct {
	Enabled    bool   `toml:"enabled"`
	JWTSecret  string `toml:"jwt_secret"`
	Issuer     string `toml:"issuer"`
	Audience   string `toml:"audience"`
	NameClaim  string `toml:"name_claim"`
	EmailClaim string `toml:"email_claim"`
}

// StoreFileConfig selects where saved queries are committed. An empty
// base_dir keeps them in memory.
type StoreFileConfig struct {
	BaseDir string `toml:"base_dir"`
	GitURL  string `toml:"git_url"`
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a TOML configuration file and fills in defaults.
func LoadConfig(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.Auth.JWTSecret = os.ExpandEnv(cfg.Auth.JWTSecret)

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5433
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Auth.NameClaim == "" {
		c.Auth.NameClaim = "name"
	}
	if c.Auth.EmailClaim == "" {
		c.Auth.EmailClaim = "email"
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth enabled but no jwt_secret configured")
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	return nil
}

// AuthConfig returns the JWT settings, or nil when auth is disabled.
func (c *Config) AuthConfig() *AuthConfig {
	if !c.Auth.Enabled {
		return nil
	}
	return &AuthConfig{
		Enabled:    true,
		JWTSecret:  c.Auth.JWTSecret,
		Issuer:     c.Auth.Issuer,
		Audience:   c.Auth.Audience,
		NameClaim:  c.Auth.NameClaim,
		EmailClaim: c.Auth.EmailClaim,
	}
}

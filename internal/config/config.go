package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Captcha  CaptchaConfig  `toml:"captcha"`
	Admin    AdminConfig    `toml:"admin"`
	Instance InstanceConfig `toml:"instance"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type AuthConfig struct {
	JWTSecret      string `toml:"jwt_secret"`
	TokenExpiryMin int    `toml:"token_expiry_min"`
}

// CaptchaConfig controls the correction-intake verifier.
// Mode "permissive" passes submissions through when the verifier is
// unconfigured or unreachable; "enforce" rejects them instead.
type CaptchaConfig struct {
	Secret    string `toml:"secret"`
	VerifyURL string `toml:"verify_url"`
	Mode      string `toml:"mode"`
}

type AdminConfig struct {
	AllowSelfRemoval bool `toml:"allow_self_removal"`
}

type InstanceConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Path: "data/archive.db",
		},
		Auth: AuthConfig{
			JWTSecret:      "change-me-in-production",
			TokenExpiryMin: 1440, // 24h
		},
		Captcha: CaptchaConfig{
			VerifyURL: "https://challenges.cloudflare.com/turnstile/v0/siteverify",
			Mode:      "permissive",
		},
		Admin: AdminConfig{
			AllowSelfRemoval: true,
		},
		Instance: InstanceConfig{
			ID:   "local",
			Name: "msarchive-local",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Captcha.Mode != "enforce" && cfg.Captcha.Mode != "permissive" {
		return nil, fmt.Errorf("captcha.mode must be \"enforce\" or \"permissive\", got %q", cfg.Captcha.Mode)
	}
	return cfg, nil
}

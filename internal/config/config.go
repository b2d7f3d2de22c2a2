// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// Config holds the application configuration loaded from environment variables.
// Empty connection fields are filled later from command-line flags or stored
// settings.
type Config struct {
	Organization string
	Project      string
	Token        string
	Provider     model.Provider
	GitHubRepo   string
	DBPath       string
	SecretKey    []byte // nil when ADOCTL_SECRET_KEY is unset.
	LogLevel     string
	LogFormat    string
	ListenAddr   string
	PollInterval time.Duration
}

// HasSecretKey reports whether credentials can be stored encrypted.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) == 32
}

// Load reads configuration from environment variables and returns a validated Config.
// Connection variables (ADOCTL_ORG, ADOCTL_PROJECT, ADOCTL_PAT, ADOCTL_PROVIDER,
// ADOCTL_GITHUB_REPO) are optional.
// Optional variables with defaults: ADOCTL_POLL_INTERVAL (1m),
// ADOCTL_LISTEN_ADDR (127.0.0.1:8080), ADOCTL_DB_PATH (<user config dir>/adoctl/adoctl.db),
// ADOCTL_LOG_LEVEL (info), ADOCTL_LOG_FORMAT (text).
func Load() (*Config, error) {
	cfg := &Config{
		Organization: strings.TrimSpace(os.Getenv("ADOCTL_ORG")),
		Project:      strings.TrimSpace(os.Getenv("ADOCTL_PROJECT")),
		Token:        os.Getenv("ADOCTL_PAT"),
		GitHubRepo:   strings.TrimSpace(os.Getenv("ADOCTL_GITHUB_REPO")),
		LogLevel:     "info",
		LogFormat:    "text",
		ListenAddr:   "127.0.0.1:8080",
		PollInterval: time.Minute,
		DBPath:       DefaultDBPath(),
	}

	if v, ok := os.LookupEnv("ADOCTL_PROVIDER"); ok && v != "" {
		p := model.Provider(strings.ToLower(strings.TrimSpace(v)))
		if !p.Valid() {
			return nil, fmt.Errorf("ADOCTL_PROVIDER has invalid value %q: expected azdo or github", v)
		}
		cfg.Provider = p
	}

	if v, ok := os.LookupEnv("ADOCTL_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ADOCTL_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("ADOCTL_POLL_INTERVAL must be positive, got %q", v)
		}
		cfg.PollInterval = parsed
	}

	if v, ok := os.LookupEnv("ADOCTL_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}

	if v, ok := os.LookupEnv("ADOCTL_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("ADOCTL_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}

	if v, ok := os.LookupEnv("ADOCTL_LOG_FORMAT"); ok && v != "" {
		format := strings.ToLower(v)
		if format != "text" && format != "json" {
			return nil, fmt.Errorf("ADOCTL_LOG_FORMAT has invalid value %q: expected text or json", v)
		}
		cfg.LogFormat = format
	}

	if v, ok := os.LookupEnv("ADOCTL_SECRET_KEY"); ok && v != "" {
		key, err := ParseSecretKey(v)
		if err != nil {
			return nil, fmt.Errorf("ADOCTL_SECRET_KEY: %w", err)
		}
		cfg.SecretKey = key
	}

	return cfg, nil
}

// ParseSecretKey decodes a 64 character hex string into an AES-256 key.
func ParseSecretKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("must be hex-encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must be 64 hex characters (32 bytes), got %d bytes", len(key))
	}
	return key, nil
}

// DefaultDBPath returns adoctl/adoctl.db under the user config directory
// ($XDG_CONFIG_HOME on Linux), or adoctl.db when none can be determined.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "adoctl.db"
	}
	return filepath.Join(dir, "adoctl", "adoctl.db")
}

// Package config loads Treeship settings from ~/.treeship/config.yaml
// and TREESHIP_* environment variables. Environment wins over file,
// file wins over defaults. The API key never lives here; it belongs to
// the credential store or the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAPIURL         = "https://api.treeship.dev"
	DefaultTimeoutSeconds = 10
	DefaultSidecarPort    = 2019
)

// Config holds global Treeship settings.
type Config struct {
	APIURL         string  `yaml:"api_url"`
	Agent          string  `yaml:"agent"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	// HashOnly is reserved: accepted and reported by the sidecar health
	// endpoint but observed by no code path.
	HashOnly bool          `yaml:"hash_only"`
	Sidecar  SidecarConfig `yaml:"sidecar"`
}

// SidecarConfig holds sidecar server settings.
type SidecarConfig struct {
	Port int `yaml:"port"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		HashOnly:       true,
		Sidecar:        SidecarConfig{Port: DefaultSidecarPort},
	}
}

// Load reads ~/.treeship/config.yaml and applies environment overrides.
func Load() *Config {
	cfg := Default()

	if data, err := os.ReadFile(filepath.Join(Dir(), "config.yaml")); err == nil {
		_ = yaml.Unmarshal(data, cfg) // ignore unmarshal errors, use defaults
	}

	if v := os.Getenv("TREESHIP_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TREESHIP_AGENT"); v != "" {
		cfg.Agent = v
	}
	if v := os.Getenv("TREESHIP_TIMEOUT"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			cfg.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("TREESHIP_HASH_ONLY"); v != "" {
		cfg.HashOnly = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TREESHIP_SIDECAR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Sidecar.Port = port
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Sidecar.Port = port
		}
	}

	return cfg
}

// Timeout returns the configured request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// Dir returns the path to ~/.treeship.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".treeship")
	}
	return filepath.Join(home, ".treeship")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Deluge            DelugeConfig `yaml:"deluge" toml:"deluge"`
	LogLevel          string       `yaml:"log_level" toml:"log_level"`
	MaxResponseSizeKB int          `yaml:"max_response_size_kb" toml:"max_response_size_kb"`
	AllowDestructive  bool         `yaml:"allow_destructive" toml:"allow_destructive"`
}

type DelugeConfig struct {
	URL              string `yaml:"url" toml:"url"`
	Password         string `yaml:"password" toml:"password"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	DownloadLocation string `yaml:"download_location" toml:"download_location"` // optional
	Label            string `yaml:"label" toml:"label"`                         // applied to uploads when set
	AddPaused        bool   `yaml:"add_paused" toml:"add_paused"`               // sent with the add call only; uploads are resumed afterwards
	SeedMode         bool   `yaml:"seed_mode" toml:"seed_mode"`
	AutoManaged      bool   `yaml:"auto_managed" toml:"auto_managed"`
}

// Timeout returns the per-call timeout as a duration.
func (d DelugeConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "deluge-web-client", "config.yaml")
}

// Load reads the config file at path (or the default path). A missing
// default file is not an error; env vars alone can configure the client.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DELUGE_URL"); v != "" {
		cfg.Deluge.URL = v
	}
	if v := os.Getenv("DELUGE_PASSWORD"); v != "" {
		cfg.Deluge.Password = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Deluge.URL == "" {
		cfg.Deluge.URL = DefaultURL
	}
	if cfg.Deluge.TimeoutSeconds <= 0 {
		cfg.Deluge.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	// Default response size guard to 50KB if not set.
	if cfg.MaxResponseSizeKB <= 0 {
		cfg.MaxResponseSizeKB = DefaultMaxResponseSizeKB
	}
}

package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the client runtime configuration. Precedence: defaults, then
// an optional config.yaml in the data dir, then VERGO_* env vars.
type Config struct {
	ServerURL     string        `yaml:"server_url"`
	DataDir       string        `yaml:"data_dir"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
	LogLevel      string        `yaml:"log_level"`
}

func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		ServerURL:     "http://localhost:8080",
		DataDir:       filepath.Join(home, ".vergo"),
		IdleTimeout:   30 * 24 * time.Hour,
		ProbeInterval: 15 * time.Second,
		LogLevel:      "info",
	}
}

// Load builds the effective configuration. A missing config file is fine;
// a malformed one is an error.
func Load() (Config, error) {
	cfg := Default()
	if dir := os.Getenv("VERGO_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	path := filepath.Join(cfg.DataDir, "config.yaml")
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("VERGO_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("VERGO_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("VERGO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("VERGO_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.IdleTimeout = d
		}
	}
	if v := os.Getenv("VERGO_PROBE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ProbeInterval = d
		}
	}
}

package common

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/posterops/poster-translator/constants"
)

// Config holds all application configuration. It is built once at process
// start and passed into every component that needs it.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Gemini  GeminiConfig  `yaml:"gemini"`

	// Languages offered by the UI; the selection is interpolated verbatim
	// into the instruction text.
	Languages []string `yaml:"languages"`
}

// ServerConfig holds HTTP server-related configuration
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	WebDir string `yaml:"web_dir"`
}

// StorageConfig holds filesystem and database locations
type StorageConfig struct {
	DataDir    string `yaml:"data_dir"`
	OutputDir  string `yaml:"output_dir"`
	ExportsDir string `yaml:"exports_dir"`
}

// GeminiConfig holds translation-service configuration. The API key is only
// ever read from the environment (or per-request input), never from YAML.
type GeminiConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
	APIKey         string        `yaml:"-"`
}

// DBPath returns the SQLite file location inside the data directory.
func (c *StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "usage.sqlite3")
}

// LoadConfig loads configuration from an optional YAML file, then applies
// environment overrides and defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, WrapError(err, "parse config file")
			}
		} else if !os.IsNotExist(err) {
			return nil, WrapError(err, "read config file")
		}
	}

	cfg.Server.Addr = getEnv("ADDR", defaultString(cfg.Server.Addr, ":8080"))
	cfg.Server.WebDir = getEnv("WEB_DIR", defaultString(cfg.Server.WebDir, "./web"))
	cfg.Storage.DataDir = getEnv("DATA_DIR", defaultString(cfg.Storage.DataDir, "./data"))
	cfg.Storage.OutputDir = getEnv("OUTPUT_DIR", defaultString(cfg.Storage.OutputDir, "./outputs"))
	cfg.Storage.ExportsDir = getEnv("EXPORTS_DIR", defaultString(cfg.Storage.ExportsDir, "./exports"))

	cfg.Gemini.BaseURL = getEnv("GEMINI_BASE_URL", defaultString(cfg.Gemini.BaseURL, "https://generativelanguage.googleapis.com/v1beta"))
	cfg.Gemini.Model = getEnv("GEMINI_MODEL", defaultString(cfg.Gemini.Model, "gemini-2.5-flash-image-preview"))
	cfg.Gemini.Timeout = getEnvAsDuration("GEMINI_TIMEOUT", defaultDuration(time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second, 120*time.Second))
	cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")

	if len(cfg.Languages) == 0 {
		cfg.Languages = constants.LanguageOptions
	}
	return cfg, nil
}

// EnsureDirs creates the data, output and exports directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Storage.DataDir, c.Storage.OutputDir, c.Storage.ExportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapError(err, "create directory "+dir)
		}
	}
	return nil
}

// AllowedLanguage reports whether lang is one of the configured options.
func (c *Config) AllowedLanguage(lang string) bool {
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

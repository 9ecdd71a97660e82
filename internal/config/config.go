// Package config loads toolrelay settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/toolrelay/backend"
)

// Environment variables read by Load.
const (
	EnvBackend  = "TOOLRELAY_BACKEND"
	EnvModel    = "TOOLRELAY_MODEL"
	EnvBaseURL  = "TOOLRELAY_BASE_URL"
	EnvAPIKey   = "TOOLRELAY_API_KEY"
	EnvLogLevel = "TOOLRELAY_LOG_LEVEL"
	EnvWeather  = "WEATHER_API"
	EnvNews     = "NEWS_API"
)

// Config is the full toolrelay configuration.
type Config struct {
	Backend     string        `yaml:"backend"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	LogLevel    string        `yaml:"log_level"`
	ToolTimeout time.Duration `yaml:"tool_timeout"`
	Tools       ToolsConfig   `yaml:"tools"`
}

// ToolsConfig holds credentials and endpoints of the built-in tools. A tool
// without an API key is not registered.
type ToolsConfig struct {
	WeatherAPIKey  string `yaml:"weather_api_key"`
	WeatherBaseURL string `yaml:"weather_base_url"`
	NewsAPIKey     string `yaml:"news_api_key"`
	NewsBaseURL    string `yaml:"news_base_url"`
}

// Default returns the built-in defaults. Model has no default and must be set.
func Default() *Config {
	return &Config{
		Backend:     string(backend.KindDefault),
		LogLevel:    "info",
		ToolTimeout: 30 * time.Second,
	}
}

// DefaultPath returns ~/.config/toolrelay/config.yaml (per os.UserConfigDir).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "toolrelay", "config.yaml")
}

// Load reads the configuration with Read and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read layers defaults, the YAML file at path and the environment. An empty
// path means DefaultPath, which may be absent; an explicit path must exist.
// The result is not validated so callers can apply flag overrides first.
func Read(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for _, o := range []struct {
		key string
		dst *string
	}{
		{EnvBackend, &c.Backend},
		{EnvModel, &c.Model},
		{EnvBaseURL, &c.BaseURL},
		{EnvAPIKey, &c.APIKey},
		{EnvLogLevel, &c.LogLevel},
		{EnvWeather, &c.Tools.WeatherAPIKey},
		{EnvNews, &c.Tools.NewsAPIKey},
	} {
		if v, ok := lookup(o.key); ok && v != "" {
			*o.dst = v
		}
	}
}

// Validate checks the backend kind, model, log level and tool timeout.
func (c *Config) Validate() error {
	var errs []string
	if _, err := backend.ParseKind(c.Backend); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Model == "" {
		errs = append(errs, "model is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	if c.ToolTimeout < 0 {
		errs = append(errs, "tool_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Kind returns the parsed backend kind. Call after Validate.
func (c *Config) Kind() backend.Kind {
	k, _ := backend.ParseKind(c.Backend)
	return k
}

// Level returns the configured slog level, info when unset or invalid.
func (c *Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", s)
	}
	return l, nil
}

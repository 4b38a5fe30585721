package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const appName = "petitions"

// Source is one feed endpoint. Its id is its position in Config.Sources.
type Source struct {
	Name                string `yaml:"name"`
	URL                 string `yaml:"url"`
	Limit               int    `yaml:"limit,omitempty"`
	SignatureCountFloor int    `yaml:"signature_count_floor,omitempty"`
}

type Config struct {
	RequestTimeout   string   `yaml:"request_timeout"`
	LogLevel         string   `yaml:"log_level"`
	HistoryRetention string   `yaml:"history_retention"`
	UserAgent        string   `yaml:"user_agent"`
	Credits          string   `yaml:"credits"`
	Sources          []Source `yaml:"sources"`
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func (c *Config) RetentionDuration() time.Duration {
	if c.HistoryRetention == "" {
		return 90 * 24 * time.Hour
	}
	d, err := ParseDuration(c.HistoryRetention)
	if err != nil {
		return 90 * 24 * time.Hour
	}
	return d
}

func (c *Config) SourceNames() []string {
	names := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		names[i] = s.Name
	}
	return names
}

// ParseDuration accepts Go durations plus an "Nd" day suffix.
func ParseDuration(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func HistoryPath() string {
	return filepath.Join(xdg.StateHome, appName, "history.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults are still usable.
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	fillDefaults(&cfg, defaults)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return &cfg, nil
}

func fillDefaults(cfg, defaults *Config) {
	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.HistoryRetention == "" {
		cfg.HistoryRetention = defaults.HistoryRetention
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Credits == "" {
		cfg.Credits = defaults.Credits
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = append([]Source(nil), defaults.Sources...)
	}
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	if cfg.RequestTimeout != "" {
		if _, err := time.ParseDuration(cfg.RequestTimeout); err != nil {
			return fmt.Errorf("invalid request_timeout %q: %w", cfg.RequestTimeout, err)
		}
	}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if s.Limit < 0 {
			return fmt.Errorf("source %q: limit must not be negative", s.Name)
		}
		if s.SignatureCountFloor < 0 {
			return fmt.Errorf("source %q: signature_count_floor must not be negative", s.Name)
		}
	}
	return nil
}

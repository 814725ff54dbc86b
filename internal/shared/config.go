package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// DefaultAPIBase is used when neither an explicit base URL nor an origin is configured.
const DefaultAPIBase = "http://localhost:4002/api"

// APIBaseEnv overrides [APIConfig.BaseURL] when set.
const APIBaseEnv = "SHUTTER_API_BASE"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Browse   BrowseConfig   `toml:"browse"`
	Upload   UploadConfig   `toml:"upload"`
	Database DatabaseConfig `toml:"database"`
	Export   ExportConfig   `toml:"export"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig contains gallery API connection settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	Origin         string `toml:"origin"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// BrowseConfig tunes list pagination, suggestions and auto-fill.
type BrowseConfig struct {
	PageSize        int     `toml:"page_size"`
	SuggestionLimit int     `toml:"suggestion_limit"`
	DebounceMS      int     `toml:"debounce_ms"`
	FillRatio       float64 `toml:"fill_ratio"`
	FillAttempts    int     `toml:"fill_attempts"`
}

// UploadConfig contains upload limits.
type UploadConfig struct {
	MaxCarousel int `toml:"max_carousel"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ExportConfig controls bulk export downloads.
type ExportConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LogConfig controls log level and the TUI log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveBaseURL picks the API base URL: explicit config (or [APIBaseEnv]) first,
// then origin + "/api", then [DefaultAPIBase].
func (c *Config) ResolveBaseURL() string {
	if env := strings.TrimSpace(os.Getenv(APIBaseEnv)); env != "" {
		return strings.TrimRight(env, "/")
	}
	if base := strings.TrimSpace(c.API.BaseURL); base != "" {
		return strings.TrimRight(base, "/")
	}
	if origin := strings.TrimSpace(c.API.Origin); origin != "" {
		return strings.TrimRight(origin, "/") + "/api"
	}
	return DefaultAPIBase
}

// Timeout returns the HTTP client timeout; zero means no timeout.
func (c *Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Debounce returns the suggestion debounce delay, defaulting to 300ms.
func (c *Config) Debounce() time.Duration {
	if c.Browse.DebounceMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.Browse.DebounceMS) * time.Millisecond
}

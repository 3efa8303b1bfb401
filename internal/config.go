package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBase = "http://localhost:8000"
	DefaultTimeout = 60 * time.Second
)

// Config holds the client configuration
type Config struct {
	APIBase  string
	Timeout  time.Duration
	ChartDir string
	LogLevel string // debug, info, warn, error
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		APIBase:  DefaultAPIBase,
		Timeout:  DefaultTimeout,
		LogLevel: "info",
	}
}

// Overrides carries values set on the command line. Zero values leave the
// lower layers untouched.
type Overrides struct {
	APIBase string
	Timeout time.Duration
}

// LoadConfig layers defaults, the optional YAML file at path, a .env file in
// the working directory, the environment and finally flags, in that order.
// An empty path falls back to $ASKDATA_CONFIG; a missing .env is not an
// error. The result is validated only after every layer is applied.
func LoadConfig(path string, flags Overrides) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		LogWarn("Ignoring unreadable .env: %v", err)
	}

	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("ASKDATA_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// A bad ASKDATA_TIMEOUT only matters when no flag replaces it
	if err := cfg.applyEnv(); err != nil && flags.Timeout <= 0 {
		return nil, err
	}

	if flags.APIBase != "" {
		cfg.APIBase = flags.APIBase
	}
	if flags.Timeout > 0 {
		cfg.Timeout = flags.Timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file struct {
		APIBase  string `yaml:"api_base"`
		Timeout  string `yaml:"timeout"`
		ChartDir string `yaml:"chart_dir"`
		LogLevel string `yaml:"log_level"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if file.APIBase != "" {
		c.APIBase = file.APIBase
	}
	if file.Timeout != "" {
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return fmt.Errorf("config %s: invalid timeout %q: %w", path, file.Timeout, err)
		}
		c.Timeout = d
	}
	if file.ChartDir != "" {
		c.ChartDir = file.ChartDir
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := getEnvOrDefault("ASKDATA_API_BASE", os.Getenv("API_BASE")); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv("ASKDATA_CHART_DIR"); v != "" {
		c.ChartDir = v
	}
	if v := os.Getenv("ASKDATA_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	// DEBUG flag overrides log level
	if os.Getenv("DEBUG") == "1" {
		c.LogLevel = "debug"
	}
	if v := os.Getenv("ASKDATA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ASKDATA_TIMEOUT %q: %w", v, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.APIBase))
	if err != nil {
		return fmt.Errorf("api_base: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_base %q must be an http or https URL", c.APIBase)
	}
	if u.Host == "" {
		return fmt.Errorf("api_base %q has no host", c.APIBase)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// NewClient builds the backend client this configuration describes
func (c *Config) NewClient() (*Client, error) {
	return NewClient(c.APIBase, WithTimeout(c.Timeout))
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

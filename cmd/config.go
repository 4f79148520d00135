package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/etnz/valuation"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const defaultConfigFile = "val.toml"

// Environment variables holding the credentials. They can be set in a .env file.
const (
	EnvEODHD    = "API_EOD"
	EnvBCCHUser = "BCCH_USER"
	EnvBCCHPass = "BCCH_PWD"
	EnvFRED     = "API_FRED"
	EnvGemini   = "GEMINI_API_KEY"
)

// Config is the content of the configuration file.
type Config struct {
	Valuation valuation.Assumptions `toml:"valuation"`
	Providers Providers             `toml:"providers"`
	Logging   Logging               `toml:"logging"`
}

// Providers configures the data providers.
type Providers struct {
	Cache    string `toml:"cache"`    // day, week, month or none
	Timeout  string `toml:"timeout"`  // HTTP timeout, like "5m"
	Interval string `toml:"interval"` // delay between screened symbols, like "2s"
	Workers  int    `toml:"workers"`  // concurrent screen fetches
}

// Logging configures the logger.
type Logging struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used without a configuration file.
func DefaultConfig() *Config {
	return &Config{
		Valuation: valuation.DefaultAssumptions(),
		Providers: Providers{
			Cache:    "day",
			Timeout:  "5m",
			Interval: "2s",
			Workers:  4,
		},
		Logging: Logging{Level: "warn"},
	}
}

// LoadConfig reads the configuration file on top of the defaults.
// A missing default file is not an error, a missing explicit one is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports inconsistent settings.
func (c *Config) Validate() error {
	if err := c.Valuation.Validate(); err != nil {
		return err
	}
	if _, _, err := c.CachePeriod(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	if c.Providers.Workers < 1 {
		return fmt.Errorf("providers workers %d must be positive", c.Providers.Workers)
	}
	return nil
}

// CachePeriod returns the period of the HTTP cache, and false when disabled.
func (c *Config) CachePeriod() (valuation.Period, bool, error) {
	switch strings.ToLower(c.Providers.Cache) {
	case "", "none", "off":
		return 0, false, nil
	}
	p, err := valuation.ParsePeriod(c.Providers.Cache)
	if err != nil {
		return 0, false, fmt.Errorf("providers cache: %w", err)
	}
	return p, true, nil
}

// Timeout returns the HTTP timeout of the providers.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Providers.Timeout)
	if err != nil {
		return 0, fmt.Errorf("providers timeout: %w", err)
	}
	return d, nil
}

// Interval returns the delay between two screened symbols.
func (c *Config) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Providers.Interval)
	if err != nil {
		return 0, fmt.Errorf("providers interval: %w", err)
	}
	return d, nil
}

// Credentials are the secrets of the data providers, read from the environment only.
type Credentials struct {
	EODHD    string
	BCCHUser string
	BCCHPass string
	FRED     string
	Gemini   string
}

// LoadCredentials loads the .env file, when present, and reads the credentials.
func LoadCredentials() (Credentials, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Credentials{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return Credentials{
		EODHD:    os.Getenv(EnvEODHD),
		BCCHUser: os.Getenv(EnvBCCHUser),
		BCCHPass: os.Getenv(EnvBCCHPass),
		FRED:     os.Getenv(EnvFRED),
		Gemini:   os.Getenv(EnvGemini),
	}, nil
}

// Require checks that every named variable is set.
func (c Credentials) Require(names ...string) error {
	values := map[string]string{
		EnvEODHD:    c.EODHD,
		EnvBCCHUser: c.BCCHUser,
		EnvBCCHPass: c.BCCHPass,
		EnvFRED:     c.FRED,
		EnvGemini:   c.Gemini,
	}
	var missing []string
	for _, n := range names {
		if values[n] == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credentials, set %s in the environment or in .env", strings.Join(missing, ", "))
	}
	return nil
}

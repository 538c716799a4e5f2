// Package config loads option-picker configuration from defaults, an
// optional config file, the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix prefixes every environment override, e.g.
// OPTION_PICKER_DATA_PROVIDER.
const EnvPrefix = "OPTION_PICKER"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	Massive  MassiveConfig  `mapstructure:"massive"`
	Data     DataConfig     `mapstructure:"data"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Selector SelectorConfig `mapstructure:"selector"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// MassiveConfig holds the Massive (Polygon) REST client settings.
type MassiveConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RateLimitWait time.Duration `mapstructure:"rate_limit_wait" validate:"gte=0"`
	MaxRetries    int           `mapstructure:"max_retries" validate:"gte=0"`
}

// DataConfig selects and shapes the market data provider.
type DataConfig struct {
	Provider    string             `mapstructure:"provider" validate:"oneof=massive synthetic csv"`
	CSVDir      string             `mapstructure:"csv_dir"`
	Spot        map[string]float64 `mapstructure:"spot"`
	DefaultSpot float64            `mapstructure:"default_spot" validate:"gte=0"`
	Volatility  float64            `mapstructure:"volatility" validate:"gte=0,lte=5"`
	Rate        float64            `mapstructure:"rate" validate:"gte=-1,lte=1"`
}

// CacheConfig holds the SQLite quote cache settings.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type SelectorConfig struct {
	ParallelLookups bool `mapstructure:"parallel_lookups"`
}

type ChartConfig struct {
	Points int `mapstructure:"points" validate:"gte=2,lte=10000"`
	Width  int `mapstructure:"width" validate:"gte=10,lte=400"`
	Height int `mapstructure:"height" validate:"gte=5,lte=200"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// LogConfig holds logger settings. An empty File logs to stderr only.
type LogConfig struct {
	Verbosity  int    `mapstructure:"verbosity" validate:"gte=0,lte=3"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"gte=0"`
}

// DefaultsConfig pre-fills the pick command.
type DefaultsConfig struct {
	Ticker     string `mapstructure:"ticker"`
	Expiration string `mapstructure:"expiration" validate:"omitempty,datetime=2006-01-02"`
	Date       string `mapstructure:"date" validate:"omitempty,datetime=2006-01-02"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/option-picker"
	}
	return filepath.Join(home, ".config", "option-picker")
}

// NewViper returns a viper instance with defaults and environment
// overrides registered. Callers may bind flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("massive.api_key", "")
	v.SetDefault("massive.base_url", "https://api.massive.com")
	v.SetDefault("massive.timeout", 30*time.Second)
	v.SetDefault("massive.rate_limit_wait", 20*time.Second)
	v.SetDefault("massive.max_retries", 10)

	v.SetDefault("data.provider", "massive")
	v.SetDefault("data.csv_dir", "")
	v.SetDefault("data.spot", map[string]float64{})
	v.SetDefault("data.default_spot", 100.0)
	v.SetDefault("data.volatility", 0.25)
	v.SetDefault("data.rate", 0.02)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", filepath.Join(DefaultConfigDir(), "quotes.db"))
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("selector.parallel_lookups", false)

	v.SetDefault("chart.points", 100)
	v.SetDefault("chart.width", 72)
	v.SetDefault("chart.height", 20)

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.verbosity", 1)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)

	v.SetDefault("defaults.ticker", "")
	v.SetDefault("defaults.expiration", "")
	v.SetDefault("defaults.date", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// legacy names, checked after the prefixed key
	_ = v.BindEnv("massive.api_key", EnvPrefix+"_MASSIVE_API_KEY", "MASSIVE_API_KEY", "POLYGON_API_KEY")

	return v
}

// Load reads file (or option-picker.{yaml,toml,json} from the working
// directory and DefaultConfigDir when file is empty) into v and returns
// the validated configuration. A missing default file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("option-picker")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field rules and cross-field rules, reporting every
// failure at once.
func (c *Config) Validate() error {
	var errs error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range fieldErrs {
			errs = multierr.Append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
		}
	}

	if c.Data.Provider == "csv" && c.Data.CSVDir == "" {
		errs = multierr.Append(errs, errors.New("data.csv_dir is required for the csv provider"))
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		errs = multierr.Append(errs, errors.New("cache.path is required when the cache is enabled"))
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

// ParseDate parses an optional calendar date; empty yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

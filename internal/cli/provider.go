package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/contactkeval/option-picker/internal/config"
	"github.com/contactkeval/option-picker/internal/data"
	"github.com/contactkeval/option-picker/internal/logger"
)

// NewProvider builds the provider chain named by cfg.Data.Provider,
// wrapped in the SQLite cache when enabled. The returned func releases it.
func NewProvider(cfg *config.Config) (data.Provider, func() error, error) {
	noop := func() error { return nil }

	var p data.Provider
	switch cfg.Data.Provider {
	case "synthetic":
		asOf, err := config.ParseDate(cfg.Defaults.Date)
		if err != nil {
			return nil, noop, fmt.Errorf("defaults.date: %w", err)
		}
		p = data.NewSyntheticProvider(data.SyntheticConfig{
			Spot:        cfg.Data.Spot,
			DefaultSpot: cfg.Data.DefaultSpot,
			Volatility:  cfg.Data.Volatility,
			Rate:        cfg.Data.Rate,
			AsOf:        asOf,
		})
		logger.Infof("synthetic provider enabled")

	case "csv":
		var secondary data.Provider
		if cfg.Massive.APIKey != "" {
			secondary = newMassive(cfg)
		}
		p = data.NewLocalFileDataProvider(cfg.Data.CSVDir, secondary)
		logger.Infof("local csv provider enabled dir=%s fallback=%t", cfg.Data.CSVDir, secondary != nil)

	case "massive", "":
		if cfg.Massive.APIKey == "" {
			return nil, noop, errors.New("massive provider needs an API key: set POLYGON_API_KEY or massive.api_key")
		}
		p = newMassive(cfg)
		logger.Infof("massive provider enabled base_url=%s", cfg.Massive.BaseURL)

	default:
		return nil, noop, fmt.Errorf("unknown provider %q", cfg.Data.Provider)
	}

	if !cfg.Cache.Enabled {
		return p, noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
		return nil, noop, fmt.Errorf("cache dir: %w", err)
	}
	cache, err := data.NewCacheDataProvider(cfg.Cache.Path, cfg.Cache.TTL, p)
	if err != nil {
		return nil, noop, err
	}
	return cache, cache.Close, nil
}

func newMassive(cfg *config.Config) data.Provider {
	return data.NewMassiveDataProvider(data.MassiveConfig{
		APIKey:        cfg.Massive.APIKey,
		BaseURL:       cfg.Massive.BaseURL,
		Timeout:       cfg.Massive.Timeout,
		RateLimitWait: cfg.Massive.RateLimitWait,
		MaxRetries:    cfg.Massive.MaxRetries,
	})
}

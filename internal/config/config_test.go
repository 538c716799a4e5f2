package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "massive", cfg.Data.Provider)
	assert.Equal(t, "https://api.massive.com", cfg.Massive.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Massive.RateLimitWait)
	assert.Equal(t, 100, cfg.Chart.Points)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1, cfg.Log.Verbosity)
	assert.False(t, cfg.Selector.ParallelLookups)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, "option-picker.yaml", `
data:
  provider: synthetic
  spot:
    SPY: 600
chart:
  points: 50
selector:
  parallel_lookups: true
defaults:
  ticker: BKNG
  expiration: 2025-03-21
`)
	t.Setenv("OPTION_PICKER_CHART_POINTS", "25")
	t.Setenv("POLYGON_API_KEY", "from-env")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, "synthetic", cfg.Data.Provider)
	assert.Equal(t, 600.0, cfg.Data.Spot["spy"])
	assert.Equal(t, 25, cfg.Chart.Points, "env beats file")
	assert.True(t, cfg.Selector.ParallelLookups)
	assert.Equal(t, "BKNG", cfg.Defaults.Ticker)
	assert.Equal(t, "from-env", cfg.Massive.APIKey)
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POLYGON_API_KEY", "legacy")
	t.Setenv("OPTION_PICKER_MASSIVE_API_KEY", "primary")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Massive.APIKey)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidReportsEveryFailure(t *testing.T) {
	path := writeConfig(t, "bad.toml", `
[data]
provider = "csv"

[chart]
points = 1

[log]
verbosity = 9
`)

	_, err := Load(nil, path)
	require.ErrorIs(t, err, ErrInvalidConfig)

	msg := err.Error()
	assert.Contains(t, msg, "Config.Chart.Points")
	assert.Contains(t, msg, "Config.Log.Verbosity")
	assert.Contains(t, msg, "data.csv_dir")
}

func TestValidate_Errors(t *testing.T) {
	cfg, err := Load(nil, writeConfig(t, "ok.yaml", "data:\n  provider: synthetic\n"))
	require.NoError(t, err)

	cfg.Data.Provider = "bloomberg"
	cfg.Cache.Enabled = true
	cfg.Cache.Path = ""
	cfg.Defaults.Date = "21/02/2025"

	err = cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Len(t, multierr.Errors(combined(err)), 3)
}

// combined strips the ErrInvalidConfig wrapper, leaving the
// combined multierr value.
func combined(err error) error {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range u.Unwrap() {
			if e != ErrInvalidConfig {
				return e
			}
		}
	}
	return err
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = ParseDate(" 2025-02-21 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 21, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("Feb 21")
	assert.Error(t, err)
}

// Package cli provides the option-picker command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/contactkeval/option-picker/internal/config"
	"github.com/contactkeval/option-picker/internal/data"
	"github.com/contactkeval/option-picker/internal/logger"
)

// Version information
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// App holds the dependencies shared by commands. Config is loaded before
// any command runs; the provider is built on first use.
type App struct {
	v      *viper.Viper
	Config *config.Config

	provider data.Provider
	closers  []func() error
}

// Provider returns the configured market data provider.
func (app *App) Provider() (data.Provider, error) {
	if app.provider != nil {
		return app.provider, nil
	}
	p, closeFn, err := NewProvider(app.Config)
	if err != nil {
		return nil, err
	}
	app.provider = p
	app.closers = append(app.closers, closeFn)
	return p, nil
}

func (app *App) close() error {
	var errs error
	for _, c := range app.closers {
		errs = multierr.Append(errs, c())
	}
	app.closers = nil
	return multierr.Append(errs, logger.Close())
}

// Execute runs the CLI with os.Args and releases every resource the
// commands opened, even when a command fails.
func Execute(ctx context.Context) error {
	rootCmd, app := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	return multierr.Append(err, app.close())
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	rootCmd, _ := newRootCmd()
	return rootCmd
}

func newRootCmd() (*cobra.Command, *App) {
	app := &App{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "option-picker",
		Short: "Pick and chart an options strategy from a target price",
		Long: `option-picker selects a basic options strategy (long call, bull call spread,
iron condor, bear put spread or long put) from the current and target price
of an underlying, prices each leg from the previous close of the nearest
listed contract, and charts the profit at expiration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(app.v, file)
			if err != nil {
				return err
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug && cfg.Log.Verbosity < int(logger.Debug) {
				cfg.Log.Verbosity = int(logger.Debug)
			}
			app.Config = cfg

			return logger.Init(logger.Options{
				Verbosity:  cfg.Log.Verbosity,
				Console:    cmd.ErrOrStderr(),
				FilePath:   cfg.Log.File,
				MaxSize:    cfg.Log.MaxSize,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAge:     cfg.Log.MaxAge,
			})
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./option-picker.yaml or "+config.DefaultConfigDir()+")")
	rootCmd.PersistentFlags().String("provider", "", "market data provider: massive, synthetic or csv")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	if err := app.v.BindPFlag("data.provider", rootCmd.PersistentFlags().Lookup("provider")); err != nil {
		panic(fmt.Sprintf("bind provider flag: %v", err))
	}

	rootCmd.AddCommand(newPickCmd(app))
	rootCmd.AddCommand(newPayoffCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd, app
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				_ = output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
				return
			}
			output.Printf("option-picker v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
		},
	}
}

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/contactkeval/option-picker/internal/logger"
	"github.com/contactkeval/option-picker/internal/server"
	"github.com/contactkeval/option-picker/internal/strategy"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the strategy API over HTTP",
		Long: `Serve GET /api/v1/strategy, POST /api/v1/payoff and GET /health until
interrupted.`,
		Example: `  option-picker serve --addr :8080
  option-picker --provider synthetic serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prov, err := app.Provider()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			if logger.Verbosity() < logger.Debug {
				gin.SetMode(gin.ReleaseMode)
			}
			h := server.NewHandler(prov, strategy.Selector{Parallel: app.Config.Selector.ParallelLookups}, app.Config.Chart.Points)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.NewServer(addr, server.NewEngine(h)).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}

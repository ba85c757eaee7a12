package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/choirstage/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API for sessions, editing commands, layouts and snapshots.

The store and cache backends come from the config file and CHOIRSTAGE_*
environment variables. Metrics are exposed at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			layouts, err := c.openLayouts(ctx, false)
			if err != nil {
				return err
			}
			defer layouts.Close()

			metrics := server.NewMetrics()
			metrics.Install()

			srv := server.New(server.Options{
				Service:       svc,
				Layouts:       layouts,
				Editor:        c.cfg.Editor.NewEditor(),
				Metrics:       metrics,
				Logger:        logger,
				MaxBodyBytes:  c.cfg.Server.MaxBodyBytes,
				AutosaveDelay: c.cfg.Editor.AutosaveDelay,
			})

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			logger.Info("starting server", "addr", addr, "store", c.cfg.Store.Backend, "cache", c.cfg.Cache.Backend)
			return srv.Run(ctx, server.RunOptions{
				Addr:            addr,
				ReadTimeout:     c.cfg.Server.ReadTimeout,
				WriteTimeout:    c.cfg.Server.WriteTimeout,
				ShutdownTimeout: c.cfg.Server.ShutdownTimeout,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

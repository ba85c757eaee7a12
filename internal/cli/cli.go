package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/choirstage/internal/config"
	"github.com/matzehuels/choirstage/pkg/buildinfo"
	"github.com/matzehuels/choirstage/pkg/cache"
	"github.com/matzehuels/choirstage/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "choirstage"

// envFiles are loaded from the working directory when present.
var envFiles = []string{".env", ".env.local"}

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Choirstage arranges choir seating charts",
		Long: `Choirstage lays out choir seating charts: a roster of singers grouped in
voice sections, placed on stage rows or on free-form canvas blocks, stored as
named sessions with snapshots.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.config/choirstage/config.toml if present)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.normalizeCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath, envFiles...)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Backend Factories
// =============================================================================

// openService opens the configured session store. Remote backends show a
// spinner while connecting.
func (c *CLI) openService(ctx context.Context) (*session.Service, func(), error) {
	var sp *Spinner
	if c.cfg.Store.Backend == config.StoreMongo {
		sp = newSpinnerWithContext(ctx, "Connecting to MongoDB...")
		sp.Start()
	}
	store, err := c.cfg.Store.OpenStore(ctx)
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			c.Logger.Warn("close store", "error", err)
		}
	}
	return session.NewService(store, c.Logger), closeFn, nil
}

// openLayouts opens the configured layout cache, or a disabled one.
func (c *CLI) openLayouts(ctx context.Context, noCache bool) (*cache.Layouts, error) {
	if noCache {
		return cache.NewLayouts(nil, nil, 0), nil
	}
	var sp *Spinner
	if c.cfg.Cache.Backend == config.CacheRedis {
		sp = newSpinnerWithContext(ctx, "Connecting to Redis...")
		sp.Start()
	}
	l, err := c.cfg.Cache.OpenLayouts(ctx)
	if sp != nil {
		sp.Stop()
	}
	return l, err
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/choirstage/internal/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if c.cfg.Cache.Backend == config.CacheNone {
				printInfo(w, "Cache is disabled")
				return nil
			}

			layouts, err := c.openLayouts(ctx, false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer layouts.Close()

			count, err := layouts.Clear(ctx)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo(w, "Cache is empty")
				return nil
			}
			printSuccess(w, "Cleared %d cached layouts", count)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch c.cfg.Cache.Backend {
			case config.CacheRedis:
				fmt.Fprintf(w, "redis://%s/%d %s*\n", c.cfg.Cache.Redis.Addr, c.cfg.Cache.Redis.DB, c.cfg.Cache.Redis.Prefix)
			case config.CacheNone:
				printInfo(w, "Cache is disabled")
			default:
				fmt.Fprintln(w, c.cfg.Cache.CacheDir())
			}
			return nil
		},
	}
}

package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI with args and returns the first command error.
//
// Logging goes to stderr at info level, or debug level with --verbose (-v).
// The logger is attached to the command context, where subcommands read it
// with loggerFromContext.
func Execute(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var verbose bool

	c := New(stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	loadConfig := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd, args); err != nil {
			return err
		}
		level := levelFromConfig(c.cfg.LogLevel)
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	return root.ExecuteContext(ctx)
}

func levelFromConfig(s string) log.Level {
	level, err := log.ParseLevel(s)
	if err != nil {
		return LogInfo
	}
	return level
}

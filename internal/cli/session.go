package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/integrity"
	"github.com/matzehuels/choirstage/pkg/errors"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage stored sessions",
	}

	cmd.AddCommand(c.sessionCreateCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionExportCommand())
	cmd.AddCommand(c.sessionRenameCommand())
	cmd.AddCommand(c.sessionResolveCommand())
	cmd.AddCommand(c.sessionDeleteCommand())

	return cmd
}

// sessionCreateCommand creates the "session create" subcommand.
func (c *CLI) sessionCreateCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a session from a chart file or an empty chart",
		Example: `  choirstage session create "Spring Concert"
  choirstage session create "Spring Concert" --from concert.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			m := chart.New(args[0])
			if from != "" {
				var err error
				if m, err = readChart(cmd, from); err != nil {
					return err
				}
			}

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			sess, err := svc.Create(ctx, args[0], m)
			if err != nil {
				return err
			}

			printSuccess(w, "Session created")
			printKeyValue(w, "Code", StyleHighlight.Render(sess.Code))
			printKeyValue(w, "Name", sess.Name)
			if report := integrity.Sweep(sess.Model); !report.Clean() {
				printWarning(w, "%d dangling references", report.Count())
				printReport(w, report)
				printNextStep(w, "Resolve them", "choirstage session resolve "+sess.Code+" --reassign <section>")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "chart file to import (- for stdin)")

	return cmd
}

// sessionShowCommand creates the "session show" subcommand.
func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Print a session's chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := svc.Load(ctx, args[0])
			if err != nil {
				return err
			}

			printKeyValue(w, "Code", StyleHighlight.Render(res.Session.Code))
			printKeyValue(w, "Name", res.Session.Name)
			printKeyValue(w, "Updated", res.Session.UpdatedAt.Local().Format("Jan 2, 2006 15:04"))
			printNewline(w)
			renderChart(w, res.Session.Model)
			if !res.Report.Clean() {
				printNewline(w)
				printWarning(w, "%d dangling references", res.Report.Count())
				printReport(w, res.Report)
			}
			return nil
		},
	}
}

// sessionExportCommand creates the "session export" subcommand.
func (c *CLI) sessionExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <code>",
		Short: "Write a session's chart as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := svc.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return chart.Write(res.Session.Model, cmd.OutOrStdout())
			}
			if err := chart.WriteFile(res.Session.Model, output); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Chart exported")
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

// sessionRenameCommand creates the "session rename" subcommand.
func (c *CLI) sessionRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <code> <name>",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			sess, err := svc.Rename(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Session %s renamed to %q", sess.Code, sess.Name)
			return nil
		},
	}
}

// sessionResolveCommand creates the "session resolve" subcommand.
func (c *CLI) sessionResolveCommand() *cobra.Command {
	var (
		reassign string
		discard  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <code>",
		Short: "Resolve dangling references in a session",
		Long: `Resolve the dangling references found when a session is loaded.

--reassign moves singers whose section no longer exists into the given
section. --discard clears seats and stage rows that point at singers who are
no longer on the roster. Both may be given together.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reassign == "" && !discard {
				return errors.New(errors.ErrCodeInvalidInput, "nothing to do: pass --reassign <section> or --discard")
			}
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := svc.Load(ctx, args[0])
			if err != nil {
				return err
			}
			m := res.Session.Model

			if reassign != "" {
				var n int
				if m, n, err = integrity.ReassignOrphans(m, reassign); err != nil {
					return err
				}
				printInfo(w, "Reassigned %d singers to %s", n, reassign)
			}
			if discard {
				var n int
				m, n = integrity.DiscardDangling(m)
				printInfo(w, "Discarded %d dangling references", n)
			}

			if _, err := svc.Save(ctx, args[0], m); err != nil {
				return err
			}
			if report := integrity.Sweep(m); !report.Clean() {
				printWarning(w, "%d dangling references remain", report.Count())
				return nil
			}
			printSuccess(w, "Session is clean")
			return nil
		},
	}

	cmd.Flags().StringVar(&reassign, "reassign", "", "section ID for orphaned singers")
	cmd.Flags().BoolVar(&discard, "discard", false, "clear seats of unknown singers")

	return cmd
}

// sessionDeleteCommand creates the "session delete" subcommand.
func (c *CLI) sessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a session and its snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := svc.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Session %s deleted", args[0])
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage session snapshots",
	}

	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotCreateCommand())
	cmd.AddCommand(c.snapshotRestoreCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())

	return cmd
}

// snapshotListCommand creates the "snapshot list" subcommand.
func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <code>",
		Short: "List a session's snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			snaps, err := svc.Snapshots(ctx, args[0])
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				printInfo(w, "No snapshots")
				printNextStep(w, "Create one", "choirstage snapshot create "+args[0])
				return nil
			}

			t := newTable("ID", "Name", "Singers", "Created")
			for _, s := range snaps {
				t.Row(s.ID, s.Name, strconv.Itoa(len(s.Model.Roster)), s.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
			}
			fmt.Fprintln(w, t.Render())
			return nil
		},
	}
}

// snapshotCreateCommand creates the "snapshot create" subcommand.
func (c *CLI) snapshotCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <code> [name]",
		Short: "Snapshot a session's current chart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			var name string
			if len(args) == 2 {
				name = args[1]
			}

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			snap, err := svc.Snapshot(ctx, args[0], name)
			if err != nil {
				return err
			}
			printSuccess(w, "Snapshot created")
			printKeyValue(w, "ID", StyleHighlight.Render(snap.ID))
			if snap.Name != "" {
				printKeyValue(w, "Name", snap.Name)
			}
			return nil
		},
	}
}

// snapshotRestoreCommand creates the "snapshot restore" subcommand.
func (c *CLI) snapshotRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <code> [id]",
		Short: "Replace a session's chart with a snapshot",
		Long: `Replace a session's chart with a snapshot. Without an ID an interactive
picker lists the session's snapshots.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			code := args[0]

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			var id string
			if len(args) == 2 {
				id = args[1]
			} else {
				snaps, err := svc.Snapshots(ctx, code)
				if err != nil {
					return err
				}
				if len(snaps) == 0 {
					printInfo(w, "No snapshots to restore")
					return nil
				}
				p := tea.NewProgram(NewSnapshotListModel(snaps),
					tea.WithContext(ctx),
					tea.WithInput(cmd.InOrStdin()),
					tea.WithOutput(cmd.ErrOrStderr()))
				final, err := p.Run()
				if err != nil {
					return err
				}
				fm, ok := final.(SnapshotListModel)
				if !ok || fm.Selected == nil {
					printDetail(w, "No selection made")
					return nil
				}
				id = fm.Selected.ID
			}

			res, err := svc.Restore(ctx, code, id)
			if err != nil {
				return err
			}
			printSuccess(w, "Restored snapshot %s into %s", id, code)
			if !res.Report.Clean() {
				printWarning(w, "%d dangling references", res.Report.Count())
				printReport(w, res.Report)
			}
			return nil
		},
	}
}

// snapshotDeleteCommand creates the "snapshot delete" subcommand.
func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code> <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, closeStore, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := svc.DeleteSnapshot(ctx, args[0], args[1]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Snapshot %s deleted", args[1])
			return nil
		},
	}
}

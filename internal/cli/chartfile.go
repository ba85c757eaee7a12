package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/integrity"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/errors"
	"github.com/matzehuels/choirstage/pkg/session"
)

// readChart reads a chart from path, or from stdin when path is "-".
func readChart(cmd *cobra.Command, path string) (chart.Model, error) {
	if path == "-" {
		return chart.Read(cmd.InOrStdin())
	}
	return chart.ReadFile(path)
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// =============================================================================
// layout
// =============================================================================

type layoutOutput struct {
	Generation string             `json:"generation"`
	Stage      layout.Stage       `json:"stage"`
	Placements []layout.Placement `json:"placements"`
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output        string
		width, height float64
		noCache       bool
	)

	cmd := &cobra.Command{
		Use:   "layout <chart.json>",
		Short: "Compute the placement of every singer, seat and block",
		Long: `Compute the placement of every entity of a chart and print it as JSON.

Results are cached by chart content and stage size. Use --no-cache to
always recompute.`,
		Example: `  choirstage layout concert.json
  choirstage layout concert.json --width 1200 --height 700 -o placements.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			m, err := readChart(cmd, args[0])
			if err != nil {
				return err
			}

			layouts, err := c.openLayouts(ctx, noCache)
			if err != nil {
				return err
			}
			defer layouts.Close()

			stage := c.cfg.Editor.Stage()
			if width > 0 {
				stage.Width = width
			}
			if height > 0 {
				stage.Height = height
			}

			prog := newProgress(logger)
			placements, cached := layouts.Compute(ctx, m, stage)
			prog.done(fmt.Sprintf("Laid out %d entities", len(placements)))

			out := layoutOutput{Generation: m.Generation(), Stage: stage, Placements: placements}
			if err := writeOutput(cmd, output, func(w io.Writer) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}); err != nil {
				return err
			}

			if output != "" && output != "-" {
				w := cmd.ErrOrStderr()
				printSuccess(w, "Layout written")
				printFile(w, output)
				printStats(w, countKind(placements, layout.PlacementMember, layout.PlacementToken), m.Settings.NumberOfRows, cached)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64Var(&width, "width", 0, "stage width (default: editor.stage_width)")
	cmd.Flags().Float64Var(&height, "height", 0, "stage height (default: editor.stage_height)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")

	return cmd
}

func countKind(placements []layout.Placement, kinds ...string) int {
	n := 0
	for _, p := range placements {
		for _, k := range kinds {
			if p.Kind == k {
				n++
				break
			}
		}
	}
	return n
}

// =============================================================================
// normalize
// =============================================================================

// normalizeCommand creates the normalize command.
func (c *CLI) normalizeCommand() *cobra.Command {
	var (
		output  string
		inPlace bool
	)

	cmd := &cobra.Command{
		Use:   "normalize <chart.json>",
		Short: "Validate a chart and normalize positions and stacking",
		Long: `Validate a chart and rewrite it in the form sessions store it: legacy row
positions renumbered 0..n-1 and block zIndex values made contiguous.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPlace && output != "" {
				return errors.New(errors.ErrCodeInvalidInput, "--in-place and --output are mutually exclusive")
			}
			if inPlace {
				if args[0] == "-" {
					return errors.New(errors.ErrCodeInvalidInput, "--in-place needs a file")
				}
				output = args[0]
			}

			m, err := readChart(cmd, args[0])
			if err != nil {
				return err
			}
			norm, err := session.Normalize(m)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return chart.Write(norm, cmd.OutOrStdout())
			}
			if err := chart.WriteFile(norm, output); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Chart normalized")
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "rewrite the input file")

	return cmd
}

// =============================================================================
// check
// =============================================================================

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <chart.json>",
		Short: "Check a chart for validation errors and dangling references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			m, err := readChart(cmd, args[0])
			if err != nil {
				return err
			}
			if err := chart.Validate(m); err != nil {
				printError(w, "%s", errors.UserMessage(err))
				return err
			}

			report := integrity.Sweep(m)
			if report.Clean() {
				printSuccess(w, "Chart is valid (%s, %d singers)", m.Generation(), len(m.Roster))
				return nil
			}

			printWarning(w, "%d dangling references", report.Count())
			printReport(w, report)
			printNewline(w)
			printNextStep(w, "Import and resolve", "choirstage session create --from "+args[0])
			return errors.New(errors.ErrCodeInvalidInput, "chart has %d dangling references", report.Count())
		},
	}
}

func printReport(w io.Writer, r integrity.Report) {
	for _, m := range r.OrphanedMembers {
		printDetail(w, "orphaned singer %s (%s): section %q not found", m.Name, m.ID, m.SectionID)
	}
	for _, s := range r.DanglingSeats {
		printDetail(w, "block %s seat %d: unknown singer %s", s.BlockID, s.Index, s.MemberID)
	}
	for _, s := range r.DanglingSeating {
		printDetail(w, "row %d: unknown singer %s", s.RowNumber, s.RosterID)
	}
}

// =============================================================================
// view
// =============================================================================

// viewCommand creates the view command.
func (c *CLI) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view <chart.json>",
		Short: "Print a chart as tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readChart(cmd, args[0])
			if err != nil {
				return err
			}
			renderChart(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// renderChart prints the chart summary, its sections with member counts,
// and either the stage rows or the canvas blocks.
func renderChart(w io.Writer, m chart.Model) {
	title := m.Title
	if title == "" {
		title = "Untitled chart"
	}
	fmt.Fprintln(w, StyleTitle.Render(title))
	printKeyValue(w, "Generation", m.Generation())
	printKeyValue(w, "Singers", strconv.Itoa(len(m.Roster)))
	printNewline(w)

	counts := make(map[string]int)
	for _, r := range m.Roster {
		counts[r.SectionID]++
	}
	sections := newTable("Section", "Color", "Singers")
	for _, s := range m.SectionsByOrder() {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("■ " + s.Color)
		sections.Row(s.Name, swatch, strconv.Itoa(counts[s.ID]))
	}
	fmt.Fprintln(w, sections.Render())

	if m.Generation() == chart.GenerationCanvas {
		blocks := newTable("Block", "Kind", "Position", "Size", "Seated", "Z")
		for _, b := range m.Blocks {
			size := layout.Size(b)
			seated := "—"
			if b.IsSeating() {
				n := 0
				for _, s := range b.Seats {
					if !s.IsEmpty() {
						n++
					}
				}
				seated = fmt.Sprintf("%d/%d", n, len(b.Seats))
			}
			kind := b.Kind
			if b.IsSeating() {
				kind += " (" + b.Layout + ")"
			} else {
				kind += " (" + b.Decoration + ")"
			}
			blocks.Row(b.DisplayName(), kind,
				fmt.Sprintf("%.0f,%.0f", b.X, b.Y),
				fmt.Sprintf("%.0f×%.0f", size.Width, size.Height),
				seated, strconv.Itoa(b.ZIndex))
		}
		fmt.Fprintln(w, blocks.Render())
		return
	}

	rows := newTable("Row", "Singers")
	seating := layout.NormalizeSeatingPositions(m.Seating)
	byRow := make([][]string, max(m.Settings.NumberOfRows, 1))
	for _, s := range seating {
		row := min(max(s.RowNumber, 0), len(byRow)-1)
		name := s.RosterID
		if r, ok := m.Member(s.RosterID); ok {
			name = r.Name
		}
		byRow[row] = append(byRow[row], name)
	}
	for i := len(byRow) - 1; i >= 0; i-- {
		rows.Row(strconv.Itoa(i+1), joinNames(byRow[i]))
	}
	fmt.Fprintln(w, rows.Render())
	printDetail(w, "piano %s, %s alignment", m.Settings.PianoPosition, m.Settings.AlignmentMode)
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return StyleDim.Render("empty")
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

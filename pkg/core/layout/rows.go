package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/geom"
)

// Legacy stage geometry. Rows occupy the vertical band between RowBandTop
// and RowBandBottom (fractions of stage height); row 0 is the topmost band.
const (
	RowBandTop    = 0.25
	RowBandBottom = 0.90
	MemberWidth   = 60.0
	MemberSpacing = 10.0

	// Piano marker position as fractions of the stage size.
	pianoInset = 0.08
	pianoY     = 0.95
)

// Stage is the legacy stage size in canvas units.
type Stage struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultStage is the stage size used when the host does not supply one.
var DefaultStage = Stage{Width: 1000, Height: 600}

// Center returns the neutral position used for unknown members.
func (s Stage) Center() geom.Point {
	return geom.Point{X: s.Width / 2, Y: s.Height / 2}
}

func (s Stage) orDefault() Stage {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultStage
	}
	return s
}

// NormalizeSeatingPositions clamps negative rows to 0, sorts each row by
// position (stable) and rewrites positions as 0..k-1 per row. The result is
// ordered by row, then position. The input slice is not modified.
//
// The function is idempotent and must run after every structural seating
// edit before the model is persisted.
func NormalizeSeatingPositions(seating []chart.SeatedMember) []chart.SeatedMember {
	out := slices.Clone(seating)
	for i := range out {
		if out[i].RowNumber < 0 {
			out[i].RowNumber = 0
		}
	}
	slices.SortStableFunc(out, func(a, b chart.SeatedMember) int {
		if c := cmp.Compare(a.RowNumber, b.RowNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})

	row, pos := -1, 0
	for i := range out {
		if out[i].RowNumber != row {
			row, pos = out[i].RowNumber, 0
		}
		out[i].Position = float64(pos)
		pos++
	}
	return out
}

// IsNormalized reports whether every row's positions are exactly 0..k-1.
func IsNormalized(seating []chart.SeatedMember) bool {
	byRow := make(map[int][]float64)
	for _, s := range seating {
		if s.RowNumber < 0 {
			return false
		}
		byRow[s.RowNumber] = append(byRow[s.RowNumber], s.Position)
	}
	for _, positions := range byRow {
		slices.Sort(positions)
		for i, p := range positions {
			if p != float64(i) {
				return false
			}
		}
	}
	return true
}

// RowY returns the y coordinate of a row's band center.
func RowY(row, rows int, stageHeight float64) float64 {
	rows = atLeastOne(rows)
	band := (RowBandBottom - RowBandTop) / float64(rows)
	return (RowBandTop + (float64(row)+0.5)*band) * stageHeight
}

// RowFromY returns the row whose band contains y. Points above the band map
// to row 0 and points below it to the last row.
func RowFromY(y float64, rows int, stageHeight float64) int {
	rows = atLeastOne(rows)
	if stageHeight <= 0 {
		return 0
	}
	pct := y / stageHeight
	if pct < RowBandTop {
		return 0
	}
	if pct >= RowBandBottom {
		return rows - 1
	}
	band := (RowBandBottom - RowBandTop) / float64(rows)
	row := int(math.Floor((pct - RowBandTop) / band))
	return min(max(row, 0), rows-1)
}

// BalancedXs centers a row of n members on the stage independently of the
// other rows.
func BalancedXs(n int, stageWidth float64) []float64 {
	if n <= 0 {
		return nil
	}
	rowWidth := float64(n)*MemberWidth + float64(n-1)*MemberSpacing
	start := (stageWidth - rowWidth) / 2
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = start + float64(i)*(MemberWidth+MemberSpacing) + MemberWidth/2
	}
	return xs
}

// GridXs places a row of n members on the column grid defined by the
// widest row (widest members). Shorter rows are centered within the grid
// with floor((widest-n)/2) leading empty columns so columns align across
// rows.
func GridXs(n, widest int, stageWidth float64) []float64 {
	if n <= 0 {
		return nil
	}
	widest = max(widest, n)
	gridWidth := float64(widest)*MemberWidth + float64(widest-1)*MemberSpacing
	start := (stageWidth - gridWidth) / 2
	lead := (widest - n) / 2
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = start + float64(lead+i)*(MemberWidth+MemberSpacing) + MemberWidth/2
	}
	return xs
}

// RowReflow is the legacy stage strategy. Its points follow the order of
// [RowReflow.Members], which are the normalized seated members.
type RowReflow struct {
	Settings chart.StageSettings
	Stage    Stage
	Members  []chart.SeatedMember
}

// NewRowReflow normalizes seating and builds the stage strategy. Rows at or
// beyond NumberOfRows are displayed on the last row, after its own members.
func NewRowReflow(seating []chart.SeatedMember, settings chart.StageSettings, stage Stage) RowReflow {
	rows := atLeastOne(settings.NumberOfRows)
	display := slices.Clone(seating)
	for i := range display {
		if display[i].RowNumber >= rows {
			// Keep overflow members behind the row's own members.
			display[i].Position += float64(display[i].RowNumber-rows+1) * 1e6
			display[i].RowNumber = rows - 1
		}
	}
	return RowReflow{
		Settings: settings,
		Stage:    stage.orDefault(),
		Members:  NormalizeSeatingPositions(display),
	}
}

// Kind implements Strategy.
func (r RowReflow) Kind() Kind { return KindRowReflow }

// Size implements Strategy.
func (r RowReflow) Size() geom.Size {
	return geom.Size{Width: r.Stage.Width, Height: r.Stage.Height}
}

// Points implements Strategy.
func (r RowReflow) Points() []geom.Point {
	counts := make(map[int]int)
	widest := 0
	for _, m := range r.Members {
		counts[m.RowNumber]++
		widest = max(widest, counts[m.RowNumber])
	}

	xsByRow := make(map[int][]float64, len(counts))
	for row, n := range counts {
		if r.Settings.AlignmentMode == chart.AlignGrid {
			xsByRow[row] = GridXs(n, widest, r.Stage.Width)
		} else {
			xsByRow[row] = BalancedXs(n, r.Stage.Width)
		}
	}

	points := make([]geom.Point, len(r.Members))
	for i, m := range r.Members {
		points[i] = geom.Point{
			X: xsByRow[m.RowNumber][int(m.Position)],
			Y: RowY(m.RowNumber, r.Settings.NumberOfRows, r.Stage.Height),
		}
	}
	return points
}

// Positions maps roster IDs to stage coordinates.
func (r RowReflow) Positions() map[string]geom.Point {
	points := r.Points()
	out := make(map[string]geom.Point, len(points))
	for i, m := range r.Members {
		out[m.RosterID] = points[i]
	}
	return out
}

// PianoPosition returns the piano marker position for the settings.
func PianoPosition(settings chart.StageSettings, stage Stage) geom.Point {
	stage = stage.orDefault()
	x := pianoInset * stage.Width
	if settings.PianoPosition == chart.PianoRight {
		x = stage.Width - x
	}
	return geom.Point{X: x, Y: pianoY * stage.Height}
}

package layout

import (
	"math"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/geom"
)

// Seating block geometry, in canvas units.
const (
	SeatDiameter   = 36.0
	SeatGapX       = 12.0
	SeatGapY       = 16.0
	BlockPadding   = 16.0
	HeaderReserve  = 28.0 // block name
	FooterReserve  = 12.0
	MinBlockWidth  = 120.0
	MinBlockHeight = 96.0

	pitchX = SeatDiameter + SeatGapX
	pitchY = SeatDiameter + SeatGapY
)

// Default decoration sizes by type.
var decorationSizes = map[string]geom.Size{
	chart.DecorationGap:   {Width: 80, Height: 80},
	chart.DecorationLabel: {Width: 160, Height: 40},
	chart.DecorationIcon:  {Width: 64, Height: 64},
}

// fallbackDecoration is used for unknown decoration types.
var fallbackDecoration = geom.Size{Width: 64, Height: 64}

// atLeastOne floors a row or column count at 1.
func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// staggerOffset is the extra width a staggered layout needs for its shifted
// odd rows.
func staggerOffset(layoutKind string, rows int) float64 {
	if layoutKind == chart.LayoutStaggered && rows > 1 {
		return pitchX / 2
	}
	return 0
}

// SeatingSize returns the dimensions of a seating block with the given
// layout and counts. Counts below 1 are treated as 1.
func SeatingSize(layoutKind string, rows, columns int) geom.Size {
	rows, columns = atLeastOne(rows), atLeastOne(columns)
	w := 2*BlockPadding + float64(columns)*SeatDiameter + float64(columns-1)*SeatGapX
	w += staggerOffset(layoutKind, rows)
	h := HeaderReserve + FooterReserve + 2*BlockPadding +
		float64(rows)*SeatDiameter + float64(rows-1)*SeatGapY
	return geom.Size{Width: math.Max(w, MinBlockWidth), Height: math.Max(h, MinBlockHeight)}
}

// DecorationSize returns the user-set size of a decoration, falling back to
// the per-type default for unset dimensions.
func DecorationSize(b chart.Block) geom.Size {
	def, ok := decorationSizes[b.Decoration]
	if !ok {
		def = fallbackDecoration
	}
	size := def
	if b.Width > 0 {
		size.Width = b.Width
	}
	if b.Height > 0 {
		size.Height = b.Height
	}
	return size
}

// Size returns the dimensions of any block.
func Size(b chart.Block) geom.Size {
	if b.IsSeating() {
		return SeatingSize(b.Layout, b.Rows, b.Columns)
	}
	return DecorationSize(b)
}

// Bounds returns the bounding box of a block in canvas coordinates.
func Bounds(b chart.Block) geom.Rect {
	return geom.RectAt(geom.Point{X: b.X, Y: b.Y}, Size(b))
}

// Regrid converts a proposed pixel size back into a row/column count by
// inverting [SeatingSize]. Counts are rounded to the nearest integer and
// clamped to 1..[chart.MaxRows] and 1..[chart.MaxColumns].
//
// Every column count whose natural width fits within MinBlockWidth renders
// at MinBlockWidth, so widths at or below it are ambiguous: current is kept
// when it is one of those counts, otherwise the largest of them is used.
func Regrid(layoutKind string, width, height float64, current int) (rows, columns int) {
	rows = clampCount(math.Round((height-HeaderReserve-FooterReserve-2*BlockPadding+SeatGapY)/pitchY), chart.MaxRows)
	stagger := staggerOffset(layoutKind, rows)
	if width <= MinBlockWidth {
		fit := clampCount(math.Floor((MinBlockWidth-2*BlockPadding+SeatGapX-stagger)/pitchX), chart.MaxColumns)
		if current >= 1 && current <= fit {
			return rows, current
		}
		return rows, fit
	}
	columns = clampCount(math.Round((width-2*BlockPadding+SeatGapX-stagger)/pitchX), chart.MaxColumns)
	return rows, columns
}

func clampCount(v float64, limit int) int {
	switch {
	case math.IsNaN(v) || v < 1:
		return 1
	case v > float64(limit):
		return limit
	}
	return int(v)
}

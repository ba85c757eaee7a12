package layout

import (
	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/geom"
)

// Kind identifies a placement strategy.
type Kind string

// Placement strategy kinds.
const (
	KindRowReflow Kind = "rows"
	KindGrid      Kind = chart.LayoutGrid
	KindStaggered Kind = chart.LayoutStaggered
)

// Strategy generates slot coordinates for one container: the legacy stage
// or a seating block. Points are container-local slot centers in slot order
// (row-major for blocks, normalized seating order for the stage).
type Strategy interface {
	Kind() Kind
	Size() geom.Size
	Points() []geom.Point
}

// Grid lays out Rows × Columns seats.
type Grid struct {
	Rows, Columns int
}

// Kind implements Strategy.
func (g Grid) Kind() Kind { return KindGrid }

// Size implements Strategy.
func (g Grid) Size() geom.Size { return SeatingSize(chart.LayoutGrid, g.Rows, g.Columns) }

// Points implements Strategy.
func (g Grid) Points() []geom.Point {
	return seatPoints(uniformRows(g.Rows, g.Columns), g.Size(), 0)
}

// Staggered lays out Rows × Columns seats with odd rows shifted right by
// half a seat pitch.
type Staggered struct {
	Rows, Columns int
}

// Kind implements Strategy.
func (s Staggered) Kind() Kind { return KindStaggered }

// Size implements Strategy.
func (s Staggered) Size() geom.Size {
	return SeatingSize(chart.LayoutStaggered, s.Rows, s.Columns)
}

// Points implements Strategy.
func (s Staggered) Points() []geom.Point {
	return seatPoints(uniformRows(s.Rows, s.Columns), s.Size(), staggerOffset(chart.LayoutStaggered, atLeastOne(s.Rows)))
}

// ForBlock returns the strategy for a seating block. Decorations and
// unknown layouts fall back to Grid.
func ForBlock(b chart.Block) Strategy {
	if b.Layout == chart.LayoutStaggered {
		return Staggered{Rows: b.Rows, Columns: b.Columns}
	}
	return Grid{Rows: b.Rows, Columns: b.Columns}
}

// uniformRows returns per-row seat counts for a rows × columns block.
func uniformRows(rows, columns int) []int {
	rows, columns = atLeastOne(rows), atLeastOne(columns)
	counts := make([]int, rows)
	for i := range counts {
		counts[i] = columns
	}
	return counts
}

// seatPoints generates row-major seat centers. Each row is centered against
// the container width; odd rows are shifted by stagger.
func seatPoints(counts []int, size geom.Size, stagger float64) []geom.Point {
	var total int
	for _, n := range counts {
		total += n
	}
	points := make([]geom.Point, 0, total)
	for r, n := range counts {
		rowWidth := float64(n)*SeatDiameter + float64(max(n-1, 0))*SeatGapX
		offsetX := (size.Width - rowWidth - stagger) / 2
		if r%2 == 1 {
			offsetX += stagger
		}
		cy := HeaderReserve + BlockPadding + float64(r)*pitchY + SeatDiameter/2
		for c := 0; c < n; c++ {
			points = append(points, geom.Point{
				X: offsetX + float64(c)*pitchX + SeatDiameter/2,
				Y: cy,
			})
		}
	}
	return points
}

// NearestPoint returns the index of the point closest to p by Euclidean
// distance. Ties resolve to the lowest index. Returns -1 for no points.
func NearestPoint(points []geom.Point, p geom.Point) int {
	best, bestDist := -1, 0.0
	for i, q := range points {
		d := geom.Distance(p, q)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// SeatCenter returns the canvas position of a seat. Out-of-range indexes
// yield the block center.
func SeatCenter(b chart.Block, index int) geom.Point {
	bounds := Bounds(b)
	points := ForBlock(b).Points()
	if index < 0 || index >= len(points) {
		return bounds.Center()
	}
	return points[index].Add(bounds.Origin())
}

// Package drag resolves continuous pointer input into discrete seating
// changes.
//
// Two resolvers exist, one per seating generation:
//
//   - [ResolveTokenDrop] maps a canvas drop point onto the nearest seat of
//     the topmost seating block under the point.
//   - [PreviewRowDrop] maps a stage point onto a legacy row and a shadow
//     position between that row's members.
//
// Neither resolver returns an error. A drop that cannot be resolved reports
// ok == false and the caller restores the pre-drag state.
package drag

import (
	"cmp"
	"slices"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/geom"
	"github.com/matzehuels/choirstage/pkg/core/layout"
)

// Viewport is the host's pan/zoom transform from stage to screen space.
type Viewport struct {
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
	Zoom float64 `json:"zoom"`
}

// ToStage converts a screen point into stage coordinates. A zoom of zero or
// less is treated as 1.
func (v Viewport) ToStage(screen geom.Point) geom.Point {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return geom.Point{
		X: (screen.X - v.PanX) / zoom,
		Y: (screen.Y - v.PanY) / zoom,
	}
}

// TokenDrop is a resolved drop target.
type TokenDrop struct {
	BlockID   string     `json:"blockId"`
	SeatIndex int        `json:"seatIndex"`
	Local     geom.Point `json:"local"`
}

// ResolveTokenDrop finds the seat nearest to a canvas point. The point must
// lie inside a seating block; when blocks overlap the one with the highest
// zIndex wins, and among equal zIndex the later block (painted last).
func ResolveTokenDrop(blocks []chart.Block, point geom.Point) (TokenDrop, bool) {
	target := -1
	for i := range blocks {
		b := blocks[i]
		if !b.IsSeating() || !layout.Bounds(b).Contains(point) {
			continue
		}
		if target < 0 || b.ZIndex >= blocks[target].ZIndex {
			target = i
		}
	}
	if target < 0 {
		return TokenDrop{}, false
	}

	b := blocks[target]
	local := layout.Bounds(b).Local(point)
	points := layout.ForBlock(b).Points()
	if len(points) > len(b.Seats) {
		points = points[:len(b.Seats)]
	}
	idx := layout.NearestPoint(points, local)
	if idx < 0 {
		return TokenDrop{}, false
	}
	return TokenDrop{BlockID: b.ID, SeatIndex: idx, Local: local}, true
}

// RowPreview is the state rendered while a legacy member is dragged.
// Members is committed verbatim on drop.
type RowPreview struct {
	MemberID string               `json:"memberId"`
	Row      int                  `json:"row"`
	Index    int                  `json:"index"`
	Position float64              `json:"position"`
	Members  []chart.SeatedMember `json:"members"`
}

// PreviewRowDrop computes where a dragged legacy member lands.
//
// The row comes from the stage point's vertical band. The insertion index is
// the number of row siblings (excluding the dragged member) whose display x
// lies left of the point. The shadow position is first-1 before the first
// sibling, last+1 after the last, the midpoint between two neighbors, or 0
// in an empty row. Positions are not normalized here.
func PreviewRowDrop(members []chart.SeatedMember, settings chart.StageSettings, stage layout.Stage, draggedID string, point geom.Point) (RowPreview, bool) {
	dragged := slices.IndexFunc(members, func(m chart.SeatedMember) bool {
		return m.RosterID == draggedID
	})
	if dragged < 0 {
		return RowPreview{}, false
	}

	others := slices.Delete(slices.Clone(members), dragged, dragged+1)
	reflow := layout.NewRowReflow(others, settings, stage)
	row := layout.RowFromY(point.Y, settings.NumberOfRows, reflow.Stage.Height)

	var siblings []chart.SeatedMember
	for _, m := range others {
		if m.RowNumber == row {
			siblings = append(siblings, m)
		}
	}
	slices.SortStableFunc(siblings, func(a, b chart.SeatedMember) int {
		return cmp.Compare(a.Position, b.Position)
	})

	display := reflow.Positions()
	index := 0
	for _, s := range siblings {
		if display[s.RosterID].X < point.X {
			index++
		}
	}

	var shadow float64
	switch {
	case len(siblings) == 0:
		shadow = 0
	case index == 0:
		shadow = siblings[0].Position - 1
	case index == len(siblings):
		shadow = siblings[len(siblings)-1].Position + 1
	default:
		shadow = (siblings[index-1].Position + siblings[index].Position) / 2
	}

	out := slices.Clone(members)
	out[dragged].RowNumber = row
	out[dragged].Position = shadow
	return RowPreview{
		MemberID: draggedID,
		Row:      row,
		Index:    index,
		Position: shadow,
		Members:  out,
	}, true
}

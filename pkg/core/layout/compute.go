package layout

import (
	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/geom"
)

// Placement kinds.
const (
	PlacementMember = "member" // legacy stage member
	PlacementPiano  = "piano"
	PlacementBlock  = "block"
	PlacementSeat   = "seat"
	PlacementToken  = "token" // member seated in a block
)

// Placement is one positioned entity. X and Y are the entity's center for
// members, seats, tokens and the piano, and the top-left corner for blocks.
type Placement struct {
	EntityID  string  `json:"entityId"`
	Kind      string  `json:"kind"`
	BlockID   string  `json:"blockId,omitempty"`
	MemberID  string  `json:"memberId,omitempty"`
	SectionID string  `json:"sectionId,omitempty"`
	Index     int     `json:"index,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	ZIndex    int     `json:"zIndex,omitempty"`
}

// Compute lays out every entity of a model. Legacy members and the piano
// marker are placed on stage; blocks, their seats and seated tokens on the
// canvas. The result is ordered: stage entities first, then blocks in slice
// order, each followed by its seats and tokens.
func Compute(m chart.Model, stage Stage) []Placement {
	stage = stage.orDefault()
	var out []Placement

	if len(m.Seating) > 0 || len(m.Blocks) == 0 {
		reflow := NewRowReflow(m.Seating, m.Settings, stage)
		points := reflow.Points()
		for i, sm := range reflow.Members {
			p := Placement{
				EntityID: sm.RosterID,
				Kind:     PlacementMember,
				MemberID: sm.RosterID,
				X:        points[i].X,
				Y:        points[i].Y,
				Width:    MemberWidth,
			}
			if member, ok := m.Member(sm.RosterID); ok {
				p.SectionID = member.SectionID
			}
			out = append(out, p)
		}
		piano := PianoPosition(m.Settings, stage)
		out = append(out, Placement{EntityID: "piano", Kind: PlacementPiano, X: piano.X, Y: piano.Y})
	}

	for _, b := range m.Blocks {
		bounds := Bounds(b)
		out = append(out, Placement{
			EntityID: b.ID,
			Kind:     PlacementBlock,
			BlockID:  b.ID,
			X:        bounds.X,
			Y:        bounds.Y,
			Width:    bounds.Width,
			Height:   bounds.Height,
			ZIndex:   b.ZIndex,
		})
		if !b.IsSeating() {
			continue
		}
		points := ForBlock(b).Points()
		for i, seat := range b.Seats {
			center := bounds.Center()
			if i < len(points) {
				center = points[i].Add(bounds.Origin())
			}
			out = append(out, Placement{
				EntityID: seat.ID,
				Kind:     PlacementSeat,
				BlockID:  b.ID,
				Index:    i,
				X:        center.X,
				Y:        center.Y,
				Width:    SeatDiameter,
				Height:   SeatDiameter,
				ZIndex:   b.ZIndex,
			})
			if seat.IsEmpty() {
				continue
			}
			token := Placement{
				EntityID: seat.MemberID,
				Kind:     PlacementToken,
				BlockID:  b.ID,
				MemberID: seat.MemberID,
				Index:    i,
				X:        center.X,
				Y:        center.Y,
				ZIndex:   b.ZIndex,
			}
			if member, ok := m.Member(seat.MemberID); ok {
				token.SectionID = member.SectionID
			}
			out = append(out, token)
		}
	}
	return out
}

// MemberPosition returns the stage position of a legacy member. Unknown
// members resolve to the stage center.
func MemberPosition(m chart.Model, stage Stage, rosterID string) geom.Point {
	stage = stage.orDefault()
	if p, ok := NewRowReflow(m.Seating, m.Settings, stage).Positions()[rosterID]; ok {
		return p
	}
	return stage.Center()
}

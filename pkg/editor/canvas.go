package editor

import (
	"strings"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/drag"
	"github.com/matzehuels/choirstage/pkg/core/geom"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/core/snap"
	"github.com/matzehuels/choirstage/pkg/core/zorder"
	"github.com/matzehuels/choirstage/pkg/errors"
)

// =============================================================================
// Block Commands
// =============================================================================

// SeatingSpec describes a new seating block.
type SeatingSpec struct {
	Name    string  `json:"name,omitempty"`
	Layout  string  `json:"layout,omitempty"` // default grid
	Rows    int     `json:"rows" validate:"gte=1,lte=50"`
	Columns int     `json:"columns" validate:"gte=1,lte=50"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// DecorationSpec describes a new decoration block.
type DecorationSpec struct {
	Decoration string  `json:"decoration"`
	Text       string  `json:"text,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
}

// AddSeatingBlock adds an empty seating block on top of the stack.
func (e *Editor) AddSeatingBlock(m chart.Model, spec SeatingSpec) (chart.Model, chart.Block, error) {
	if spec.Layout == "" {
		spec.Layout = chart.LayoutGrid
	}
	if spec.Layout != chart.LayoutGrid && spec.Layout != chart.LayoutStaggered {
		return m, chart.Block{}, errors.New(errors.ErrCodeInvalidBlock, "invalid layout %q", spec.Layout)
	}
	if err := checkGrid(spec.Rows, spec.Columns); err != nil {
		return m, chart.Block{}, err
	}

	b := chart.Block{
		ID:     e.id(),
		Kind:   chart.KindSeating,
		Name:   strings.TrimSpace(spec.Name),
		X:      spec.X,
		Y:      spec.Y,
		ZIndex: zorder.Next(m.Blocks),
		Layout: spec.Layout,
	}
	e.regrid(&b, spec.Rows, spec.Columns)

	out := m.Clone()
	out.Blocks = zorder.Normalize(append(out.Blocks, b))
	return out, out.Blocks[len(out.Blocks)-1], nil
}

// AddDecoration adds a decoration block on top of the stack.
func (e *Editor) AddDecoration(m chart.Model, spec DecorationSpec) (chart.Model, chart.Block, error) {
	switch spec.Decoration {
	case chart.DecorationGap, chart.DecorationLabel, chart.DecorationIcon:
	default:
		return m, chart.Block{}, errors.New(errors.ErrCodeInvalidBlock, "invalid decoration %q", spec.Decoration)
	}
	if spec.Width < 0 || spec.Height < 0 {
		return m, chart.Block{}, errors.New(errors.ErrCodeInvalidBlock, "decoration size cannot be negative")
	}

	b := chart.Block{
		ID:         e.id(),
		Kind:       chart.KindDecoration,
		X:          spec.X,
		Y:          spec.Y,
		ZIndex:     zorder.Next(m.Blocks),
		Decoration: spec.Decoration,
		Text:       spec.Text,
		Width:      spec.Width,
		Height:     spec.Height,
	}
	out := m.Clone()
	out.Blocks = zorder.Normalize(append(out.Blocks, b))
	return out, out.Blocks[len(out.Blocks)-1], nil
}

// RemoveBlock deletes a block. Seated members stay in the roster.
func (e *Editor) RemoveBlock(m chart.Model, id string) (chart.Model, bool, error) {
	idx, err := block(&m, id)
	if err != nil {
		return m, false, err
	}
	out := m.Clone()
	out.Blocks = append(out.Blocks[:idx], out.Blocks[idx+1:]...)
	out.Blocks = zorder.Normalize(out.Blocks)
	return out, true, nil
}

// RenameBlock sets a block's display name.
func (e *Editor) RenameBlock(m chart.Model, id, name string) (chart.Model, bool, error) {
	idx, err := block(&m, id)
	if err != nil {
		return m, false, err
	}
	name = strings.TrimSpace(name)
	if err := errors.ValidateTitle(name); err != nil {
		return m, false, err
	}
	if m.Blocks[idx].Name == name {
		return m, false, nil
	}
	out := m.Clone()
	out.Blocks[idx].Name = name
	return out, true, nil
}

// SetLayout switches a seating block between grid and staggered. Seats and
// assignments are kept.
func (e *Editor) SetLayout(m chart.Model, id, layoutKind string) (chart.Model, bool, error) {
	idx, err := seatingBlock(&m, id)
	if err != nil {
		return m, false, err
	}
	if layoutKind != chart.LayoutGrid && layoutKind != chart.LayoutStaggered {
		return m, false, errors.New(errors.ErrCodeInvalidBlock, "invalid layout %q", layoutKind)
	}
	if m.Blocks[idx].Layout == layoutKind {
		return m, false, nil
	}
	out := m.Clone()
	out.Blocks[idx].Layout = layoutKind
	return out, true, nil
}

// =============================================================================
// Move and Resize
// =============================================================================

func snapElements(blocks []chart.Block) []snap.Element {
	elements := make([]snap.Element, len(blocks))
	for i, b := range blocks {
		elements[i] = snap.Element{ID: b.ID, Bounds: layout.Bounds(b)}
	}
	return elements
}

// PreviewMove resolves snapping for a block dragged to point without
// changing the model. Hosts draw the returned guides while dragging.
func (e *Editor) PreviewMove(m chart.Model, id string, point geom.Point) (snap.Result, error) {
	if _, err := block(&m, id); err != nil {
		return snap.Result{}, err
	}
	return snap.Resolve(id, point, snapElements(m.Blocks), e.Snap), nil
}

// ProposeMove moves a block's top-left corner to point, snapped to the edges
// of the other blocks.
func (e *Editor) ProposeMove(m chart.Model, id string, point geom.Point) (chart.Model, bool, error) {
	res, err := e.PreviewMove(m, id, point)
	if err != nil {
		return m, false, err
	}
	idx := m.BlockIndex(id)
	if m.Blocks[idx].X == res.Point.X && m.Blocks[idx].Y == res.Point.Y {
		return m, false, nil
	}
	out := m.Clone()
	out.Blocks[idx].X = res.Point.X
	out.Blocks[idx].Y = res.Point.Y
	return out, true, nil
}

// ProposeResize resizes a block to a proposed pixel size. Seating blocks
// convert the size to the nearest rows × columns, capped at chart.MaxRows ×
// chart.MaxColumns; decorations take the size as is. Proposing the current
// size is a no-op.
func (e *Editor) ProposeResize(m chart.Model, id string, width, height float64) (chart.Model, bool, error) {
	idx, err := block(&m, id)
	if err != nil {
		return m, false, err
	}
	b := m.Blocks[idx]
	if b.IsSeating() {
		if size := layout.Size(b); size.Width == width && size.Height == height {
			return m, false, nil
		}
		rows, cols := layout.Regrid(b.Layout, width, height, b.Columns)
		return e.ResizeGrid(m, id, rows, cols)
	}

	if width <= 0 || height <= 0 {
		return m, false, errors.New(errors.ErrCodeInvalidBlock, "size must be positive, got %vx%v", width, height)
	}
	if b.Width == width && b.Height == height {
		return m, false, nil
	}
	out := m.Clone()
	out.Blocks[idx].Width = width
	out.Blocks[idx].Height = height
	return out, true, nil
}

// ResizeGrid sets a seating block's row and column counts. Seats are kept
// by index: assignments at indexes that still exist survive, seats beyond
// the new count are dropped with their assignments, and new seats are
// empty.
func (e *Editor) ResizeGrid(m chart.Model, id string, rows, columns int) (chart.Model, bool, error) {
	idx, err := seatingBlock(&m, id)
	if err != nil {
		return m, false, err
	}
	if err := checkGrid(rows, columns); err != nil {
		return m, false, err
	}
	b := m.Blocks[idx]
	if b.Rows == rows && b.Columns == columns && len(b.Seats) == rows*columns {
		return m, false, nil
	}
	out := m.Clone()
	e.regrid(&out.Blocks[idx], rows, columns)
	return out, true, nil
}

func checkGrid(rows, columns int) error {
	if rows < 1 || columns < 1 {
		return errors.New(errors.ErrCodeInvalidBlock, "rows and columns must be at least 1")
	}
	if rows > chart.MaxRows || columns > chart.MaxColumns {
		return errors.New(errors.ErrCodeInvalidBlock,
			"%dx%d exceeds the %dx%d block limit", rows, columns, chart.MaxRows, chart.MaxColumns)
	}
	return nil
}

// regrid rebuilds a block's seats for new counts, keeping seats by index.
func (e *Editor) regrid(b *chart.Block, rows, columns int) {
	seats := make([]chart.Seat, rows*columns)
	for i := range seats {
		if i < len(b.Seats) {
			seats[i] = b.Seats[i]
			continue
		}
		seats[i] = chart.Seat{ID: e.id()}
	}
	b.Rows, b.Columns, b.Seats = rows, columns, seats
}

// =============================================================================
// Seat Assignment
// =============================================================================

// Assignment selects the member for a seat. MemberID wins over Name. A Name
// that matches no roster member (case-insensitive) creates a new member in
// the first section. Both empty clears the seat.
type Assignment struct {
	MemberID string `json:"memberId,omitempty"`
	Name     string `json:"name,omitempty"`
}

// IsEmpty reports whether the assignment clears the seat.
func (a Assignment) IsEmpty() bool {
	return a.MemberID == "" && strings.TrimSpace(a.Name) == ""
}

// ProposeSeatAssignment assigns a member to a seat. A member holds at most
// one seat: assigning a seated member moves them and empties their previous
// seat.
func (e *Editor) ProposeSeatAssignment(m chart.Model, blockID string, seatIndex int, a Assignment) (chart.Model, bool, error) {
	idx, err := seatingBlock(&m, blockID)
	if err != nil {
		return m, false, err
	}
	if err := seat(&m.Blocks[idx], seatIndex); err != nil {
		return m, false, err
	}

	out := m.Clone()
	memberID := a.MemberID
	switch {
	case a.IsEmpty():
	case memberID != "":
		if _, err := member(&out, memberID); err != nil {
			return m, false, err
		}
	default:
		if r, ok := out.MemberByName(a.Name); ok {
			memberID = r.ID
			break
		}
		name := strings.TrimSpace(a.Name)
		if err := errors.ValidateMemberName(name); err != nil {
			return m, false, err
		}
		memberID = e.id()
		out.Roster = append(out.Roster, chart.RosterMember{
			ID:        memberID,
			Name:      name,
			SectionID: defaultSection(&out),
		})
	}

	if out.Blocks[idx].Seats[seatIndex].MemberID == memberID {
		return m, false, nil
	}
	if memberID != "" {
		for bi := range out.Blocks {
			for si := range out.Blocks[bi].Seats {
				if out.Blocks[bi].Seats[si].MemberID == memberID {
					out.Blocks[bi].Seats[si].MemberID = ""
				}
			}
		}
	}
	out.Blocks[idx].Seats[seatIndex].MemberID = memberID
	return out, true, nil
}

// DropToken resolves a member token dragged from a seat and dropped at a
// canvas point. The source and target assignments are swapped, so dropping
// onto an occupied seat exchanges the two members. A drop outside every
// seating block, onto the source seat, or from an empty seat is a no-op.
func (e *Editor) DropToken(m chart.Model, blockID string, seatIndex int, point geom.Point) (chart.Model, bool, error) {
	src, err := seatingBlock(&m, blockID)
	if err != nil {
		return m, false, err
	}
	if err := seat(&m.Blocks[src], seatIndex); err != nil {
		return m, false, err
	}
	if m.Blocks[src].Seats[seatIndex].IsEmpty() {
		return m, false, nil
	}

	target, ok := drag.ResolveTokenDrop(m.Blocks, point)
	if !ok {
		return m, false, nil
	}
	dst := m.BlockIndex(target.BlockID)
	if dst == src && target.SeatIndex == seatIndex {
		return m, false, nil
	}

	out := m.Clone()
	from := &out.Blocks[src].Seats[seatIndex]
	to := &out.Blocks[dst].Seats[target.SeatIndex]
	from.MemberID, to.MemberID = to.MemberID, from.MemberID
	return out, true, nil
}

// Reorder moves a block one step forward or backward in the stack.
func (e *Editor) Reorder(m chart.Model, id string, dir zorder.Direction) (chart.Model, bool, error) {
	blocks, changed, err := zorder.Reorder(m.Blocks, id, dir)
	if err != nil || !changed {
		return m, false, err
	}
	out := m.Clone()
	out.Blocks = blocks
	return out, true, nil
}

// BringToFront moves a block above all others.
func (e *Editor) BringToFront(m chart.Model, id string) (chart.Model, bool, error) {
	blocks, changed, err := zorder.ToFront(m.Blocks, id)
	if err != nil || !changed {
		return m, false, err
	}
	out := m.Clone()
	out.Blocks = blocks
	return out, true, nil
}

// SendToBack moves a block below all others.
func (e *Editor) SendToBack(m chart.Model, id string) (chart.Model, bool, error) {
	blocks, changed, err := zorder.ToBack(m.Blocks, id)
	if err != nil || !changed {
		return m, false, err
	}
	out := m.Clone()
	out.Blocks = blocks
	return out, true, nil
}

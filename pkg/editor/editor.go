// Package editor applies user commands to chart models.
//
// Every command takes a model by value and returns a new model; the input is
// never modified, so hosts can swap whole models atomically. Commands return
// (model, applied, error):
//
//   - applied == false with a nil error is a rejected or no-op command (a
//     drop outside every block, a reorder at the top of the stack). The
//     returned model is the unchanged input.
//   - errors are reserved for invalid input and for addressing entities
//     that do not exist. Use errors.IsValidation and errors.IsNotFound to
//     tell them apart.
//
// Structural invariants hold on every returned model: a seating block has
// exactly rows*columns seats, legacy positions are dense per row, block
// zIndex values are dense, and no seat references a missing member.
package editor

import (
	"github.com/google/uuid"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/core/snap"
	"github.com/matzehuels/choirstage/pkg/errors"
)

// Editor holds the host configuration commands need. The zero value is
// usable: it snaps with the default threshold on the default stage.
type Editor struct {
	// Snap configures block snapping in ProposeMove.
	Snap snap.Options
	// Stage is the legacy stage size.
	Stage layout.Stage
	// NewID generates entity IDs. Defaults to random UUIDs.
	NewID func() string
}

// New returns an editor with default snapping and stage size.
func New() *Editor {
	return &Editor{
		Snap:  snap.Options{Threshold: snap.DefaultThreshold},
		Stage: layout.DefaultStage,
		NewID: uuid.NewString,
	}
}

func (e *Editor) id() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e *Editor) stage() layout.Stage {
	if e.Stage.Width <= 0 || e.Stage.Height <= 0 {
		return layout.DefaultStage
	}
	return e.Stage
}

// block returns the slice index of a block.
func block(m *chart.Model, id string) (int, error) {
	idx := m.BlockIndex(id)
	if idx < 0 {
		return -1, errors.New(errors.ErrCodeBlockNotFound, "block %q not found", id)
	}
	return idx, nil
}

// seatingBlock returns the slice index of a seating block.
func seatingBlock(m *chart.Model, id string) (int, error) {
	idx, err := block(m, id)
	if err != nil {
		return -1, err
	}
	if !m.Blocks[idx].IsSeating() {
		return -1, errors.New(errors.ErrCodeInvalidBlock, "block %q is not a seating block", id)
	}
	return idx, nil
}

// seat checks a seat index against a seating block.
func seat(b *chart.Block, index int) error {
	if index < 0 || index >= len(b.Seats) {
		return errors.New(errors.ErrCodeSeatNotFound, "block %q has no seat %d", b.ID, index)
	}
	return nil
}

// member returns the roster index of a member.
func member(m *chart.Model, id string) (int, error) {
	for i, r := range m.Roster {
		if r.ID == id {
			return i, nil
		}
	}
	return -1, errors.New(errors.ErrCodeMemberNotFound, "member %q not found", id)
}

// defaultSection is the section new members join: the first by order, or
// none when no sections exist.
func defaultSection(m *chart.Model) string {
	sections := m.SectionsByOrder()
	if len(sections) == 0 {
		return ""
	}
	return sections[0].ID
}

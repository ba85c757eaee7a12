package editor

import (
	"slices"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/drag"
	"github.com/matzehuels/choirstage/pkg/core/geom"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/errors"
)

// UpdateSettings replaces the stage settings.
func (e *Editor) UpdateSettings(m chart.Model, s chart.StageSettings) (chart.Model, bool, error) {
	if err := chart.ValidateSettings(s); err != nil {
		return m, false, err
	}
	if m.Settings == s {
		return m, false, nil
	}
	out := m.Clone()
	out.Settings = s
	return out, true, nil
}

// SetTitle sets the chart title.
func (e *Editor) SetTitle(m chart.Model, title string) (chart.Model, bool, error) {
	if err := errors.ValidateTitle(title); err != nil {
		return m, false, err
	}
	if m.Title == title {
		return m, false, nil
	}
	out := m.Clone()
	out.Title = title
	return out, true, nil
}

// SeatLegacy places a member at the end of a legacy stage row. A member
// already on stage moves to the new row.
func (e *Editor) SeatLegacy(m chart.Model, memberID string, row int) (chart.Model, bool, error) {
	if _, err := member(&m, memberID); err != nil {
		return m, false, err
	}
	if row < 0 || row >= max(m.Settings.NumberOfRows, 1) {
		return m, false, errors.New(errors.ErrCodeInvalidInput,
			"row %d out of range (stage has %d rows)", row, m.Settings.NumberOfRows)
	}

	seating := layout.NormalizeSeatingPositions(m.Seating)
	if i := slices.IndexFunc(seating, func(s chart.SeatedMember) bool { return s.RosterID == memberID }); i >= 0 {
		if seating[i].RowNumber == row {
			return m, false, nil
		}
		seating = slices.Delete(seating, i, i+1)
	}
	end := 0.0
	for _, s := range seating {
		if s.RowNumber == row {
			end = max(end, s.Position+1)
		}
	}
	seating = append(seating, chart.SeatedMember{RosterID: memberID, Position: end, RowNumber: row})

	out := m.Clone()
	out.Seating = layout.NormalizeSeatingPositions(seating)
	return out, true, nil
}

// UnseatLegacy takes a member off the legacy stage.
func (e *Editor) UnseatLegacy(m chart.Model, memberID string) (chart.Model, bool, error) {
	i := slices.IndexFunc(m.Seating, func(s chart.SeatedMember) bool { return s.RosterID == memberID })
	if i < 0 {
		return m, false, nil
	}
	out := m.Clone()
	out.Seating = layout.NormalizeSeatingPositions(slices.Delete(out.Seating, i, i+1))
	return out, true, nil
}

// PreviewRowDrag computes the preview for a legacy member dragged to a
// stage point. ok is false when the member is not on stage.
func (e *Editor) PreviewRowDrag(m chart.Model, memberID string, point geom.Point) (drag.RowPreview, bool) {
	return drag.PreviewRowDrop(m.Seating, m.Settings, e.stage(), memberID, point)
}

// CommitRowDrag commits the member list of a drag preview. Positions are
// normalized, which keeps the rendered order of the preview.
func (e *Editor) CommitRowDrag(m chart.Model, preview drag.RowPreview) (chart.Model, bool, error) {
	if len(preview.Members) != len(m.Seating) {
		return m, false, errors.New(errors.ErrCodeInvalidInput,
			"preview has %d members, stage has %d", len(preview.Members), len(m.Seating))
	}
	seen := make(map[string]bool, len(preview.Members))
	for _, s := range preview.Members {
		if seen[s.RosterID] {
			return m, false, errors.New(errors.ErrCodeInvalidInput, "member %q appears twice in preview", s.RosterID)
		}
		seen[s.RosterID] = true
		if !slices.ContainsFunc(m.Seating, func(c chart.SeatedMember) bool { return c.RosterID == s.RosterID }) {
			return m, false, errors.New(errors.ErrCodeMemberNotFound, "member %q is not on stage", s.RosterID)
		}
	}

	seating := layout.NormalizeSeatingPositions(preview.Members)
	if slices.Equal(seating, layout.NormalizeSeatingPositions(m.Seating)) {
		return m, false, nil
	}
	out := m.Clone()
	out.Seating = seating
	return out, true, nil
}

package editor

import (
	"strings"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/integrity"
	"github.com/matzehuels/choirstage/pkg/core/zorder"
	"github.com/matzehuels/choirstage/pkg/errors"
)

// sectionPalette supplies colors for sections added without one.
var sectionPalette = []string{
	"#e15759", "#f28e2b", "#4e79a7", "#59a14f",
	"#76b7b2", "#edc948", "#b07aa1", "#ff9da7",
	"#9c755f", "#bab0ac",
}

// =============================================================================
// Roster
// =============================================================================

// AddMember appends a roster member. An empty sectionID selects the first
// section by order.
func (e *Editor) AddMember(m chart.Model, name, sectionID string) (chart.Model, chart.RosterMember, error) {
	name = strings.TrimSpace(name)
	if err := errors.ValidateMemberName(name); err != nil {
		return m, chart.RosterMember{}, err
	}
	if sectionID == "" {
		sectionID = defaultSection(&m)
	} else if _, ok := m.Section(sectionID); !ok {
		return m, chart.RosterMember{}, errors.New(errors.ErrCodeSectionNotFound, "section %q not found", sectionID)
	}

	r := chart.RosterMember{ID: e.id(), Name: name, SectionID: sectionID}
	out := m.Clone()
	out.Roster = append(out.Roster, r)
	return out, r, nil
}

// RemoveMember deletes a member and clears every seat that references them.
func (e *Editor) RemoveMember(m chart.Model, id string) (chart.Model, bool, error) {
	out, err := integrity.RemoveMember(m, id)
	if err != nil {
		return m, false, err
	}
	return out, true, nil
}

// RenameMember changes a member's name.
func (e *Editor) RenameMember(m chart.Model, id, name string) (chart.Model, bool, error) {
	idx, err := member(&m, id)
	if err != nil {
		return m, false, err
	}
	name = strings.TrimSpace(name)
	if err := errors.ValidateMemberName(name); err != nil {
		return m, false, err
	}
	if m.Roster[idx].Name == name {
		return m, false, nil
	}
	out := m.Clone()
	out.Roster[idx].Name = name
	return out, true, nil
}

// SetMemberSection moves a member to another section.
func (e *Editor) SetMemberSection(m chart.Model, id, sectionID string) (chart.Model, bool, error) {
	idx, err := member(&m, id)
	if err != nil {
		return m, false, err
	}
	if _, ok := m.Section(sectionID); !ok {
		return m, false, errors.New(errors.ErrCodeSectionNotFound, "section %q not found", sectionID)
	}
	if m.Roster[idx].SectionID == sectionID {
		return m, false, nil
	}
	out := m.Clone()
	out.Roster[idx].SectionID = sectionID
	return out, true, nil
}

// ReassignOrphans moves every member of a missing section into sectionID.
func (e *Editor) ReassignOrphans(m chart.Model, sectionID string) (chart.Model, bool, error) {
	out, n, err := integrity.ReassignOrphans(m, sectionID)
	return out, n > 0, err
}

// DiscardDangling clears seats and legacy entries of missing members.
func (e *Editor) DiscardDangling(m chart.Model) (chart.Model, bool, error) {
	out, n := integrity.DiscardDangling(m)
	return out, n > 0, nil
}

// =============================================================================
// Sections
// =============================================================================

// AddSection appends a section after the last one. An empty color picks the
// next palette color.
func (e *Editor) AddSection(m chart.Model, name, color string) (chart.Model, chart.Section, error) {
	if color == "" {
		color = sectionPalette[len(m.Sections)%len(sectionPalette)]
	}
	s := chart.Section{
		ID:    e.id(),
		Name:  strings.TrimSpace(name),
		Color: color,
		Order: len(m.Sections),
	}
	if err := chart.ValidateSection(s, m.Sections); err != nil {
		return m, chart.Section{}, err
	}
	out := m.Clone()
	out.Sections = chart.NormalizeSectionOrder(append(out.Sections, s))
	return out, s, nil
}

// UpdateSection renames and recolors a section. Empty values keep the
// current name or color.
func (e *Editor) UpdateSection(m chart.Model, id, name, color string) (chart.Model, bool, error) {
	current, ok := m.Section(id)
	if !ok {
		return m, false, errors.New(errors.ErrCodeSectionNotFound, "section %q not found", id)
	}
	next := current
	if name = strings.TrimSpace(name); name != "" {
		next.Name = name
	}
	if color != "" {
		next.Color = color
	}
	if next == current {
		return m, false, nil
	}
	if err := chart.ValidateSection(next, m.Sections); err != nil {
		return m, false, err
	}
	out := m.Clone()
	for i := range out.Sections {
		if out.Sections[i].ID == id {
			out.Sections[i] = next
		}
	}
	return out, true, nil
}

// DeleteSection removes a section. Deleting a section that still has
// members fails with *errors.SectionInUseError unless opts.Confirm is set,
// in which case members move to opts.Fallback or the first remaining
// section.
func (e *Editor) DeleteSection(m chart.Model, id string, opts integrity.DeleteSectionOptions) (chart.Model, bool, error) {
	out, err := integrity.DeleteSection(m, id, opts)
	if err != nil {
		return m, false, err
	}
	return out, true, nil
}

// MoveSection swaps a section with its neighbor in display order.
func (e *Editor) MoveSection(m chart.Model, id string, dir zorder.Direction) (chart.Model, bool, error) {
	sections := chart.NormalizeSectionOrder(m.Sections)
	pos := -1
	for i, s := range sections {
		if s.ID == id {
			pos = i
		}
	}
	if pos < 0 {
		return m, false, errors.New(errors.ErrCodeSectionNotFound, "section %q not found", id)
	}
	other := pos + 1
	if dir == zorder.Backward {
		other = pos - 1
	}
	if other < 0 || other >= len(sections) {
		return m, false, nil
	}
	sections[pos].Order, sections[other].Order = sections[other].Order, sections[pos].Order
	out := m.Clone()
	out.Sections = chart.NormalizeSectionOrder(sections)
	return out, true, nil
}

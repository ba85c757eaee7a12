// Package integrity keeps seating references consistent with the roster and
// the roster consistent with the section configuration.
//
// Dangling references are never reported as errors. [Sweep] collects them in
// a [Report] that the host surfaces for user resolution, and the two
// resolution actions are [ReassignOrphans] and [DiscardDangling]. Mutations
// that would create dangling references ([RemoveMember], [DeleteSection])
// clean up in the same operation.
package integrity

import (
	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/errors"
)

// SeatRef identifies a seat that references a missing member.
type SeatRef struct {
	BlockID  string `json:"blockId"`
	SeatID   string `json:"seatId"`
	Index    int    `json:"index"`
	MemberID string `json:"memberId"`
}

// Report lists every dangling reference in a model.
type Report struct {
	// OrphanedMembers are roster members whose section no longer exists.
	OrphanedMembers []chart.RosterMember `json:"orphanedMembers,omitempty"`
	// DanglingSeats are block seats assigned to a missing member.
	DanglingSeats []SeatRef `json:"danglingSeats,omitempty"`
	// DanglingSeating are legacy seating entries for a missing member.
	DanglingSeating []chart.SeatedMember `json:"danglingSeating,omitempty"`
}

// Clean reports whether the model has no dangling references.
func (r Report) Clean() bool {
	return len(r.OrphanedMembers) == 0 && len(r.DanglingSeats) == 0 && len(r.DanglingSeating) == 0
}

// Count returns the total number of findings.
func (r Report) Count() int {
	return len(r.OrphanedMembers) + len(r.DanglingSeats) + len(r.DanglingSeating)
}

func memberSet(m chart.Model) map[string]bool {
	ids := make(map[string]bool, len(m.Roster))
	for _, r := range m.Roster {
		ids[r.ID] = true
	}
	return ids
}

// Sweep finds orphaned members and dangling seating references.
func Sweep(m chart.Model) Report {
	var report Report

	sections := make(map[string]bool, len(m.Sections))
	for _, s := range m.Sections {
		sections[s.ID] = true
	}
	for _, r := range m.Roster {
		if !sections[r.SectionID] {
			report.OrphanedMembers = append(report.OrphanedMembers, r)
		}
	}

	members := memberSet(m)
	for _, b := range m.Blocks {
		for i, seat := range b.Seats {
			if seat.MemberID != "" && !members[seat.MemberID] {
				report.DanglingSeats = append(report.DanglingSeats, SeatRef{
					BlockID: b.ID, SeatID: seat.ID, Index: i, MemberID: seat.MemberID,
				})
			}
		}
	}
	for _, s := range m.Seating {
		if !members[s.RosterID] {
			report.DanglingSeating = append(report.DanglingSeating, s)
		}
	}
	return report
}

// clearMember empties every seat and removes every legacy entry that
// matches drop. Legacy positions are renormalized when entries are removed.
func clearMember(m *chart.Model, drop func(id string) bool) int {
	n := 0
	for bi := range m.Blocks {
		for si := range m.Blocks[bi].Seats {
			if id := m.Blocks[bi].Seats[si].MemberID; id != "" && drop(id) {
				m.Blocks[bi].Seats[si].MemberID = ""
				n++
			}
		}
	}
	kept := m.Seating[:0]
	for _, s := range m.Seating {
		if drop(s.RosterID) {
			n++
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) != len(m.Seating) {
		m.Seating = layout.NormalizeSeatingPositions(kept)
	}
	return n
}

// RemoveMember deletes a roster member and every seat assignment or legacy
// seating entry that references it.
func RemoveMember(m chart.Model, id string) (chart.Model, error) {
	out := m.Clone()
	idx := -1
	for i, r := range out.Roster {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return m, errors.New(errors.ErrCodeMemberNotFound, "member %q not found", id)
	}
	out.Roster = append(out.Roster[:idx], out.Roster[idx+1:]...)
	clearMember(&out, func(ref string) bool { return ref == id })
	return out, nil
}

// DeleteSectionOptions controls [DeleteSection].
type DeleteSectionOptions struct {
	// Confirm allows deleting a section that still has members.
	Confirm bool
	// Fallback receives the section's members. Empty selects the first
	// remaining section by order.
	Fallback string
}

// DeleteSection removes a section. Without confirmation it refuses to
// delete a section that still has members and returns a
// *errors.SectionInUseError with the member count. With confirmation the
// members move to the fallback section, or to no section when none remain.
// Remaining section orders are renumbered densely.
func DeleteSection(m chart.Model, id string, opts DeleteSectionOptions) (chart.Model, error) {
	section, ok := m.Section(id)
	if !ok {
		return m, errors.New(errors.ErrCodeSectionNotFound, "section %q not found", id)
	}

	affected := 0
	for _, r := range m.Roster {
		if r.SectionID == id {
			affected++
		}
	}
	if affected > 0 && !opts.Confirm {
		return m, &errors.SectionInUseError{SectionID: id, SectionName: section.Name, Members: affected}
	}

	out := m.Clone()
	remaining := out.Sections[:0]
	for _, s := range out.Sections {
		if s.ID != id {
			remaining = append(remaining, s)
		}
	}
	out.Sections = chart.NormalizeSectionOrder(remaining)

	fallback := opts.Fallback
	if fallback == id {
		return m, errors.New(errors.ErrCodeInvalidSection, "fallback section cannot be the deleted section")
	}
	if fallback != "" {
		if _, ok := out.Section(fallback); !ok {
			return m, errors.New(errors.ErrCodeSectionNotFound, "fallback section %q not found", fallback)
		}
	} else if len(out.Sections) > 0 {
		fallback = out.Sections[0].ID
	}

	for i := range out.Roster {
		if out.Roster[i].SectionID == id {
			out.Roster[i].SectionID = fallback
		}
	}
	return out, nil
}

// ReassignOrphans moves every orphaned member into sectionID and returns the
// number of members moved.
func ReassignOrphans(m chart.Model, sectionID string) (chart.Model, int, error) {
	if _, ok := m.Section(sectionID); !ok {
		return m, 0, errors.New(errors.ErrCodeSectionNotFound, "section %q not found", sectionID)
	}
	orphans := Sweep(m).OrphanedMembers
	if len(orphans) == 0 {
		return m, 0, nil
	}
	ids := make(map[string]bool, len(orphans))
	for _, r := range orphans {
		ids[r.ID] = true
	}
	out := m.Clone()
	for i := range out.Roster {
		if ids[out.Roster[i].ID] {
			out.Roster[i].SectionID = sectionID
		}
	}
	return out, len(orphans), nil
}

// DiscardDangling clears every seat and removes every legacy entry that
// references a missing member. It returns the number of references removed.
func DiscardDangling(m chart.Model) (chart.Model, int) {
	out := m.Clone()
	members := memberSet(out)
	n := clearMember(&out, func(id string) bool { return !members[id] })
	if n == 0 {
		return m, 0
	}
	return out, n
}

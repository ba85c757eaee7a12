package integrity

import (
	stderrors "errors"
	"testing"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/errors"
)

func model() chart.Model {
	m := chart.New("Integrity")
	m.Roster = []chart.RosterMember{
		{ID: "m1", Name: "Alice", SectionID: "soprano"},
		{ID: "m2", Name: "Bob", SectionID: "bass"},
		{ID: "m3", Name: "Cleo", SectionID: "bass"},
	}
	m.Blocks = []chart.Block{{
		ID: "b1", Kind: chart.KindSeating, Layout: chart.LayoutGrid, Rows: 1, Columns: 3,
		Seats: []chart.Seat{{ID: "s1", MemberID: "m1"}, {ID: "s2", MemberID: "m2"}, {ID: "s3"}},
	}}
	m.Seating = []chart.SeatedMember{
		{RosterID: "m1", Position: 0},
		{RosterID: "m2", Position: 1},
		{RosterID: "m3", Position: 2},
	}
	return m
}

func TestSweepClean(t *testing.T) {
	if r := Sweep(model()); !r.Clean() {
		t.Errorf("Sweep() = %+v, want clean", r)
	}
}

func TestSweep(t *testing.T) {
	m := model()
	m.Roster[0].SectionID = "gone"
	m.Roster = m.Roster[:2] // drop m3
	m.Blocks[0].Seats[2].MemberID = "ghost"

	r := Sweep(m)
	if len(r.OrphanedMembers) != 1 || r.OrphanedMembers[0].ID != "m1" {
		t.Errorf("OrphanedMembers = %+v, want m1", r.OrphanedMembers)
	}
	if len(r.DanglingSeats) != 1 || r.DanglingSeats[0] != (SeatRef{BlockID: "b1", SeatID: "s3", Index: 2, MemberID: "ghost"}) {
		t.Errorf("DanglingSeats = %+v, want s3 -> ghost", r.DanglingSeats)
	}
	if len(r.DanglingSeating) != 1 || r.DanglingSeating[0].RosterID != "m3" {
		t.Errorf("DanglingSeating = %+v, want m3", r.DanglingSeating)
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}
}

func TestRemoveMemberCascades(t *testing.T) {
	m := model()
	got, err := RemoveMember(m, "m1")
	if err != nil {
		t.Fatalf("RemoveMember() error: %v", err)
	}
	if _, ok := got.Member("m1"); ok {
		t.Error("member m1 still in roster")
	}
	if !got.Blocks[0].Seats[0].IsEmpty() {
		t.Errorf("seat s1 = %+v, want empty", got.Blocks[0].Seats[0])
	}
	if got.Blocks[0].Seats[1].MemberID != "m2" {
		t.Error("unrelated seat assignment was cleared")
	}
	if len(got.Seating) != 2 || got.Seating[0].RosterID != "m2" || got.Seating[0].Position != 0 {
		t.Errorf("Seating = %+v, want m2 at 0 then m3 at 1", got.Seating)
	}
	if !Sweep(got).Clean() {
		t.Errorf("Sweep() after RemoveMember = %+v, want clean", Sweep(got))
	}
	if m.Blocks[0].Seats[0].MemberID != "m1" || len(m.Roster) != 3 {
		t.Error("RemoveMember() modified its input")
	}
}

func TestRemoveMemberNotFound(t *testing.T) {
	_, err := RemoveMember(model(), "nobody")
	if !errors.Is(err, errors.ErrCodeMemberNotFound) {
		t.Errorf("RemoveMember(unknown) error = %v, want %s", err, errors.ErrCodeMemberNotFound)
	}
}

func TestDeleteSectionRequiresConfirmation(t *testing.T) {
	_, err := DeleteSection(model(), "bass", DeleteSectionOptions{})
	var inUse *errors.SectionInUseError
	if !stderrors.As(err, &inUse) {
		t.Fatalf("DeleteSection() error = %v, want SectionInUseError", err)
	}
	if inUse.Members != 2 || inUse.SectionName != "Bass" {
		t.Errorf("SectionInUseError = %+v, want 2 members of Bass", inUse)
	}
	if !errors.Is(err, errors.ErrCodeSectionInUse) {
		t.Error("errors.Is(err, ErrCodeSectionInUse) = false")
	}
}

func TestDeleteSection(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		opts     DeleteSectionOptions
		wantBass string
	}{
		{"empty section needs no confirmation", "tenor", DeleteSectionOptions{}, "bass"},
		{"confirmed to first remaining", "bass", DeleteSectionOptions{Confirm: true}, "soprano"},
		{"confirmed to fallback", "bass", DeleteSectionOptions{Confirm: true, Fallback: "tenor"}, "tenor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeleteSection(model(), tt.id, tt.opts)
			if err != nil {
				t.Fatalf("DeleteSection() error: %v", err)
			}
			if _, ok := got.Section(tt.id); ok {
				t.Errorf("section %s still present", tt.id)
			}
			if m2, _ := got.Member("m2"); m2.SectionID != tt.wantBass {
				t.Errorf("m2 section = %q, want %q", m2.SectionID, tt.wantBass)
			}
			for i, s := range got.Sections {
				if s.Order != i {
					t.Errorf("section %s order = %d, want %d", s.ID, s.Order, i)
				}
			}
			if r := Sweep(got); len(r.OrphanedMembers) != 0 {
				t.Errorf("orphans after delete = %+v", r.OrphanedMembers)
			}
		})
	}
}

func TestDeleteLastSection(t *testing.T) {
	m := model()
	m.Sections = m.Sections[:1]
	m.Roster = m.Roster[:1]
	got, err := DeleteSection(m, "soprano", DeleteSectionOptions{Confirm: true})
	if err != nil {
		t.Fatalf("DeleteSection() error: %v", err)
	}
	if len(got.Sections) != 0 || got.Roster[0].SectionID != "" {
		t.Errorf("DeleteSection(last) = %+v, want member without section", got.Roster)
	}
}

func TestDeleteSectionErrors(t *testing.T) {
	tests := []struct {
		name string
		id   string
		opts DeleteSectionOptions
		code errors.Code
	}{
		{"unknown section", "baritone", DeleteSectionOptions{}, errors.ErrCodeSectionNotFound},
		{"unknown fallback", "bass", DeleteSectionOptions{Confirm: true, Fallback: "x"}, errors.ErrCodeSectionNotFound},
		{"fallback is self", "bass", DeleteSectionOptions{Confirm: true, Fallback: "bass"}, errors.ErrCodeInvalidSection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeleteSection(model(), tt.id, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("DeleteSection() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestReassignOrphans(t *testing.T) {
	m := model()
	m.Roster[1].SectionID = "gone"
	m.Roster[2].SectionID = "gone"

	got, n, err := ReassignOrphans(m, "tenor")
	if err != nil {
		t.Fatalf("ReassignOrphans() error: %v", err)
	}
	if n != 2 {
		t.Errorf("ReassignOrphans() moved %d, want 2", n)
	}
	if !Sweep(got).Clean() {
		t.Errorf("Sweep() = %+v, want clean", Sweep(got))
	}

	if _, _, err := ReassignOrphans(m, "gone"); !errors.IsNotFound(err) {
		t.Errorf("ReassignOrphans(unknown) error = %v, want not found", err)
	}
}

func TestDiscardDangling(t *testing.T) {
	m := model()
	m.Roster = m.Roster[:1] // only m1 remains

	got, n := DiscardDangling(m)
	if n != 3 {
		t.Errorf("DiscardDangling() removed %d, want 3", n)
	}
	if !Sweep(got).Clean() {
		t.Errorf("Sweep() = %+v, want clean", Sweep(got))
	}
	if got.Blocks[0].Seats[0].MemberID != "m1" || len(got.Seating) != 1 {
		t.Errorf("valid references were discarded: %+v", got)
	}

	if _, n := DiscardDangling(model()); n != 0 {
		t.Errorf("DiscardDangling(clean) = %d, want 0", n)
	}
}

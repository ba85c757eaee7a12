package editor

import (
	stderrors "errors"
	"testing"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/integrity"
	"github.com/matzehuels/choirstage/pkg/core/zorder"
	"github.com/matzehuels/choirstage/pkg/errors"
)

func TestAddMember(t *testing.T) {
	e := testEditor()
	m := chart.New("Roster")

	m, r, err := e.AddMember(m, "  Dana ", "")
	if err != nil {
		t.Fatalf("AddMember() error: %v", err)
	}
	if r.Name != "Dana" || r.SectionID != "soprano" || r.ID != "id-1" {
		t.Errorf("AddMember() = %+v, want trimmed Dana in soprano", r)
	}

	// Names need not be unique.
	m, _, err = e.AddMember(m, "Dana", "alto")
	if err != nil {
		t.Fatalf("AddMember(duplicate name) error: %v", err)
	}
	if len(m.Roster) != 2 {
		t.Errorf("len(Roster) = %d, want 2", len(m.Roster))
	}

	if _, _, err := e.AddMember(m, "", ""); !errors.IsValidation(err) {
		t.Errorf("AddMember(empty) error = %v, want validation", err)
	}
	if _, _, err := e.AddMember(m, "Eve", "baritone"); !errors.Is(err, errors.ErrCodeSectionNotFound) {
		t.Errorf("AddMember(unknown section) error = %v", err)
	}
}

func TestMemberCommands(t *testing.T) {
	e := testEditor()
	m, r, _ := e.AddMember(chart.New("x"), "Finn", "tenor")

	m = must(t)(e.RenameMember(m, r.ID, "Finnegan"))
	if got, _ := m.Member(r.ID); got.Name != "Finnegan" {
		t.Errorf("Name = %q, want Finnegan", got.Name)
	}
	if _, applied, _ := e.RenameMember(m, r.ID, "Finnegan"); applied {
		t.Error("RenameMember(same) applied = true")
	}

	m = must(t)(e.SetMemberSection(m, r.ID, "bass"))
	if got, _ := m.Member(r.ID); got.SectionID != "bass" {
		t.Errorf("SectionID = %q, want bass", got.SectionID)
	}
	if _, _, err := e.SetMemberSection(m, r.ID, "nope"); !errors.IsNotFound(err) {
		t.Errorf("SetMemberSection(unknown) error = %v", err)
	}
	if _, _, err := e.RenameMember(m, "ghost", "x"); !errors.Is(err, errors.ErrCodeMemberNotFound) {
		t.Errorf("RenameMember(unknown) error = %v", err)
	}
	if _, _, err := e.RemoveMember(m, "ghost"); !errors.IsNotFound(err) {
		t.Errorf("RemoveMember(unknown) error = %v", err)
	}
}

func TestSectionCommands(t *testing.T) {
	e := testEditor()
	m := chart.New("Sections")

	m, s, err := e.AddSection(m, "Baritone", "")
	if err != nil {
		t.Fatalf("AddSection() error: %v", err)
	}
	if s.Order != 4 || s.Color == "" {
		t.Errorf("AddSection() = %+v, want order 4 with a palette color", s)
	}

	tests := []struct {
		name, section, color string
	}{
		{"duplicate name", "soprano", "#000000"},
		{"bad characters", "Alto_2", "#000000"},
		{"bad color", "Mezzo", "red"},
		{"too long", "abcdefghijklmnopqrstuvwxyz01234", "#000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := e.AddSection(m, tt.section, tt.color); !errors.Is(err, errors.ErrCodeInvalidSection) {
				t.Errorf("AddSection(%q, %q) error = %v", tt.section, tt.color, err)
			}
		})
	}

	m = must(t)(e.UpdateSection(m, s.ID, "Bari-tone", "#123456"))
	if got, _ := m.Section(s.ID); got.Name != "Bari-tone" || got.Color != "#123456" {
		t.Errorf("UpdateSection() = %+v", got)
	}
	// Case-only rename of the same section is allowed.
	m = must(t)(e.UpdateSection(m, "alto", "ALTO", ""))
	if _, _, err := e.UpdateSection(m, "alto", "Tenor", ""); !errors.IsValidation(err) {
		t.Errorf("UpdateSection(duplicate) error = %v", err)
	}
	if _, applied, _ := e.UpdateSection(m, "alto", "", ""); applied {
		t.Error("UpdateSection(no changes) applied = true")
	}
}

func TestMoveSection(t *testing.T) {
	e := testEditor()
	m := chart.New("Order")

	got := must(t)(e.MoveSection(m, "soprano", zorder.Forward))
	order := got.SectionsByOrder()
	if order[0].ID != "alto" || order[1].ID != "soprano" {
		t.Errorf("order = %s, %s; want alto, soprano", order[0].ID, order[1].ID)
	}
	if _, applied, _ := e.MoveSection(m, "soprano", zorder.Backward); applied {
		t.Error("MoveSection(first, backward) applied = true")
	}
	if _, _, err := e.MoveSection(m, "nope", zorder.Forward); !errors.IsNotFound(err) {
		t.Errorf("MoveSection(unknown) error = %v", err)
	}
}

func TestDeleteSectionPolicy(t *testing.T) {
	e := testEditor()
	m, r, _ := e.AddMember(chart.New("Delete"), "Gus", "tenor")

	_, applied, err := e.DeleteSection(m, "tenor", integrity.DeleteSectionOptions{})
	var inUse *errors.SectionInUseError
	if applied || !stderrors.As(err, &inUse) || inUse.Members != 1 {
		t.Fatalf("DeleteSection(unconfirmed) = %v, %v; want SectionInUseError with 1 member", applied, err)
	}

	m = must(t)(e.DeleteSection(m, "tenor", integrity.DeleteSectionOptions{Confirm: true, Fallback: "bass"}))
	if got, _ := m.Member(r.ID); got.SectionID != "bass" {
		t.Errorf("member section = %q, want bass", got.SectionID)
	}
	if len(m.Sections) != 3 {
		t.Errorf("len(Sections) = %d, want 3", len(m.Sections))
	}
}

func TestOrphanResolution(t *testing.T) {
	e := testEditor()
	m, r, _ := e.AddMember(chart.New("Orphans"), "Hal", "tenor")
	m.Sections = m.Sections[:2] // tenor and bass vanish, as after a bad import
	m.Seating = []chart.SeatedMember{{RosterID: "ghost"}}

	m = must(t)(e.ReassignOrphans(m, "alto"))
	if got, _ := m.Member(r.ID); got.SectionID != "alto" {
		t.Errorf("member section = %q, want alto", got.SectionID)
	}
	m = must(t)(e.DiscardDangling(m))
	if !integrity.Sweep(m).Clean() {
		t.Errorf("Sweep() = %+v, want clean", integrity.Sweep(m))
	}
	if _, applied, _ := e.DiscardDangling(m); applied {
		t.Error("DiscardDangling(clean) applied = true")
	}
}

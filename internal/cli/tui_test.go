package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/choirstage/pkg/session"
)

func snapshotsForPicker() []session.Snapshot {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []session.Snapshot{
		{ID: "s3", Name: "final", CreatedAt: now.Add(-5 * time.Minute)},
		{ID: "s2", Name: "dress", CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "s1", CreatedAt: now.Add(-40 * 24 * time.Hour)},
	}
}

func press(m tea.Model, keys ...tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(k)
	}
	return m, cmd
}

func TestSnapshotListSelect(t *testing.T) {
	down := tea.KeyMsg{Type: tea.KeyDown}
	up := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	enter := tea.KeyMsg{Type: tea.KeyEnter}

	m, cmd := press(NewSnapshotListModel(snapshotsForPicker()), down, down, down, up, enter)
	got := m.(SnapshotListModel)
	if got.Selected == nil || got.Selected.ID != "s2" {
		t.Fatalf("Selected = %+v, want s2", got.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
}

func TestSnapshotListQuit(t *testing.T) {
	m, cmd := press(NewSnapshotListModel(snapshotsForPicker()), tea.KeyMsg{Type: tea.KeyEsc})
	if m.(SnapshotListModel).Selected != nil {
		t.Error("esc should not select")
	}
	if cmd == nil {
		t.Error("esc should quit")
	}
}

func TestSnapshotListScroll(t *testing.T) {
	m := NewSnapshotListModel(snapshotsForPicker())
	m.Height = 1

	next, _ := press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	got := next.(SnapshotListModel)
	if got.Cursor != 2 || got.Offset != 2 {
		t.Errorf("Cursor, Offset = %d, %d, want 2, 2", got.Cursor, got.Offset)
	}

	resized, _ := got.Update(tea.WindowSizeMsg{Width: 80, Height: 4})
	if h := resized.(SnapshotListModel).Height; h != 5 {
		t.Errorf("Height = %d, want minimum 5", h)
	}
}

func TestSnapshotListView(t *testing.T) {
	m := NewSnapshotListModel(snapshotsForPicker())
	m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	view := m.View()
	for _, want := range []string{"Restore Snapshot", "final", "5m ago", "3h ago", "Jan 20, 2026", "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{30 * time.Minute, "30m ago"},
		{5 * time.Hour, "5h ago"},
		{3 * 24 * time.Hour, "3d ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

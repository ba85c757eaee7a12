package session

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	svc := NewService(NewMemoryStore(), log.New(&buf))
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, &buf
}

func TestServiceCreateLoad(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, " Spring ", chart.New("Spring"))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if sess.Name != "Spring" || errors.ValidateSessionCode(sess.Code) != nil {
		t.Errorf("Create() = %+v, want trimmed name and valid code", sess)
	}

	res, err := svc.Load(ctx, sess.Code)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !res.Report.Clean() || res.Session.Model.Title != "Spring" {
		t.Errorf("Load() = %+v", res)
	}

	if _, err := svc.Load(ctx, "ZZZZZZZZ"); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
	if _, err := svc.Load(ctx, "bad code!"); !errors.Is(err, errors.ErrCodeInvalidCode) {
		t.Errorf("Load(invalid) error = %v", err)
	}
}

func TestServiceLoadReportsOrphans(t *testing.T) {
	svc, logs := newTestService(t)
	ctx := context.Background()

	m := chart.New("Orphans")
	m.Roster = []chart.RosterMember{{ID: "m1", Name: "Ann", SectionID: "gone"}}
	m.Seating = []chart.SeatedMember{{RosterID: "m1"}, {RosterID: "ghost"}}
	// Bypass Save validation the way an old export would.
	sess := &Session{Code: "ORPHANED", Name: "x", Model: m}
	if err := svc.Store().PutSession(ctx, sess); err != nil {
		t.Fatalf("PutSession() error: %v", err)
	}

	res, err := svc.Load(ctx, "ORPHANED")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(res.Report.OrphanedMembers) != 1 || len(res.Report.DanglingSeating) != 1 {
		t.Errorf("Report = %+v, want one orphan and one dangling entry", res.Report)
	}
	if len(res.Session.Model.Seating) != 2 {
		t.Errorf("Load() dropped seating entries: %+v", res.Session.Model.Seating)
	}
	if !strings.Contains(logs.String(), "dangling references") {
		t.Errorf("expected a warning, logs: %s", logs.String())
	}
}

func TestServiceLoadSchemaMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m := chart.New("Old")
	m.SchemaVersion = 1
	svc.Store().PutSession(ctx, &Session{Code: "OLDSCHEMA", Model: m})

	if _, err := svc.Load(ctx, "OLDSCHEMA"); !errors.Is(err, errors.ErrCodeSchemaMismatch) {
		t.Errorf("Load() error = %v, want schema mismatch", err)
	}
}

func TestServiceSaveNormalizes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx, "Norm", chart.New("Norm"))

	m := chart.New("Norm")
	m.Roster = []chart.RosterMember{{ID: "a", Name: "A", SectionID: "alto"}, {ID: "b", Name: "B", SectionID: "alto"}}
	m.Seating = []chart.SeatedMember{{RosterID: "a", Position: 4.5}, {RosterID: "b", Position: -1}}
	m.Blocks = []chart.Block{{ID: "d", Kind: chart.KindDecoration, Decoration: chart.DecorationGap, ZIndex: 7}}

	saved, err := svc.Save(ctx, sess.Code, m)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if saved.Model.Seating[0].RosterID != "b" || saved.Model.Seating[1].Position != 1 {
		t.Errorf("Seating = %+v, want normalized", saved.Model.Seating)
	}
	if saved.Model.Blocks[0].ZIndex != 0 {
		t.Errorf("ZIndex = %d, want 0", saved.Model.Blocks[0].ZIndex)
	}
	if !saved.UpdatedAt.After(saved.CreatedAt) {
		t.Errorf("UpdatedAt = %v, want after CreatedAt %v", saved.UpdatedAt, saved.CreatedAt)
	}
	if m.Seating[0].Position != 4.5 {
		t.Error("Save() modified its input")
	}

	bad := chart.New("Bad")
	bad.Settings.NumberOfRows = 0
	if _, err := svc.Save(ctx, sess.Code, bad); !errors.IsValidation(err) {
		t.Errorf("Save(invalid) error = %v, want validation", err)
	}
	if _, err := svc.Save(ctx, "NOSUCHCODE", m); !errors.IsNotFound(err) {
		t.Errorf("Save(missing) error = %v, want not found", err)
	}
}

func TestServiceSnapshots(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx, "Snaps", chart.New("Before"))

	first, err := svc.Snapshot(ctx, sess.Code, "before")
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if _, err := svc.Save(ctx, sess.Code, chart.New("After")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	second, _ := svc.Snapshot(ctx, sess.Code, "")
	if second.Name == "" {
		t.Error("unnamed snapshot got no default name")
	}

	list, err := svc.Snapshots(ctx, sess.Code)
	if err != nil {
		t.Fatalf("Snapshots() error: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Errorf("Snapshots() = %d items, first %s; want newest first", len(list), list[0].ID)
	}

	res, err := svc.Restore(ctx, sess.Code, first.ID)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if res.Session.Model.Title != "Before" {
		t.Errorf("Restore() title = %q, want Before", res.Session.Model.Title)
	}
	loaded, _ := svc.Load(ctx, sess.Code)
	if loaded.Session.Model.Title != "Before" {
		t.Errorf("Load() after Restore() title = %q", loaded.Session.Model.Title)
	}

	if _, err := svc.Restore(ctx, sess.Code, "missing"); !errors.Is(err, errors.ErrCodeSnapshotNotFound) {
		t.Errorf("Restore(missing) error = %v", err)
	}
	if err := svc.DeleteSnapshot(ctx, sess.Code, first.ID); err != nil {
		t.Errorf("DeleteSnapshot() error: %v", err)
	}
	if err := svc.Delete(ctx, sess.Code); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
}

func TestServiceSnapshotSoftLimit(t *testing.T) {
	svc, logs := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.Create(ctx, "Many", chart.New("Many"))

	for i := 0; i <= SoftSnapshotLimit; i++ {
		if _, err := svc.Snapshot(ctx, sess.Code, ""); err != nil {
			t.Fatalf("Snapshot(%d) error: %v", i, err)
		}
	}
	list, _ := svc.Snapshots(ctx, sess.Code)
	if len(list) != SoftSnapshotLimit+1 {
		t.Errorf("len(Snapshots()) = %d, want %d", len(list), SoftSnapshotLimit+1)
	}
	if !strings.Contains(logs.String(), "snapshot limit exceeded") {
		t.Error("expected a soft limit warning")
	}
}

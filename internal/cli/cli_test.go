package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/layout"
)

type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`
[store]
backend = "file"
dir = %q

[cache]
backend = "file"
dir = %q
`, filepath.Join(dir, "sessions"), filepath.Join(dir, "cache"))
	if err := os.WriteFile(config, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return testEnv{dir: dir, config: config}
}

func (e testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), &stdout, &stderr, append([]string{"--config", e.config}, args...))
	return stdout.String(), stderr.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, err, stderr)
	}
	return stdout
}

func (e testEnv) writeChart(t *testing.T, name string, m chart.Model) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := chart.WriteFile(m, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func legacyChart() chart.Model {
	m := chart.New("Spring Concert")
	m.Roster = []chart.RosterMember{
		{ID: "ann", Name: "Ann", SectionID: "soprano"},
		{ID: "bob", Name: "Bob", SectionID: "bass"},
		{ID: "cid", Name: "Cid", SectionID: "tenor"},
	}
	m.Seating = []chart.SeatedMember{
		{RosterID: "ann", RowNumber: 0, Position: 5},
		{RosterID: "bob", RowNumber: 1, Position: 0.5},
		{RosterID: "cid", RowNumber: 0, Position: 2},
	}
	return m
}

func extract(t *testing.T, out, key string) string {
	t.Helper()
	m := regexp.MustCompile(key + `\s+(\S+)`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no %s in output:\n%s", key, out)
	}
	return m[1]
}

func TestCheck(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "check", env.writeChart(t, "ok.json", legacyChart()))
	if !strings.Contains(out, "Chart is valid (legacy, 3 singers)") {
		t.Errorf("check output = %q", out)
	}

	bad := legacyChart()
	bad.Roster[1].SectionID = "baritone"
	out, _, err := env.run(t, "check", env.writeChart(t, "bad.json", bad))
	if err == nil {
		t.Fatal("check of chart with orphans should fail")
	}
	if !strings.Contains(out, "1 dangling references") || !strings.Contains(out, `section "baritone" not found`) {
		t.Errorf("check output = %q", out)
	}
}

func TestCheckInvalid(t *testing.T) {
	env := newTestEnv(t)
	m := legacyChart()
	m.Settings.NumberOfRows = 0

	if _, _, err := env.run(t, "check", env.writeChart(t, "bad.json", m)); err == nil {
		t.Error("check of invalid settings should fail")
	}
}

func TestNormalize(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeChart(t, "in.json", legacyChart())
	out := filepath.Join(env.dir, "out.json")

	env.mustRun(t, "normalize", in, "-o", out)

	m, err := chart.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !layout.IsNormalized(m.Seating) {
		t.Errorf("seating not normalized: %+v", m.Seating)
	}
	if m.Seating[0].RosterID != "cid" || m.Seating[1].RosterID != "ann" {
		t.Errorf("row 0 order = %s, %s, want cid, ann", m.Seating[0].RosterID, m.Seating[1].RosterID)
	}

	if _, _, err := env.run(t, "normalize", in, "-i", "-o", out); err == nil {
		t.Error("--in-place with --output should fail")
	}
}

func TestLayout(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeChart(t, "in.json", legacyChart())

	var got layoutOutput
	if err := json.Unmarshal([]byte(env.mustRun(t, "layout", in)), &got); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if got.Generation != chart.GenerationLegacy {
		t.Errorf("generation = %q", got.Generation)
	}
	if n := countKind(got.Placements, layout.PlacementMember); n != 3 {
		t.Errorf("member placements = %d, want 3", n)
	}
	if countKind(got.Placements, layout.PlacementPiano) != 1 {
		t.Error("missing piano placement")
	}

	out := filepath.Join(env.dir, "placements.json")
	_, stderr, err := env.run(t, "layout", in, "-o", out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "3 singers") || !strings.Contains(stderr, iconCached) {
		t.Errorf("second layout should report a cache hit, stderr = %q", stderr)
	}

	cleared := env.mustRun(t, "cache", "clear")
	if !strings.Contains(cleared, "Cleared 1 cached layouts") {
		t.Errorf("cache clear = %q", cleared)
	}
}

func TestView(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "view", env.writeChart(t, "in.json", legacyChart()))

	for _, want := range []string{"Spring Concert", "Soprano", "Ann", "Bob", "piano left"} {
		if !strings.Contains(out, want) {
			t.Errorf("view output missing %q:\n%s", want, out)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeChart(t, "in.json", legacyChart())

	code := extract(t, env.mustRun(t, "session", "create", "Spring", "--from", in), "Code")

	show := env.mustRun(t, "session", "show", code)
	if !strings.Contains(show, "Spring") || !strings.Contains(show, "Cid") {
		t.Errorf("session show = %q", show)
	}

	env.mustRun(t, "session", "rename", code, "Autumn")
	exported := filepath.Join(env.dir, "export.json")
	env.mustRun(t, "session", "export", code, "-o", exported)
	if m, err := chart.ReadFile(exported); err != nil || len(m.Roster) != 3 {
		t.Errorf("export = %+v, %v", m, err)
	}

	env.mustRun(t, "session", "delete", code)
	if _, _, err := env.run(t, "session", "show", code); err == nil {
		t.Error("show after delete should fail")
	}
}

func TestSessionResolve(t *testing.T) {
	env := newTestEnv(t)
	m := legacyChart()
	m.Roster[1].SectionID = "baritone"

	out := env.mustRun(t, "session", "create", "Orphans", "--from", env.writeChart(t, "in.json", m))
	if !strings.Contains(out, "1 dangling references") {
		t.Errorf("create should report orphans, got %q", out)
	}
	code := extract(t, out, "Code")

	if _, _, err := env.run(t, "session", "resolve", code); err == nil {
		t.Error("resolve without flags should fail")
	}
	out = env.mustRun(t, "session", "resolve", code, "--reassign", "bass")
	if !strings.Contains(out, "Reassigned 1 singers to bass") || !strings.Contains(out, "Session is clean") {
		t.Errorf("resolve = %q", out)
	}
}

func TestSnapshots(t *testing.T) {
	env := newTestEnv(t)
	code := extract(t, env.mustRun(t, "session", "create", "Spring"), "Code")

	if out := env.mustRun(t, "snapshot", "list", code); !strings.Contains(out, "No snapshots") {
		t.Errorf("empty list = %q", out)
	}

	id := extract(t, env.mustRun(t, "snapshot", "create", code, "dress rehearsal"), "ID")
	if out := env.mustRun(t, "snapshot", "list", code); !strings.Contains(out, id) || !strings.Contains(out, "dress rehearsal") {
		t.Errorf("list = %q", out)
	}

	if out := env.mustRun(t, "snapshot", "restore", code, id); !strings.Contains(out, "Restored snapshot") {
		t.Errorf("restore = %q", out)
	}
	if _, _, err := env.run(t, "snapshot", "restore", code, "missing"); err == nil {
		t.Error("restore of unknown snapshot should fail")
	}

	env.mustRun(t, "snapshot", "delete", code, id)
	if out := env.mustRun(t, "snapshot", "list", code); !strings.Contains(out, "No snapshots") {
		t.Errorf("list after delete = %q", out)
	}
}

func TestCachePath(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "cache", "path")
	if strings.TrimSpace(out) != filepath.Join(env.dir, "cache") {
		t.Errorf("cache path = %q", out)
	}
}

func TestCompletion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "completion", "bash")
	if !strings.Contains(out, "choirstage") {
		t.Error("bash completion should mention the command name")
	}
	if _, _, err := env.run(t, "completion", "tcsh"); err == nil {
		t.Error("unsupported shell should fail")
	}
}

func TestMissingConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), &stdout, &stderr, []string{"--config", filepath.Join(t.TempDir(), "nope.toml"), "cache", "path"})
	if err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestLevelFromConfig(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"warn", "warn"},
		{"", "info"},
		{"loud", "info"},
	}
	for _, tt := range tests {
		if got := levelFromConfig(tt.in).String(); got != tt.want {
			t.Errorf("levelFromConfig(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

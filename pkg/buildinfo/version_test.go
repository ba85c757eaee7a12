package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	saved := Version
	Version = "v9.9.9"
	defer func() { Version = saved }()

	if got := String(); !strings.HasPrefix(got, "version: v9.9.9\n") {
		t.Errorf("String() = %q", got)
	}
	if got := Get(); got.Version != "v9.9.9" || got.Commit != Commit {
		t.Errorf("Get() = %+v", got)
	}
	if !strings.Contains(Template(), "{{.Name}} version v9.9.9") {
		t.Errorf("Template() = %q", Template())
	}
}

package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	v, c, d, dirty := Version, Commit, Date, Dirty
	t.Cleanup(func() { Version, Commit, Date, Dirty = v, c, d, dirty })
	Version, Commit, Date, Dirty = version, commit, date, false
}

func TestFillFromBuildInfo(t *testing.T) {
	stamp(t, "dev", unset, unset)
	fill(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "3f2a9c1b0d4e5f60718293a4b5c6d7e8f9012345"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})
	if Version != "v0.3.0" || Date != "2026-01-02T03:04:05Z" || !Dirty {
		t.Errorf("fill: version=%s date=%s dirty=%v", Version, Date, Dirty)
	}
	if ShortCommit() != "3f2a9c1b0d4e" {
		t.Errorf("ShortCommit() = %s", ShortCommit())
	}
}

func TestLinkerStampWins(t *testing.T) {
	stamp(t, "v1.0.0", "abc", "today")
	fill(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "zzz"}},
	})
	if Version != "v1.0.0" || Commit != "abc" || Date != "today" {
		t.Errorf("ldflags values overwritten: %s %s %s", Version, Commit, Date)
	}
}

func TestTemplate(t *testing.T) {
	stamp(t, "v1.0.0", "abc", "today")
	got := Template()
	if !strings.HasPrefix(got, "{{.Name}} v1.0.0 (abc) built today go") {
		t.Errorf("Template() = %q", got)
	}
	Dirty = true
	if !strings.Contains(Template(), "(abc, dirty)") {
		t.Errorf("dirty template = %q", Template())
	}
}

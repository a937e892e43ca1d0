// Package buildinfo reports which build of particula is running.
//
// Release builds stamp the variables with -ldflags "-X ...". Other builds
// fall back to the module version and VCS metadata the toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const unset = "unknown"

// Stamped at link time.
var (
	Version = "dev"
	Commit  = unset
	Date    = unset
)

// Dirty reports whether the embedded VCS stamp saw uncommitted changes.
var Dirty bool

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fill(info)
	}
}

func fill(info *debug.BuildInfo) {
	if v := info.Main.Version; Version == "dev" && v != "" && v != "(devel)" {
		Version = v
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == unset:
			Commit = s.Value
		case s.Key == "vcs.time" && Date == unset:
			Date = s.Value
		case s.Key == "vcs.modified":
			Dirty = s.Value == "true"
		}
	}
}

// ShortCommit is the first 12 characters of Commit.
func ShortCommit() string {
	if len(Commit) > 12 {
		return Commit[:12]
	}
	return Commit
}

// Template is the cobra version template, e.g.
//
//	particula dev (3f2a9c1b0d4e, dirty) built 2026-01-02T03:04:05Z go1.24.1
func Template() string {
	var b strings.Builder
	fmt.Fprintf(&b, "{{.Name}} %s (%s", Version, ShortCommit())
	if Dirty {
		b.WriteString(", dirty")
	}
	fmt.Fprintf(&b, ") built %s %s\n", Date, runtime.Version())
	return b.String()
}

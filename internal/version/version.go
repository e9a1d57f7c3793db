// Package version holds build metadata injected with -ldflags.
package version

import (
	"runtime"
	"runtime/debug"
)

var (
	// Version is the semantic version of the build.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = ""
	// BuildDate is the UTC build timestamp.
	BuildDate = ""
)

// Build describes the running binary.
type Build struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
}

// Current returns the ldflags metadata. When the binary was built with
// `go install` instead, the module version and VCS stamp fill the gaps.
func Current() Build {
	b := Build{Version: Version, Commit: Commit, BuildDate: BuildDate, GoVersion: runtime.Version()}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.BuildDate == "" {
				b.BuildDate = s.Value
			}
		}
	}
	return b
}

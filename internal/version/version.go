// Package version reports build information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/pthm/vantage/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func init() {
	fromBuildInfo(debug.ReadBuildInfo)
}

// fromBuildInfo fills values ldflags left unset from the module build info
// recorded by "go install github.com/pthm/vantage/cmd/vantage@version".
func fromBuildInfo(read func() (*debug.BuildInfo, bool)) {
	if Version != "dev" {
		return
	}
	info, ok := read()
	if !ok {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			Commit = s.Value[:min(7, len(s.Value))]
		case "vcs.time":
			Date = s.Value
		}
	}
}

// Info returns formatted version information.
func Info() string {
	return fmt.Sprintf("vantage %s (commit: %s, built: %s) %s",
		Version, Commit, Date, runtime.Version())
}

// Short returns just the version string.
func Short() string {
	return Version
}

// Package version reports which build of remedy is running.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via -ldflags "-X". Left unset, the values embedded by
// the Go toolchain are used instead.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// String returns "remedy <version> (commit: <short>, built: <time>)".
func String() string {
	commit, built := Commit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" {
					commit = s.Value
				}
			case "vcs.time":
				if built == "" {
					built = s.Value
				}
			}
		}
	}
	return format(Version, commit, built)
}

func format(version, commit, built string) string {
	if commit == "" {
		commit = "unknown"
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("remedy %s (commit: %s, built: %s)", version, commit, built)
}

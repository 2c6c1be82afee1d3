// Package version reports build information for pstart.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   string // Set via ldflags.
	Branch    string
	BuildUser string
	BuildDate string

	Revision  = getRevision(readBuildSettings())
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// GetVersion returns the release version, or the VCS revision for
// development builds.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision
}

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("%s (revision %s, %s %s/%s)", GetVersion(), Revision, GoVersion, GoOS, GoArch)
}

func readBuildSettings() []debug.BuildSetting {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	return buildInfo.Settings
}

func getRevision(settings []debug.BuildSetting) string {
	rev := "unknown"
	modified := false

	for _, v := range settings {
		switch v.Key {
		case "vcs.revision":
			rev = v.Value[:min(len(v.Value), 7)]

		case "vcs.modified":
			modified = v.Value == "true"
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}

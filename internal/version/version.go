// Package version reports build metadata for the navien binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/navien/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/navien/internal/version.Commit=abc123"
//
// When unset they are filled from the VCS stamp in the build info, or
// fall back to "dev".
var (
	Version = ""
	Commit  = ""
)

// Info is the build metadata in printable form
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var buildTime string

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo()
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if rev := settings["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
		buildTime = t.UTC().Format(time.RFC3339)
		if Version == "" {
			Version = "dev-" + t.Format("20060102")
		}
	}

	// Module version is set for `go install module@version` builds
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}

// Get returns the build metadata
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Full returns the version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent identifies the CLI in bridge advertisements, e.g. "navien/v1.2.0"
func UserAgent() string {
	return "navien/" + Version
}

// Package version reports build metadata for the CLI banner, the MCP
// handshake and the ops health check.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the program name reported to MCP clients.
const Name = "mapmcp"

// Set with -ldflags "-X github.com/NERVsystems/mapmcp/pkg/version.BuildCommit=...".
// Commit and date fall back to the VCS stamp the go command embeds.
var (
	BuildVersion = "0.1.0"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"

	// DatasetRevision identifies the bundled mock datasets; bump it when
	// pkg/dataset/data changes.
	DatasetRevision = "2024.1"

	GoVersion = runtime.Version()
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && BuildCommit == "unknown":
			BuildCommit = s.Value
		case s.Key == "vcs.time" && BuildDate == "unknown":
			BuildDate = s.Value
		}
	}
}

// String is the one-line banner printed by -version.
func String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s, datasets %s)",
		Name, BuildVersion, BuildCommit, BuildDate, GoVersion, DatasetRevision)
}

// Info returns the build metadata as served by /healthz.
func Info() map[string]string {
	return map[string]string{
		"name":       Name,
		"version":    BuildVersion,
		"commit":     BuildCommit,
		"build_date": BuildDate,
		"go_version": GoVersion,
		"datasets":   DatasetRevision,
	}
}

// Package version holds build metadata injected with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/booktypst/internal/version.Version=v0.3.0"
package version

import "fmt"

var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version for --version output.
func String() string {
	return fmt.Sprintf("booktypst %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

// Package version holds the build version of persistid.
package version

import "fmt"

var (
	// Version is overridden at build time with -ldflags.
	Version = "0.1.0"

	// GitCommit is set at build time with -ldflags.
	GitCommit = ""
)

// String returns the version and, when known, the commit.
func String() string {
	if GitCommit == "" {
		return fmt.Sprintf("persistid v%s", Version)
	}
	return fmt.Sprintf("persistid v%s (%s)", Version, GitCommit)
}

package version

import "fmt"

var (
	// Version is the release of the build.
	Version = "0.1.0-dev"
	// Commit is the short git SHA of the build, "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns the release string alone.
func Short() string {
	return Version
}

// Full returns the release with commit and build time.
func Full() string {
	return fmt.Sprintf("update-runtime %s (commit %s, built %s)", Version, Commit, BuildTime)
}

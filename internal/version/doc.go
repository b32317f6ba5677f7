// Package version holds the build metadata printed by `update-runtime --version`.
//
// Version, Commit and BuildTime are set with -ldflags "-X ..." in release builds.
package version

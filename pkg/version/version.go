// Package version exposes build metadata injected at link time.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// devVersion is reported when no version was injected via ldflags.
const devVersion = "0.0.0-dev"

// Build metadata, overridden with:
//
//	go build -ldflags "-X github.com/rshade/postquery/pkg/version.version=1.2.3"
//
//nolint:gochecknoglobals // Set by the linker.
var (
	version   = devVersion
	gitCommit = "unknown"
	buildDate = "unknown"
)

// GetVersion returns the semantic version string of the binary.
func GetVersion() string {
	return version
}

// GetGitCommit returns the git commit the binary was built from.
func GetGitCommit() string {
	return gitCommit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return buildDate
}

// IsDevelopment reports whether the version is missing or a prerelease.
func IsDevelopment() bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return true
	}
	return v.Prerelease() != ""
}

// String returns a single-line description suitable for `postquery version`.
func String() string {
	return fmt.Sprintf("postquery %s (commit %s, built %s)", version, gitCommit, buildDate)
}

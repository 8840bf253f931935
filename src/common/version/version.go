// Package version carries the build-time identity of a kforge binary.
package version

import (
	"fmt"
	"runtime"
)

// Info is the version identity stamped into the binary. The fields are
// populated from linker variables at build time; a binary built without
// ldflags reports the defaults below.
type Info struct {
	// Version is the full version string, e.g. "Anvil (2026.08) - v1.0.0-4f9f297"
	Version string

	// ReleaseName is the release codename
	ReleaseName string

	// ReleaseVersion is the semantic version
	ReleaseVersion string

	// BuildDate is the ISO 8601 build timestamp
	BuildDate string

	// GitCommit is the short commit hash the binary was built from
	GitCommit string
}

// Defaults reported by binaries built without ldflags
var (
	DefaultVersion        = "dev"
	DefaultReleaseName    = "Anvil"
	DefaultReleaseVersion = "0.0.0"
	DefaultBuildDate      = "unknown"
	DefaultGitCommit      = "unknown"
)

// New returns an Info carrying the defaults.
func New() *Info {
	return &Info{
		Version:        DefaultVersion,
		ReleaseName:    DefaultReleaseName,
		ReleaseVersion: DefaultReleaseVersion,
		BuildDate:      DefaultBuildDate,
		GitCommit:      DefaultGitCommit,
	}
}

// GoVersion returns the Go runtime version the binary was built with.
func GoVersion() string {
	return runtime.Version()
}

func (i *Info) String() string {
	return i.Version
}

// Short returns the compact "v<version>-<commit>" form.
func (i *Info) Short() string {
	return fmt.Sprintf("v%s-%s", i.ReleaseVersion, i.GitCommit)
}

// Full returns the multi-line form printed by `kforge version`.
func (i *Info) Full() string {
	return fmt.Sprintf(`%s
  Release:    %s
  Version:    %s
  Build Date: %s
  Git Commit: %s
  Go Version: %s`,
		i.Version,
		i.ReleaseName,
		i.ReleaseVersion,
		i.BuildDate,
		i.GitCommit,
		GoVersion(),
	)
}

// Map returns version info as a map (useful for JSON output)
func (i *Info) Map() map[string]string {
	return map[string]string{
		"version":         i.Version,
		"release_name":    i.ReleaseName,
		"release_version": i.ReleaseVersion,
		"build_date":      i.BuildDate,
		"git_commit":      i.GitCommit,
		"go_version":      GoVersion(),
	}
}

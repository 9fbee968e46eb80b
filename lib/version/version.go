// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"

	"github.com/dexsplit/dexsplit/lib/classfile"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns a formatted version string suitable for --version output.
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full returns detailed version information including the Go version
// and the footprint model version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s\n  Estimator: v%d",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH, classfile.EstimatorVersion)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// Build is the machine-readable form of [Full].
type Build struct {
	Version          string `json:"version"`
	Commit           string `json:"commit"`
	Dirty            bool   `json:"dirty"`
	BuildTime        string `json:"build_time"`
	GoVersion        string `json:"go_version"`
	Platform         string `json:"platform"`
	EstimatorVersion int    `json:"estimator_version"`
}

// Current returns the build information of the running binary.
func Current() Build {
	return Build{
		Version:          Version,
		Commit:           GitCommit,
		Dirty:            GitDirty == "true",
		BuildTime:        BuildTime,
		GoVersion:        runtime.Version(),
		Platform:         runtime.GOOS + "/" + runtime.GOARCH,
		EstimatorVersion: classfile.EstimatorVersion,
	}
}

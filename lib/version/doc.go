// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for dexsplit.
//
// The package-level variables [GitCommit], [GitDirty], [BuildTime] and
// [Version] are injected at build time via -ldflags -X, for example:
//
//	go build -ldflags "-X github.com/dexsplit/dexsplit/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// GitCommit is the short git SHA of the build and GitDirty is "true"
// when the tree had uncommitted changes. BuildTime is a UTC timestamp.
// Version is set manually for releases.
//
// They default to "unknown" / "0.1.0-dev" in development builds and
// test runs. [Full] and [Current] also report the footprint estimator
// version, since two builds with different estimators split the same
// inputs differently.
package version

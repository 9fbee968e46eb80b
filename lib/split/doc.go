// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package split packs the entries of a classpath into one primary
// archive and as many ordered secondary archives as needed, keeping
// each archive's estimated linear-alloc footprint under a limit.
//
// The algorithm is greedy and makes two passes over the same
// deterministic traversal:
//
//   - Mandatory pass: every entry whose path satisfies
//     Config.RequiredInPrimary goes into the primary archive, with no
//     budget check. This is the only way the primary may exceed the
//     limit.
//
//   - Fill pass: every other entry goes into the primary if it still
//     fits (MaximizePrimary; the primary is probed first even after
//     secondaries exist) or straight to the secondaries
//     (MinimizePrimary). Secondaries are opened lazily, named by
//     formatting Config.SecondaryPattern with an increasing index, and
//     rolled over when the next entry would not fit.
//
// Only ".class" entries cost anything; resources are free. An entry
// whose footprint alone exceeds the limit is isolated in a fresh
// secondary and reported as a [Warning].
//
// Archives are written to a temporary file beside their destination
// and renamed into place on close, with fixed entry timestamps, so two
// runs over the same inputs produce byte-identical output. On a fatal
// error every archive the run wrote is removed.
//
// Typical usage:
//
//	splitter, err := split.SplitZip(split.Config{
//	    Inputs:            []string{"app.jar", "lib.jar"},
//	    PrimaryPath:       "out/primary.jar",
//	    SecondaryDir:      "out/secondary",
//	    SecondaryPattern:  "secondary-%d.jar",
//	    Limit:             5 * 1024 * 1024,
//	    RequiredInPrimary: split.PatternPredicate([]string{"^com/example/app/"}),
//	})
//	secondaries, err := splitter.Execute()
//
// [Verify] re-reads a finished split and checks the same invariants
// from the outside.
package split

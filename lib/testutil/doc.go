// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test fixtures for dexsplit packages.
//
// [WriteJar] writes a zip archive with the given members in order, and
// [JarNames] and [ReadJar] read one back. [WriteTree] lays out a
// directory input from a path-to-content map.
//
// [Class] synthesizes a real classfile whose estimated footprint is a
// known function of its method count ([ClassFootprint]), so tests that
// exercise the default estimator can still reason about budgets.
// [NumericEstimator] is the opposite shortcut: it reads an entry's
// content as a decimal footprint, letting splitter tests spell out
// exact costs ("400") without building classfiles.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil

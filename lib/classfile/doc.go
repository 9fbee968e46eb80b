// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package classfile reads just enough of the JVM classfile format to
// estimate how much linear-alloc space a class costs once it is loaded
// from a dex, and synthesizes the small classfiles used as secondary
// archive canaries.
//
// The parser walks the constant pool, interface table, field table and
// method table without interpreting bytecode. Attribute bodies are
// skipped by length. Nothing here validates that a class is loadable:
// a structurally well-formed file is all [Parse] requires.
//
// [Estimate] turns a parsed [Summary] into a footprint with a fixed
// linear model (per-class overhead, per-interface slot, per-field and
// per-method records, one vtable slot per virtual method). The model
// is versioned by [EstimatorVersion] so persisted estimates can be
// invalidated when the constants change.
//
// [Synthesize] writes a minimal classfile from a [ClassSpec];
// [Canary] uses it to produce the secondary/dexNN/Canary marker class.
//
// This package depends on no other dexsplit packages.
package classfile

// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the dexsplit command tree: split, estimate,
// verify and version. Each command is a thin layer over lib/split,
// lib/config and lib/costcache; the packages under lib/ carry the
// behavior and these files only parse flags, pick jobs, and format
// results as text or JSON.
package commands

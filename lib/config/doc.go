// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads dexsplit job files.
//
// A job file is a single YAML file named by the DEXSPLIT_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There is no discovery and no search path, so the same
// command line always reads the same file.
//
// The file holds split defaults, the footprint cache settings and a
// list of named jobs. Jobs inherit every split parameter they do not
// set from defaults. Optional debug and release sections override
// defaults when [Config].Variant matches.
//
// Path fields expand ${HOME}, ${CONFIG_DIR} and ${VAR:-default}
// patterns after loading, and relative paths resolve against the job
// file's directory. No environment variable overrides a value set in
// the file.
//
// Key exports:
//
//   - [Config] -- defaults, cache settings and jobs
//   - [Default] -- the base every file is loaded over
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.SplitConfig] -- resolve a job into a split.Config
package config

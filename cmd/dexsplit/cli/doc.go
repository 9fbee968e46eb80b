// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the dexsplit CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a tagged parameter struct bound
// to a [pflag.FlagSet] by [BindFlags], and a Run function. Commands are
// assembled into a tree in cmd/dexsplit/commands and dispatched via
// [Command.Execute], which handles flag parsing, subcommand routing, and
// structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Command output goes to the [Streams] carried by the context passed to
// Execute, so tests can capture it without touching the process's
// standard streams. Run receives a logger built by [NewCommandLogger]
// at the level selected by an embedded [Verbosity].
package cli

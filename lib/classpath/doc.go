// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package classpath enumerates the members of a classpath: jar and zip
// archives, directories of classfiles, and loose files.
//
// A [Traverser] visits every [Entry] of its inputs in a deterministic
// order: inputs in the order given, archive members in central
// directory order, directory contents in lexical order. Directory
// members of archives are not entries. When two inputs contain the same
// path, the first one wins and the later one is reported through
// [Traverser.OnDuplicate] instead of being visited.
//
// Traversal is restartable: each call to [Traverser.Traverse] reopens
// the inputs, so a caller can make several passes without holding the
// entry list in memory.
//
// Entries handed to a visit function are only valid for the duration
// of that call; archive readers are closed once their input has been
// traversed.
package classpath

// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Dexsplit splits a Java classpath into a primary archive and numbered
// secondary archives whose estimated linear-alloc footprints stay under
// a limit.
//
// Usage:
//
//	dexsplit split -i app.jar --primary out/classes.jar --secondary-dir out --limit 5242880
//	dexsplit split --config dexsplit.yaml [--job NAME]... [--parallel N]
//	dexsplit estimate [--summary] INPUT...
//	dexsplit verify --limit N --primary FILE [SECONDARY...]
//	dexsplit version [--json]
//
// Exit status is 0 on success, 1 when the work failed or verify found
// violations, and 2 for invalid flags or configuration.
package main

// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package costcache memoizes linear-alloc footprint estimates across
// runs.
//
// A [Cache] wraps an estimator and is itself an estimator, so it drops
// into split.Config.Estimator unchanged. Entries are keyed by a BLAKE3
// keyed hash of the classfile bytes, not by path: the same class in
// two jars, or in two builds, is estimated once.
//
// The in-memory tier is a bounded LRU. [Cache.Save] writes it to a
// single snapshot file in the cache directory; [Open] reads it back.
// The snapshot records the estimator version it was built with and is
// discarded when the version changes. A snapshot that cannot be
// decoded is logged and ignored: the cache is an optimization and
// never a reason for a split to fail.
//
// Snapshot layout:
//
//	offset  size  field
//	0       6     magic "DXSFPC"
//	6       2     format version (big endian)
//	8       1     compression tag (0 none, 1 lz4, 2 zstd)
//	9       4     uncompressed payload length (big endian)
//	13      ...   payload: deterministic CBOR, oldest entry first
//
// A Cache is safe for concurrent use by multiple splits.
package costcache

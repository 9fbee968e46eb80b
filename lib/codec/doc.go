// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration used for dexsplit's
// on-disk state.
//
// JSON is for what users read (the CLI's --json output); CBOR is for
// what only dexsplit reads back, currently the footprint cache
// snapshot. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2), so the same logical value always produces the same bytes and
// two caches with equal contents are byte-identical.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types that are only ever stored as CBOR carry `cbor` struct tags.
// Types that also appear in JSON output carry `json` tags, which
// fxamacker/cbor falls back to when no `cbor` tag is present. Never
// put both on one field.
package codec

// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package costcache

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Key is the 32-byte BLAKE3 digest identifying a classfile.
type Key [32]byte

// String returns the hex encoding of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// classDomainKey separates cache keys from any other BLAKE3 use of the
// same bytes. The value is the ASCII domain name, zero-padded to 32
// bytes. Changing it invalidates every snapshot.
var classDomainKey = [32]byte{
	'd', 'e', 'x', 's', 'p', 'l', 'i', 't', '.', 'c', 'o', 's', 't', 'c', 'a', 'c',
	'h', 'e', '.', 'c', 'l', 'a', 's', 's', 0, 0, 0, 0, 0, 0, 0, 0,
}

// KeyOf returns the cache key for classfile bytes.
func KeyOf(data []byte) Key {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(classDomainKey[:])
	if err != nil {
		panic("costcache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var key Key
	copy(key[:], hasher.Sum(nil))
	return key
}

// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package classfile

import "fmt"

// CanaryClassName returns the internal name of the canary class for
// the secondary archive with the given index: secondary/dex01/Canary
// for index 1. Downstream tooling loads this class to confirm that a
// secondary dex was installed.
func CanaryClassName(index int) string {
	return fmt.Sprintf("secondary/dex%02d/Canary", index)
}

// CanaryPath returns the archive path of the canary classfile for the
// given secondary index.
func CanaryPath(index int) string {
	return CanaryClassName(index) + ".class"
}

// Canary returns the archive path and classfile bytes of the canary
// for the given secondary index. The class is an empty public
// interface, the smallest shape every dexer accepts.
func Canary(index int) (string, []byte, error) {
	if index < 0 {
		return "", nil, fmt.Errorf("canary index %d is negative", index)
	}
	data, err := Synthesize(ClassSpec{
		Name:        CanaryClassName(index),
		AccessFlags: AccPublic | AccInterface | AccAbstract,
	})
	if err != nil {
		return "", nil, err
	}
	return CanaryPath(index), data, nil
}

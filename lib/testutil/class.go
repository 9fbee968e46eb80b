// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dexsplit/dexsplit/lib/classfile"
)

// Class synthesizes a classfile named name (internal form, without
// ".class") declaring the given number of public virtual methods.
func Class(t fatalHelper, name string, methods int) []byte {
	t.Helper()
	spec := classfile.ClassSpec{Name: name, AccessFlags: classfile.AccPublic}
	for i := range methods {
		spec.Methods = append(spec.Methods, classfile.Member{
			Name:        fmt.Sprintf("m%d", i),
			Descriptor:  "()V",
			AccessFlags: classfile.AccPublic,
		})
	}
	data, err := classfile.Synthesize(spec)
	if err != nil {
		t.Fatalf("synthesizing %s: %v", name, err)
	}
	return data
}

// ClassFootprint returns the default estimator's footprint for data.
func ClassFootprint(t fatalHelper, data []byte) int64 {
	t.Helper()
	footprint, err := classfile.Estimate(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("estimating fixture class: %v", err)
	}
	return footprint
}

// NumericEstimator treats an entry's content as its footprint written
// in decimal. It satisfies the splitter's estimator interface.
type NumericEstimator struct{}

// Estimate parses the content of r as a decimal integer.
func (NumericEstimator) Estimate(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	footprint, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("fixture footprint: %w", err)
	}
	return footprint, nil
}

// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"fmt"
	"io"
	"strings"

	"github.com/dexsplit/dexsplit/lib/classpath"
)

// Estimator reports the linear-alloc footprint of one classfile.
// [classfile.Estimator] is the default; [costcache.Cache] wraps any
// estimator with a persistent memo.
type Estimator interface {
	Estimate(r io.Reader) (int64, error)
}

// EstimatorFunc adapts a function to Estimator.
type EstimatorFunc func(r io.Reader) (int64, error)

// Estimate calls f.
func (f EstimatorFunc) Estimate(r io.Reader) (int64, error) { return f(r) }

// coster applies the footprint policy: only classfiles cost anything.
// Results are memoized by path for the lifetime of one Execute, so the
// estimator runs at most once per entry across both passes.
type coster struct {
	estimator Estimator
	memo      map[string]int64
}

func newCoster(estimator Estimator) *coster {
	return &coster{estimator: estimator, memo: make(map[string]int64)}
}

// isClassfile reports whether an entry path names a classfile.
func isClassfile(path string) bool {
	return strings.HasSuffix(path, ".class")
}

// cost returns the entry's footprint. Estimation failures are fatal
// and name the entry.
func (c *coster) cost(entry classpath.Entry) (int64, error) {
	path := entry.Path()
	if !isClassfile(path) {
		return 0, nil
	}
	if footprint, ok := c.memo[path]; ok {
		return footprint, nil
	}

	reader, err := entry.Open()
	if err != nil {
		return 0, &Error{Kind: KindInputRead, Path: path, Err: err}
	}
	footprint, err := c.estimator.Estimate(reader)
	reader.Close()
	if err != nil {
		return 0, &Error{Kind: KindEstimation, Path: path, Err: fmt.Errorf("calculating size: %w", err)}
	}
	if footprint < 0 {
		return 0, &Error{Kind: KindEstimation, Path: path, Err: fmt.Errorf("estimator returned negative footprint %d", footprint)}
	}

	c.memo[path] = footprint
	return footprint, nil
}

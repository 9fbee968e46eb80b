// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package classfile

import (
	"fmt"
	"io"
)

// EstimatorVersion identifies the footprint model below. Bump it
// whenever a constant changes so cached estimates are discarded.
const EstimatorVersion = 1

// Footprint model constants, in bytes of linear-alloc space.
const (
	classOverhead     = 40
	interfaceSlot     = 4
	staticFieldCost   = 16
	instanceFieldCost = 8
	methodCost        = 52
	vtableSlot        = 4
)

// Footprint returns the estimated linear-alloc cost of the class.
func (s *Summary) Footprint() int64 {
	return classOverhead +
		interfaceSlot*int64(s.Interfaces) +
		staticFieldCost*int64(s.StaticFields) +
		instanceFieldCost*int64(s.InstanceFields) +
		methodCost*int64(s.Methods) +
		vtableSlot*int64(s.VirtualMethods)
}

// Estimate parses the classfile read from r and returns its footprint.
func Estimate(r io.Reader) (int64, error) {
	summary, err := Parse(r)
	if err != nil {
		return 0, fmt.Errorf("estimating linear alloc: %w", err)
	}
	return summary.Footprint(), nil
}

// Estimator adapts [Estimate] to the single-method estimator interface
// the splitter and the cost cache accept.
type Estimator struct{}

// Estimate implements the estimator interface.
func (Estimator) Estimate(r io.Reader) (int64, error) {
	return Estimate(r)
}

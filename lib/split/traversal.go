// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"github.com/dexsplit/dexsplit/lib/classpath"
)

// mandatoryPass puts every required entry into the primary archive,
// regardless of the limit. The predicate sees only paths, so entries
// are never estimated to decide membership.
func (s *Splitter) mandatoryPass() error {
	return s.traverse(func(entry classpath.Entry) error {
		if !s.config.RequiredInPrimary(entry.Path()) {
			return nil
		}
		return s.primary.putEntry(entry)
	})
}

// fillPass places every entry the mandatory pass did not take. Under
// MaximizePrimary the primary is probed first for every entry, even
// after secondaries have been opened, so residual primary capacity is
// always used. Under MinimizePrimary the primary is never probed.
func (s *Splitter) fillPass() error {
	return s.traverse(func(entry classpath.Entry) error {
		if s.primary.containsEntry(entry) {
			return nil
		}

		if s.config.Strategy == MaximizePrimary {
			fits, err := s.primary.canPutEntry(entry)
			if err != nil {
				return err
			}
			if fits {
				return s.primary.putEntry(entry)
			}
		}

		secondary, err := s.secondaries.secondaryFor(entry)
		if err != nil {
			return err
		}
		return s.putSecondary(secondary, entry)
	})
}

// putSecondary writes entry to a secondary and records an oversize
// warning when the secondary ends up over the limit. That happens when
// the entry alone exceeds the limit, or when it lands in a fresh
// secondary whose canary leaves too little room for it.
func (s *Splitter) putSecondary(secondary *archiveWriter, entry classpath.Entry) error {
	footprint, err := s.coster.cost(entry)
	if err != nil {
		return err
	}
	if err := secondary.putEntry(entry); err != nil {
		return err
	}
	if secondary.oversize() {
		secondary.markOversize()
		warning := Warning{
			Kind:      WarningOversizeEntry,
			Path:      entry.Path(),
			Footprint: footprint,
			Archive:   secondary.path,
		}
		s.warnings = append(s.warnings, warning)
		s.logger.Warn("secondary archive exceeds linear alloc limit",
			"path", entry.Path(),
			"footprint", footprint,
			"archive_footprint", secondary.footprint,
			"limit", s.config.Limit,
			"archive", secondary.path,
		)
	}
	return nil
}

// traverse runs one pass over the inputs, classifying traversal
// failures as input errors.
func (s *Splitter) traverse(visit func(classpath.Entry) error) error {
	if err := s.traverser.Traverse(visit); err != nil {
		return inputError(err)
	}
	return nil
}

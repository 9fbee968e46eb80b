// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"fmt"

	"github.com/dexsplit/dexsplit/lib/classfile"
	"github.com/dexsplit/dexsplit/lib/classpath"
)

// VerifyConfig describes a set of split outputs to check.
type VerifyConfig struct {
	Primary     string
	Secondaries []string
	Limit       int64

	// RequiredInPrimary, if set, is checked against every entry.
	RequiredInPrimary func(path string) bool

	// Canaries selects whether secondaries must start with the canary
	// for their position.
	Canaries CanaryStrategy

	// Inputs, if set, must be exactly partitioned by the outputs.
	Inputs []string

	Estimator Estimator
}

// Violation is one broken property of a split.
type Violation struct {
	Archive string `json:"archive"`
	Path    string `json:"path,omitempty"`
	Problem string `json:"problem"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return fmt.Sprintf("%s: %s", v.Archive, v.Problem)
	}
	return fmt.Sprintf("%s: %s: %s", v.Archive, v.Path, v.Problem)
}

// Verify re-reads split outputs and returns every violated property:
// the outputs hold no path twice, no secondary is over the limit
// unless it holds a single oversize entry, the primary is over the
// limit only through required entries, required entries are in the
// primary, and with canaries each secondary starts with its canary.
// The error is non-nil only when an archive cannot be read.
func Verify(config VerifyConfig) ([]Violation, error) {
	if config.Limit <= 0 {
		return nil, configurationError("linear alloc limit must be positive, got %d", config.Limit)
	}
	if config.Estimator == nil {
		config.Estimator = classfile.Estimator{}
	}
	coster := newCoster(config.Estimator)

	var violations []Violation
	report := func(archive, path, format string, args ...any) {
		violations = append(violations, Violation{Archive: archive, Path: path, Problem: fmt.Sprintf(format, args...)})
	}
	required := func(path string) bool {
		return config.RequiredInPrimary != nil && config.RequiredInPrimary(path)
	}

	type placement struct{ archive, path string }
	var placements []placement
	canaries := make(map[string]bool)
	owner := make(map[string]string)
	archives := append([]string{config.Primary}, config.Secondaries...)
	for position, archive := range archives {
		isPrimary := position == 0
		canaryIndex := firstSecondaryIndex(config.Canaries) + position - 1

		var footprint, optional int64
		var real []string
		index := 0
		traverser := &classpath.Traverser{
			Inputs: []string{archive},
			OnDuplicate: func(path, _ string) {
				report(archive, path, "duplicate entry within archive")
			},
		}
		err := traverser.Traverse(func(entry classpath.Entry) error {
			path := entry.Path()
			first := index == 0
			index++

			cost, err := coster.cost(entry)
			if err != nil {
				return err
			}
			footprint += cost

			if previous, ok := owner[path]; ok {
				report(archive, path, "also present in %s", previous)
			} else {
				owner[path] = archive
			}

			if !isPrimary && config.Canaries == IncludeCanaries && first {
				if want := classfile.CanaryPath(canaryIndex); path != want {
					report(archive, path, "first entry is not canary %s", want)
				} else {
					canaries[archive] = true
					return nil
				}
			}
			placements = append(placements, placement{archive: archive, path: path})

			switch {
			case isPrimary && required(path):
			case isPrimary:
				optional += cost
			case required(path):
				report(archive, path, "required entry outside the primary")
			}
			real = append(real, path)
			return nil
		})
		if err != nil {
			return nil, inputError(err)
		}

		if !isPrimary && config.Canaries == IncludeCanaries && index == 0 && !canaries[archive] {
			report(archive, "", "missing canary %s", classfile.CanaryPath(canaryIndex))
		}

		if footprint <= config.Limit {
			continue
		}
		switch {
		case isPrimary && optional > 0:
			report(archive, "", "footprint %d exceeds limit %d with %d from entries that are not required",
				footprint, config.Limit, optional)
		// footprint includes the canary, so a lone entry that only
		// overflows together with its canary is accepted like any
		// other oversize entry.
		case !isPrimary && len(real) > 1:
			report(archive, "", "footprint %d exceeds limit %d", footprint, config.Limit)
		}
	}

	if len(config.Inputs) > 0 {
		seen := make(map[string]struct{})
		traverser := &classpath.Traverser{Inputs: config.Inputs}
		err := traverser.Traverse(func(entry classpath.Entry) error {
			seen[entry.Path()] = struct{}{}
			if _, ok := owner[entry.Path()]; !ok {
				report("inputs", entry.Path(), "entry missing from outputs")
			}
			return nil
		})
		if err != nil {
			return nil, inputError(err)
		}
		for _, placed := range placements {
			if _, ok := seen[placed.path]; !ok {
				report(placed.archive, placed.path, "entry not present in any input")
			}
		}
	}

	return violations, nil
}

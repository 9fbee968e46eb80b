// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import "strings"

// PatternPredicate returns a RequiredInPrimary predicate matching any
// of patterns. A pattern starting with "^" matches paths that begin
// with the rest of the pattern; any other pattern matches paths that
// contain it. With no patterns nothing is required.
func PatternPredicate(patterns []string) func(path string) bool {
	var prefixes, substrings []string
	for _, pattern := range patterns {
		if rest, anchored := strings.CutPrefix(pattern, "^"); anchored {
			prefixes = append(prefixes, rest)
		} else {
			substrings = append(substrings, pattern)
		}
	}

	return func(path string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		for _, substring := range substrings {
			if strings.Contains(path, substring) {
				return true
			}
		}
		return false
	}
}

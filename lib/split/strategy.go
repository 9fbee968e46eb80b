// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"fmt"

	"github.com/klauspost/compress/zip"
)

// Strategy decides whether the fill pass may add to the primary.
type Strategy int

const (
	// MaximizePrimary fills residual primary capacity before using a
	// secondary, for every entry of the fill pass.
	MaximizePrimary Strategy = iota

	// MinimizePrimary keeps the primary to its required entries; every
	// other entry goes to a secondary.
	MinimizePrimary
)

// String returns the name accepted by [ParseStrategy].
func (s Strategy) String() string {
	switch s {
	case MaximizePrimary:
		return "maximize-primary"
	case MinimizePrimary:
		return "minimize-primary"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseStrategy parses a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "maximize-primary", "":
		return MaximizePrimary, nil
	case "minimize-primary":
		return MinimizePrimary, nil
	default:
		return 0, fmt.Errorf("unknown split strategy %q (want maximize-primary or minimize-primary)", name)
	}
}

// CanaryStrategy decides whether secondaries get a canary class.
type CanaryStrategy int

const (
	DontIncludeCanaries CanaryStrategy = iota
	IncludeCanaries
)

// String returns a readable name.
func (c CanaryStrategy) String() string {
	switch c {
	case DontIncludeCanaries:
		return "dont-include-canaries"
	case IncludeCanaries:
		return "include-canaries"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Compression selects the zip method for output entries.
type Compression uint16

const (
	CompressDeflate Compression = Compression(zip.Deflate)
	CompressStore   Compression = Compression(zip.Store)
)

// String returns the name accepted by [ParseCompression].
func (c Compression) String() string {
	switch c {
	case CompressDeflate:
		return "deflate"
	case CompressStore:
		return "store"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(c))
	}
}

// ParseCompression parses a compression name. The empty string selects
// deflate.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "deflate", "":
		return CompressDeflate, nil
	case "store":
		return CompressStore, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want deflate or store)", name)
	}
}

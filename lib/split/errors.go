// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"errors"
	"fmt"

	"github.com/dexsplit/dexsplit/lib/classpath"
)

// ErrorKind classifies a fatal splitter error.
type ErrorKind int

const (
	// KindConfiguration is an invalid Config, reported before any
	// input is read.
	KindConfiguration ErrorKind = iota + 1

	// KindInputRead is an unreadable input archive or entry.
	KindInputRead

	// KindEstimation is an estimator failure on a classfile.
	KindEstimation

	// KindOutputWrite is a failure creating or writing an output
	// archive or report.
	KindOutputWrite
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInputRead:
		return "input read"
	case KindEstimation:
		return "estimation"
	case KindOutputWrite:
		return "output write"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error is a fatal splitter error. Path names the offending input,
// entry or output file when there is one.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is, or wraps, a splitter *Error of kind.
func IsKind(err error, kind ErrorKind) bool {
	var splitError *Error
	return errors.As(err, &splitError) && splitError.Kind == kind
}

func configurationError(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

// inputError classifies a traversal failure: classpath read errors
// become KindInputRead, anything else (already-classified splitter
// errors from the visit function) passes through unchanged.
func inputError(err error) error {
	var readError *classpath.ReadError
	if errors.As(err, &readError) {
		return &Error{Kind: KindInputRead, Path: readError.Input, Err: readError.Err}
	}
	return err
}

// WarningKind classifies a non-fatal condition.
type WarningKind string

const (
	// WarningOversizeEntry marks an entry that takes a fresh secondary
	// archive over the limit, either alone or together with the
	// archive's canary. The entry is isolated in that archive.
	WarningOversizeEntry WarningKind = "oversize-entry"
)

// Warning is a non-fatal condition recorded in the result and the
// report.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Path      string      `json:"path"`
	Footprint int64       `json:"footprint"`
	Archive   string      `json:"archive"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (footprint %d) in %s", w.Kind, w.Path, w.Footprint, w.Archive)
}

// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dexsplit/dexsplit/lib/classfile"
	"github.com/dexsplit/dexsplit/lib/classpath"
)

// Config fixes everything about one split. It is consumed by a single
// [Splitter.Execute].
type Config struct {
	// Inputs are the classpath inputs, traversed in this order.
	// Repeated inputs are dropped, keeping the first occurrence.
	Inputs []string

	// PrimaryPath is where the primary archive is written.
	PrimaryPath string

	// SecondaryDir receives the secondary archives.
	SecondaryDir string

	// SecondaryPattern is a fmt format with one integer verb, e.g.
	// "secondary-%d.jar". It must produce a distinct name per index.
	SecondaryPattern string

	// Limit is the linear-alloc budget per archive. Must be positive.
	Limit int64

	// RequiredInPrimary selects entries that must be in the primary,
	// independent of budget. It is a pure function of the entry path.
	RequiredInPrimary func(path string) bool

	Strategy Strategy
	Canaries CanaryStrategy

	// ReportDir, if set, receives one manifest per archive.
	ReportDir string

	// Estimator overrides the classfile footprint estimator.
	// Defaults to classfile.Estimator.
	Estimator Estimator

	// Compression is the zip method of output entries. The zero value
	// is Store; SplitZip callers normally want CompressDeflate.
	Compression Compression

	// Logger receives progress and warnings. Defaults to discarding.
	Logger *slog.Logger
}

// Validate checks the configuration. All problems are reported as one
// KindConfiguration error.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Inputs) == 0 {
		problems = append(problems, "no inputs")
	}
	if c.PrimaryPath == "" {
		problems = append(problems, "primary path is empty")
	}
	if c.SecondaryDir == "" {
		problems = append(problems, "secondary directory is empty")
	}
	if c.Limit <= 0 {
		problems = append(problems, fmt.Sprintf("linear alloc limit must be positive, got %d", c.Limit))
	}
	if c.RequiredInPrimary == nil {
		problems = append(problems, "required-in-primary predicate is nil")
	}
	if c.Compression != CompressDeflate && c.Compression != CompressStore {
		problems = append(problems, fmt.Sprintf("unsupported compression %s", c.Compression))
	}
	if problem := checkPattern(c.SecondaryDir, c.SecondaryPattern); problem != "" {
		problems = append(problems, problem)
	} else if c.PrimaryPath != "" && c.SecondaryDir != "" {
		first := firstSecondaryIndex(c.Canaries)
		for _, index := range []int{first, first + 1} {
			secondary := filepath.Join(c.SecondaryDir, secondaryName(c.SecondaryPattern, index))
			if filepath.Clean(secondary) == filepath.Clean(c.PrimaryPath) {
				problems = append(problems, fmt.Sprintf("secondary %d would overwrite the primary %s", index, c.PrimaryPath))
			}
		}
	}

	if len(problems) > 0 {
		return configurationError("%s", strings.Join(problems, "; "))
	}
	return nil
}

// checkPattern returns a description of what is wrong with a secondary
// name pattern, or "" if it is usable. Names are compared as resolved
// paths under directory.
func checkPattern(directory, pattern string) string {
	if pattern == "" {
		return "secondary pattern is empty"
	}
	first, second := secondaryName(pattern, 1), secondaryName(pattern, 2)
	if strings.Contains(first, "%!") {
		return fmt.Sprintf("secondary pattern %q is not a format with one integer verb (got %q)", pattern, first)
	}
	if filepath.Join(directory, first) == filepath.Join(directory, second) {
		return fmt.Sprintf("secondary pattern %q does not produce distinct names", pattern)
	}
	if base := filepath.Base(first); base == "." || base == string(filepath.Separator) {
		return fmt.Sprintf("secondary pattern %q does not name a file", pattern)
	}
	return ""
}

// Splitter runs one split. It is single-use and not safe for
// concurrent use; independent Splitters with disjoint outputs may run
// concurrently.
type Splitter struct {
	config    Config
	logger    *slog.Logger
	coster    *coster
	traverser *classpath.Traverser

	executed    bool
	pass        passState
	primary     *archiveWriter
	secondaries *rollover
	duplicates  []string
	warnings    []Warning
	result      *Result
}

// SplitZip validates config and returns a Splitter for it.
func SplitZip(config Config) (*Splitter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Estimator == nil {
		config.Estimator = classfile.Estimator{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	config.Inputs = uniqueInputs(config.Inputs)

	splitter := &Splitter{
		config: config,
		logger: logger,
		coster: newCoster(config.Estimator),
	}
	splitter.traverser = &classpath.Traverser{
		Inputs: config.Inputs,
		OnDuplicate: func(path, input string) {
			splitter.recordDuplicate(path, input)
		},
	}
	return splitter, nil
}

func uniqueInputs(inputs []string) []string {
	seen := make(map[string]struct{}, len(inputs))
	unique := make([]string, 0, len(inputs))
	for _, input := range inputs {
		key := filepath.Clean(input)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, input)
	}
	return unique
}

// recordDuplicate notes a path shadowed by an earlier input. Both
// passes see the same duplicates, so only the first pass records.
func (s *Splitter) recordDuplicate(path, input string) {
	if s.pass != passMandatory {
		return
	}
	s.duplicates = append(s.duplicates, path)
	s.logger.Debug("skipping duplicate classpath entry", "path", path, "input", input)
}

// Execute performs the split and returns the secondary archive paths in
// the order they were opened. On error every archive written by this
// call is removed and the original cause is returned.
func (s *Splitter) Execute() ([]string, error) {
	if s.executed {
		return nil, configurationError("splitter already executed")
	}
	s.executed = true

	s.primary = newArchiveWriter(s.config.PrimaryPath, s.config.Limit, s.coster, s.config.Compression)
	s.secondaries = newRollover(&s.config, s.coster, s.logger)

	if err := s.run(); err != nil {
		s.primary.abort()
		s.secondaries.abort()
		for _, archive := range s.allArchives() {
			if !archive.committed {
				continue
			}
			if removeErr := os.Remove(archive.path); removeErr != nil && !os.IsNotExist(removeErr) {
				s.logger.Warn("removing archive from failed split", "archive", archive.path, "error", removeErr)
			}
		}
		return nil, err
	}

	return s.secondaries.paths(), nil
}

// passState tracks which pass is running.
type passState int

const (
	passMandatory passState = iota + 1
	passFill
)

func (s *Splitter) run() error {
	if err := s.primary.open(); err != nil {
		return err
	}

	s.pass = passMandatory
	if err := s.mandatoryPass(); err != nil {
		return err
	}
	s.logger.Debug("mandatory pass complete",
		"archive", s.primary.path,
		"entries", len(s.primary.entries),
		"footprint", s.primary.footprint,
		"limit", s.config.Limit,
	)
	if s.primary.oversize() {
		s.logger.Info("required entries exceed linear alloc limit",
			"archive", s.primary.path,
			"footprint", s.primary.footprint,
			"limit", s.config.Limit,
		)
	}

	s.pass = passFill
	if err := s.fillPass(); err != nil {
		return err
	}

	if err := s.primary.close(); err != nil {
		return err
	}
	if err := s.secondaries.closeCurrent(); err != nil {
		return err
	}

	result, err := s.buildResult()
	if err != nil {
		return err
	}
	s.result = result

	if s.config.ReportDir != "" {
		if err := writeReports(s.config.ReportDir, s.config.Limit, result, s.allArchives()); err != nil {
			return err
		}
	}

	s.logger.Info("split complete",
		"primary", s.primary.path,
		"secondaries", len(s.secondaries.archives),
		"duplicates", len(s.duplicates),
		"warnings", len(s.warnings),
	)
	return nil
}

// allArchives returns the primary followed by the secondaries in
// opening order.
func (s *Splitter) allArchives() []*archiveWriter {
	return append([]*archiveWriter{s.primary}, s.secondaries.archives...)
}

// Result returns the summary of a successful Execute, or nil before
// Execute has succeeded.
func (s *Splitter) Result() *Result {
	return s.result
}

// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dexsplit/dexsplit/lib/classfile"
	"github.com/dexsplit/dexsplit/lib/classpath"
)

// firstSecondaryIndex returns the index of the first secondary
// archive. With canaries, index 1 is reserved for the canary-bearing
// primary dex, so secondaries start at 2.
func firstSecondaryIndex(canaries CanaryStrategy) int {
	if canaries == IncludeCanaries {
		return 2
	}
	return 1
}

// secondaryName formats the secondary file name for index.
func secondaryName(pattern string, index int) string {
	return fmt.Sprintf(pattern, index)
}

// rollover opens secondary archives on demand, strictly in index
// order, and keeps exactly one of them open at a time.
type rollover struct {
	directory   string
	pattern     string
	limit       int64
	coster      *coster
	compression Compression
	canaries    CanaryStrategy
	logger      *slog.Logger

	nextIndex int
	current   *archiveWriter

	// archives lists every secondary opened so far, in opening order.
	archives []*archiveWriter
	indexes  []int
}

func newRollover(config *Config, coster *coster, logger *slog.Logger) *rollover {
	return &rollover{
		directory:   config.SecondaryDir,
		pattern:     config.SecondaryPattern,
		limit:       config.Limit,
		coster:      coster,
		compression: config.Compression,
		canaries:    config.Canaries,
		logger:      logger,
		nextIndex:   firstSecondaryIndex(config.Canaries),
	}
}

// secondaryFor returns the secondary archive entry should be written
// to, rolling over to a new archive when the current one cannot take
// it. A secondary with no real entries yet is never rolled over: an
// entry that does not fit an empty archive is oversize, and it gets
// that archive to itself.
func (r *rollover) secondaryFor(entry classpath.Entry) (*archiveWriter, error) {
	if r.current == nil {
		if err := r.openNext(); err != nil {
			return nil, err
		}
	}

	fits, err := r.current.canPutEntry(entry)
	if err != nil {
		return nil, err
	}
	if fits || r.current.realEntries == 0 {
		return r.current, nil
	}

	if err := r.closeCurrent(); err != nil {
		return nil, err
	}
	if err := r.openNext(); err != nil {
		return nil, err
	}
	return r.current, nil
}

// openNext opens the secondary for nextIndex and, with canaries,
// writes its canary class first.
func (r *rollover) openNext() error {
	index := r.nextIndex
	path := filepath.Join(r.directory, secondaryName(r.pattern, index))

	writer := newArchiveWriter(path, r.limit, r.coster, r.compression)
	if err := writer.open(); err != nil {
		return err
	}
	r.nextIndex++
	r.current = writer
	r.archives = append(r.archives, writer)
	r.indexes = append(r.indexes, index)
	r.logger.Debug("opened secondary archive", "archive", path, "index", index)

	if r.canaries == IncludeCanaries {
		canaryPath, data, err := classfile.Canary(index)
		if err != nil {
			return fmt.Errorf("synthesizing canary for secondary %d: %w", index, err)
		}
		if err := writer.putCanary(&classpath.MemoryEntry{Name: canaryPath, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

// closeCurrent closes the open secondary, if any.
func (r *rollover) closeCurrent() error {
	if r.current == nil {
		return nil
	}
	writer := r.current
	r.current = nil
	if err := writer.close(); err != nil {
		return err
	}
	r.logger.Debug("closed secondary archive",
		"archive", writer.path,
		"footprint", writer.footprint,
		"entries", len(writer.entries),
	)
	return nil
}

// abort discards the open secondary. Secondaries already closed are
// left for the caller to remove.
func (r *rollover) abort() {
	if r.current != nil {
		r.current.abort()
		r.current = nil
	}
}

// paths returns the secondary file paths in opening order.
func (r *rollover) paths() []string {
	paths := make([]string, len(r.archives))
	for i, archive := range r.archives {
		paths[i] = archive.path
	}
	return paths
}

// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/dexsplit/dexsplit/lib/classpath"
)

// entryModTime is stamped on every output entry so archive bytes do
// not depend on when or from what the split ran.
var entryModTime = time.Date(1985, time.February, 1, 0, 0, 0, 0, time.UTC)

type archiveState int

const (
	stateUnopened archiveState = iota
	stateOpen
	stateClosed
)

func (s archiveState) String() string {
	switch s {
	case stateUnopened:
		return "unopened"
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// placedEntry records one entry written to an archive.
type placedEntry struct {
	Path      string
	Footprint int64
	Canary    bool

	// Oversize is set on the entry that took its archive over the
	// limit.
	Oversize bool
}

// archiveWriter is an append-only output archive that tracks the
// accumulated footprint of its entries. It does not enforce the limit
// itself: callers check canPutEntry before putEntry.
//
// Content is written to a temporary file in the destination directory
// and renamed onto path by close, so a failed split never leaves a
// partial archive under the final name.
type archiveWriter struct {
	path        string
	limit       int64
	coster      *coster
	compression Compression

	state     archiveState
	file      *os.File
	zip       *zip.Writer
	footprint int64
	members   map[string]struct{}
	entries   []placedEntry

	// realEntries counts entries other than the canary.
	realEntries int

	// committed is set once the archive has been renamed into place.
	committed bool
}

func newArchiveWriter(path string, limit int64, coster *coster, compression Compression) *archiveWriter {
	return &archiveWriter{
		path:        path,
		limit:       limit,
		coster:      coster,
		compression: compression,
		members:     make(map[string]struct{}),
	}
}

// open creates the temporary backing file. UNOPENED -> OPEN.
func (w *archiveWriter) open() error {
	if w.state != stateUnopened {
		return fmt.Errorf("opening archive %s: archive is %s", w.path, w.state)
	}
	directory := filepath.Dir(w.path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return &Error{Kind: KindOutputWrite, Path: w.path, Err: fmt.Errorf("creating output directory: %w", err)}
	}
	file, err := os.CreateTemp(directory, "."+filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return &Error{Kind: KindOutputWrite, Path: w.path, Err: fmt.Errorf("creating temp archive: %w", err)}
	}
	w.file = file
	w.zip = zip.NewWriter(file)
	w.state = stateOpen
	return nil
}

// putEntry appends entry and adds its footprint. It fails unless the
// archive is open.
func (w *archiveWriter) putEntry(entry classpath.Entry) error {
	return w.put(entry, false)
}

// putCanary appends a synthesized canary entry. It is accounted like
// any other entry but does not count as real content.
func (w *archiveWriter) putCanary(entry classpath.Entry) error {
	return w.put(entry, true)
}

func (w *archiveWriter) put(entry classpath.Entry, canary bool) error {
	if w.state != stateOpen {
		return fmt.Errorf("writing %s to %s: archive is %s", entry.Path(), w.path, w.state)
	}
	footprint, err := w.coster.cost(entry)
	if err != nil {
		return err
	}

	reader, err := entry.Open()
	if err != nil {
		return &Error{Kind: KindInputRead, Path: entry.Path(), Err: err}
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return &Error{Kind: KindInputRead, Path: entry.Path(), Err: err}
	}

	header := &zip.FileHeader{
		Name:     entry.Path(),
		Method:   uint16(w.compression),
		Modified: entryModTime,
	}
	member, err := w.zip.CreateHeader(header)
	if err != nil {
		return &Error{Kind: KindOutputWrite, Path: w.path, Err: fmt.Errorf("adding %s: %w", entry.Path(), err)}
	}
	if _, err := member.Write(data); err != nil {
		return &Error{Kind: KindOutputWrite, Path: w.path, Err: fmt.Errorf("writing %s: %w", entry.Path(), err)}
	}

	w.footprint += footprint
	w.members[entry.Path()] = struct{}{}
	w.entries = append(w.entries, placedEntry{Path: entry.Path(), Footprint: footprint, Canary: canary})
	if !canary {
		w.realEntries++
	}
	return nil
}

// canPutEntry reports whether entry fits under the limit.
func (w *archiveWriter) canPutEntry(entry classpath.Entry) (bool, error) {
	if w.state != stateOpen {
		return false, fmt.Errorf("checking %s against %s: archive is %s", entry.Path(), w.path, w.state)
	}
	footprint, err := w.coster.cost(entry)
	if err != nil {
		return false, err
	}
	return w.footprint+footprint <= w.limit, nil
}

// containsEntry reports whether an entry with the same path was put.
func (w *archiveWriter) containsEntry(entry classpath.Entry) bool {
	_, ok := w.members[entry.Path()]
	return ok
}

// markOversize flags the most recently put entry as the one that took
// the archive over the limit.
func (w *archiveWriter) markOversize() {
	if len(w.entries) > 0 {
		w.entries[len(w.entries)-1].Oversize = true
	}
}

// oversize reports whether the archive exceeds the limit.
func (w *archiveWriter) oversize() bool {
	return w.footprint > w.limit
}

// close finishes the zip stream and renames the temporary file onto
// the destination path. Idempotent. On failure the temporary file is
// removed and the archive is closed anyway.
func (w *archiveWriter) close() error {
	if w.state != stateOpen {
		w.state = stateClosed
		return nil
	}
	w.state = stateClosed
	tmpPath := w.file.Name()

	if err := w.zip.Close(); err != nil {
		w.file.Close()
		os.Remove(tmpPath)
		return &Error{Kind: KindOutputWrite, Path: w.path, Err: fmt.Errorf("finishing archive: %w", err)}
	}
	if err := w.file.Close(); err != nil {
		os.Remove(tmpPath)
		return &Error{Kind: KindOutputWrite, Path: w.path, Err: fmt.Errorf("closing archive: %w", err)}
	}
	// CreateTemp uses 0600; outputs are ordinary build artifacts.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return &Error{Kind: KindOutputWrite, Path: w.path, Err: fmt.Errorf("setting archive mode: %w", err)}
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return &Error{Kind: KindOutputWrite, Path: w.path, Err: fmt.Errorf("renaming archive into place: %w", err)}
	}
	w.committed = true
	return nil
}

// abort discards the archive. Used on fatal error paths; the
// destination path is left untouched.
func (w *archiveWriter) abort() {
	if w.state == stateOpen {
		w.zip.Close()
		w.file.Close()
		os.Remove(w.file.Name())
	}
	w.state = stateClosed
}

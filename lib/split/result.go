// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// EntrySummary is one placed entry.
type EntrySummary struct {
	Path      string `json:"path"`
	Footprint int64  `json:"footprint"`
	Canary    bool   `json:"canary,omitempty"`
	Oversize  bool   `json:"oversize,omitempty"`
}

// ArchiveSummary describes one output archive after it was closed.
type ArchiveSummary struct {
	Path string `json:"path"`

	// Index is the secondary index, 0 for the primary.
	Index int `json:"index"`

	Footprint int64 `json:"footprint"`
	Oversize  bool  `json:"oversize"`

	// Digest is the hex BLAKE3 hash of the archive file.
	Digest string `json:"digest"`

	Entries []EntrySummary `json:"entries"`
}

// Result summarizes a completed split.
type Result struct {
	Limit       int64            `json:"limit"`
	Primary     ArchiveSummary   `json:"primary"`
	Secondaries []ArchiveSummary `json:"secondaries"`

	// Duplicates lists entry paths skipped because an earlier input
	// already supplied them, in traversal order.
	Duplicates []string  `json:"duplicates,omitempty"`
	Warnings   []Warning `json:"warnings,omitempty"`
}

// Archives returns the primary followed by the secondaries.
func (r *Result) Archives() []ArchiveSummary {
	return append([]ArchiveSummary{r.Primary}, r.Secondaries...)
}

func (s *Splitter) buildResult() (*Result, error) {
	primary, err := summarize(s.primary, 0)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Limit:      s.config.Limit,
		Primary:    primary,
		Duplicates: s.duplicates,
		Warnings:   s.warnings,
	}
	for i, archive := range s.secondaries.archives {
		summary, err := summarize(archive, s.secondaries.indexes[i])
		if err != nil {
			return nil, err
		}
		result.Secondaries = append(result.Secondaries, summary)
	}
	return result, nil
}

func summarize(archive *archiveWriter, index int) (ArchiveSummary, error) {
	digest, err := FileDigest(archive.path)
	if err != nil {
		return ArchiveSummary{}, &Error{Kind: KindOutputWrite, Path: archive.path, Err: err}
	}
	summary := ArchiveSummary{
		Path:      archive.path,
		Index:     index,
		Footprint: archive.footprint,
		Oversize:  archive.oversize(),
		Digest:    digest,
		Entries:   make([]EntrySummary, len(archive.entries)),
	}
	for i, entry := range archive.entries {
		summary.Entries[i] = EntrySummary(entry)
	}
	return summary, nil
}

// FileDigest returns the hex BLAKE3 hash of the file at path.
func FileDigest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for digest: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

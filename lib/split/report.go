// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// WarningsFile is the name of the warnings report in the report
// directory.
const WarningsFile = "warnings.txt"

// ManifestName returns the report file name for an archive.
func ManifestName(archivePath string) string {
	return filepath.Base(archivePath) + ".manifest.txt"
}

// writeReports writes one manifest per archive plus the warnings file.
func writeReports(directory string, limit int64, result *Result, archives []*archiveWriter) error {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return &Error{Kind: KindOutputWrite, Path: directory, Err: fmt.Errorf("creating report directory: %w", err)}
	}

	written := make(map[string]string, len(archives))
	for _, archive := range archives {
		name := ManifestName(archive.path)
		if previous, ok := written[name]; ok {
			return &Error{Kind: KindOutputWrite, Path: filepath.Join(directory, name),
				Err: fmt.Errorf("archives %s and %s have the same manifest name", previous, archive.path)}
		}
		written[name] = archive.path

		path := filepath.Join(directory, name)
		if err := os.WriteFile(path, formatManifest(archive, limit), 0o644); err != nil {
			return &Error{Kind: KindOutputWrite, Path: path, Err: fmt.Errorf("writing manifest: %w", err)}
		}
	}

	var warnings bytes.Buffer
	for _, warning := range result.Warnings {
		fmt.Fprintln(&warnings, warning.String())
	}
	path := filepath.Join(directory, WarningsFile)
	if err := os.WriteFile(path, warnings.Bytes(), 0o644); err != nil {
		return &Error{Kind: KindOutputWrite, Path: path, Err: fmt.Errorf("writing warnings: %w", err)}
	}
	return nil
}

func formatManifest(archive *archiveWriter, limit int64) []byte {
	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "# archive: %s\n", filepath.Base(archive.path))
	fmt.Fprintf(&buffer, "# limit: %d\n", limit)
	for _, entry := range archive.entries {
		fmt.Fprintf(&buffer, "%s  %d\n", entry.Path, entry.Footprint)
	}
	fmt.Fprintf(&buffer, "total  %d\n", archive.footprint)
	for _, entry := range archive.entries {
		if entry.Oversize || entry.Footprint > limit {
			fmt.Fprintf(&buffer, "oversize  %s  %d\n", entry.Path, entry.Footprint)
		}
	}
	return buffer.Bytes()
}

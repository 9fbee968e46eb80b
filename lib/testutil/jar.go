// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// fatalHelper is the subset of testing.TB the fixtures need.
type fatalHelper interface {
	Helper()
	Fatalf(format string, args ...any)
}

// JarEntry is one member of a fixture archive.
type JarEntry struct {
	Name string
	Data []byte
}

// WriteJar writes a zip archive at path containing entries in order.
// Parent directories are created as needed.
func WriteJar(t fatalHelper, path string, entries ...JarEntry) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating directory for %s: %v", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)
	for _, entry := range entries {
		member, err := writer.Create(entry.Name)
		if err != nil {
			t.Fatalf("adding %s to %s: %v", entry.Name, path, err)
		}
		if _, err := member.Write(entry.Data); err != nil {
			t.Fatalf("writing %s to %s: %v", entry.Name, path, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("finishing %s: %v", path, err)
	}
}

// ReadJar returns the members of the archive at path in central
// directory order.
func ReadJar(t fatalHelper, path string) []JarEntry {
	t.Helper()
	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer reader.Close()

	entries := make([]JarEntry, 0, len(reader.File))
	for _, file := range reader.File {
		content, err := file.Open()
		if err != nil {
			t.Fatalf("opening %s in %s: %v", file.Name, path, err)
		}
		data, err := io.ReadAll(content)
		content.Close()
		if err != nil {
			t.Fatalf("reading %s in %s: %v", file.Name, path, err)
		}
		entries = append(entries, JarEntry{Name: file.Name, Data: data})
	}
	return entries
}

// JarNames returns the member names of the archive at path in order.
func JarNames(t fatalHelper, path string) []string {
	t.Helper()
	entries := ReadJar(t, path)
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

// WriteTree creates root and writes each file (slash-separated relative
// path to content) beneath it.
func WriteTree(t fatalHelper, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating directory for %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
}

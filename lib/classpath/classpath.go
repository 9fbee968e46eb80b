// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package classpath

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Entry is a single classpath member. Two entries are the same member
// when their paths are equal.
type Entry interface {
	// Path is the slash-separated path relative to the classpath root,
	// e.g. "com/example/Foo.class".
	Path() string

	// Open returns the member's content. The caller closes it.
	Open() (io.ReadCloser, error)
}

// MemoryEntry is an Entry whose content is held in memory. The
// splitter uses it for synthesized canary classes.
type MemoryEntry struct {
	Name string
	Data []byte
}

// Path implements Entry.
func (e *MemoryEntry) Path() string { return e.Name }

// Open implements Entry.
func (e *MemoryEntry) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(e.Data)), nil
}

// zipEntry is a member of an open zip archive.
type zipEntry struct {
	file *zip.File
}

func (e *zipEntry) Path() string                 { return e.file.Name }
func (e *zipEntry) Open() (io.ReadCloser, error) { return e.file.Open() }

// fileEntry is a file on disk exposed under a classpath-relative name.
type fileEntry struct {
	name     string
	diskPath string
}

func (e *fileEntry) Path() string                 { return e.name }
func (e *fileEntry) Open() (io.ReadCloser, error) { return os.Open(e.diskPath) }

// ReadError reports a failure to read an input. Errors returned by a
// visit function pass through Traverse unwrapped, so a ReadError always
// originates from the classpath itself.
type ReadError struct {
	// Input is the classpath input being traversed.
	Input string
	Err   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading classpath input %s: %v", e.Input, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Traverser walks a fixed list of classpath inputs.
type Traverser struct {
	// Inputs are jar/zip archives, directories, or single files.
	// Archives are recognized by extension (.jar, .zip, .apk); any
	// other regular file becomes one entry named by its base name.
	Inputs []string

	// OnDuplicate, if set, is called for every path skipped because an
	// earlier input already supplied it.
	OnDuplicate func(path, input string)
}

// Traverse calls visit for every entry of every input. It stops at the
// first error. Visit errors are returned as-is; input failures are
// returned as *ReadError.
func (t *Traverser) Traverse(visit func(Entry) error) error {
	seen := make(map[string]struct{})
	dispatch := func(input string, entry Entry) error {
		if _, duplicate := seen[entry.Path()]; duplicate {
			if t.OnDuplicate != nil {
				t.OnDuplicate(entry.Path(), input)
			}
			return nil
		}
		seen[entry.Path()] = struct{}{}
		return visit(entry)
	}

	for _, input := range t.Inputs {
		info, err := os.Stat(input)
		if err != nil {
			return &ReadError{Input: input, Err: err}
		}

		switch {
		case info.IsDir():
			err = traverseDirectory(input, func(entry Entry) error { return dispatch(input, entry) })
		case IsArchive(input):
			err = traverseArchive(input, func(entry Entry) error { return dispatch(input, entry) })
		default:
			err = dispatch(input, &fileEntry{name: filepath.Base(input), diskPath: input})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// IsArchive reports whether path names a zip-format archive input.
func IsArchive(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jar", ".zip", ".apk":
		return true
	}
	return false
}

// visitError marks errors produced by the visit callback so directory
// walking can tell them apart from filesystem errors.
type visitError struct{ err error }

func (e visitError) Error() string { return e.err.Error() }

func traverseArchive(input string, visit func(Entry) error) error {
	reader, err := zip.OpenReader(input)
	if err != nil {
		return &ReadError{Input: input, Err: err}
	}
	defer reader.Close()

	for _, file := range reader.File {
		if strings.HasSuffix(file.Name, "/") || file.FileInfo().IsDir() {
			continue
		}
		if err := visit(&zipEntry{file: file}); err != nil {
			return err
		}
	}
	return nil
}

func traverseDirectory(root string, visit func(Entry) error) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if err := visit(&fileEntry{name: filepath.ToSlash(relative), diskPath: path}); err != nil {
			return visitError{err: err}
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if visited, ok := err.(visitError); ok {
		return visited.err
	}
	return &ReadError{Input: root, Err: err}
}

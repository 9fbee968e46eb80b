// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package classpath

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dexsplit/dexsplit/lib/testutil"
)

func collect(t *testing.T, traverser *Traverser) ([]string, map[string]string) {
	t.Helper()
	var paths []string
	contents := make(map[string]string)
	err := traverser.Traverse(func(entry Entry) error {
		paths = append(paths, entry.Path())
		reader, err := entry.Open()
		if err != nil {
			return err
		}
		defer reader.Close()
		data, err := io.ReadAll(reader)
		if err != nil {
			return err
		}
		contents[entry.Path()] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	return paths, contents
}

func TestTraverseOrder(t *testing.T) {
	directory := t.TempDir()
	jarPath := filepath.Join(directory, "lib.jar")
	testutil.WriteJar(t, jarPath,
		testutil.JarEntry{Name: "z/Last.class", Data: []byte("z")},
		testutil.JarEntry{Name: "META-INF/", Data: nil},
		testutil.JarEntry{Name: "a/First.class", Data: []byte("a")},
	)
	classes := filepath.Join(directory, "classes")
	testutil.WriteTree(t, classes, map[string]string{
		"b/B.class":      "b",
		"a/A.class":      "a2",
		"resource.txt":   "text",
		"c/d/Deep.class": "deep",
	})
	loose := filepath.Join(directory, "Loose.class")
	if err := os.WriteFile(loose, []byte("loose"), 0o644); err != nil {
		t.Fatal(err)
	}

	traverser := &Traverser{Inputs: []string{jarPath, classes, loose}}
	paths, contents := collect(t, traverser)

	// Archive members keep central directory order and skip directory
	// members; directories walk lexically.
	want := []string{
		"z/Last.class",
		"a/First.class",
		"a/A.class",
		"b/B.class",
		"c/d/Deep.class",
		"resource.txt",
		"Loose.class",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("traversal order mismatch (-want +got):\n%s", diff)
	}
	if contents["c/d/Deep.class"] != "deep" || contents["Loose.class"] != "loose" {
		t.Errorf("unexpected contents: %v", contents)
	}

	// A second traversal yields the same sequence.
	again, _ := collect(t, traverser)
	if diff := cmp.Diff(paths, again); diff != "" {
		t.Errorf("second traversal differs (-first +second):\n%s", diff)
	}
}

func TestTraverseDuplicatesFirstWins(t *testing.T) {
	directory := t.TempDir()
	first := filepath.Join(directory, "first.jar")
	second := filepath.Join(directory, "second.jar")
	testutil.WriteJar(t, first, testutil.JarEntry{Name: "x/Dup.class", Data: []byte("first")})
	testutil.WriteJar(t, second,
		testutil.JarEntry{Name: "x/Dup.class", Data: []byte("second")},
		testutil.JarEntry{Name: "x/Other.class", Data: []byte("other")},
	)

	var duplicates []string
	traverser := &Traverser{
		Inputs: []string{first, second},
		OnDuplicate: func(path, input string) {
			duplicates = append(duplicates, path+"@"+filepath.Base(input))
		},
	}
	paths, contents := collect(t, traverser)

	if diff := cmp.Diff([]string{"x/Dup.class", "x/Other.class"}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	if contents["x/Dup.class"] != "first" {
		t.Errorf("duplicate resolved to %q, want first", contents["x/Dup.class"])
	}
	if diff := cmp.Diff([]string{"x/Dup.class@second.jar"}, duplicates); diff != "" {
		t.Errorf("duplicates mismatch (-want +got):\n%s", diff)
	}
}

func TestTraverseMissingInput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.jar")
	traverser := &Traverser{Inputs: []string{missing}}
	err := traverser.Traverse(func(Entry) error { return nil })

	var readError *ReadError
	if !errors.As(err, &readError) {
		t.Fatalf("error = %v, want *ReadError", err)
	}
	if readError.Input != missing {
		t.Errorf("ReadError.Input = %q, want %q", readError.Input, missing)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error does not wrap os.ErrNotExist: %v", err)
	}
}

func TestTraverseCorruptArchive(t *testing.T) {
	corrupt := filepath.Join(t.TempDir(), "corrupt.jar")
	if err := os.WriteFile(corrupt, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := (&Traverser{Inputs: []string{corrupt}}).Traverse(func(Entry) error { return nil })
	var readError *ReadError
	if !errors.As(err, &readError) {
		t.Fatalf("error = %v, want *ReadError", err)
	}
}

func TestTraverseVisitErrorPassesThrough(t *testing.T) {
	directory := t.TempDir()
	jarPath := filepath.Join(directory, "a.jar")
	testutil.WriteJar(t, jarPath, testutil.JarEntry{Name: "A.class", Data: []byte("a")})
	classes := filepath.Join(directory, "classes")
	testutil.WriteTree(t, classes, map[string]string{"B.class": "b"})

	sentinel := errors.New("stop")
	for _, input := range []string{jarPath, classes} {
		err := (&Traverser{Inputs: []string{input}}).Traverse(func(Entry) error { return sentinel })
		if err != sentinel {
			t.Errorf("%s: error = %v, want the visit error unchanged", filepath.Base(input), err)
		}
	}
}

func TestMemoryEntry(t *testing.T) {
	entry := &MemoryEntry{Name: "secondary/dex01/Canary.class", Data: []byte{1, 2, 3}}
	reader, err := entry.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()
	data, _ := io.ReadAll(reader)
	if len(data) != 3 || entry.Path() != "secondary/dex01/Canary.class" {
		t.Errorf("MemoryEntry = %q / %v", entry.Path(), data)
	}
}

func TestIsArchive(t *testing.T) {
	for path, want := range map[string]bool{
		"lib.jar":     true,
		"LIB.JAR":     true,
		"bundle.zip":  true,
		"app.apk":     true,
		"Foo.class":   false,
		"classes":     false,
		"archive.tar": false,
	} {
		if got := IsArchive(path); got != want {
			t.Errorf("IsArchive(%q) = %v, want %v", path, got, want)
		}
	}
}

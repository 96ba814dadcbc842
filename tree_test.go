// Copyright 2024 The Vost Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package vost

import (
	"context"
	"errors"
	"testing"
)

func seedWalkFixture(t *testing.T, ctx context.Context, fs Fs) Fs {
	t.Helper()
	var err error
	fs, err = fs.Write(ctx, "top.txt", []byte("top"), "add top")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	fs, err = fs.Write(ctx, "dir/mid.txt", []byte("mid"), "add mid")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	fs, err = fs.Write(ctx, "dir/sub/leaf.txt", []byte("leaf"), "add leaf")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	return fs
}

func TestWalkVisitsEveryEntryDepthFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs = seedWalkFixture(t, ctx, fs)

	var paths []string
	w := fs.Walk("")
	for w.Next() {
		paths = append(paths, w.Info().Path)
	}
	if err := w.Err(); err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := map[string]bool{
		"top.txt":         true,
		"dir":             true,
		"dir/mid.txt":     true,
		"dir/sub":         true,
		"dir/sub/leaf.txt": true,
	}
	if len(paths) != len(want) {
		t.Fatalf("Walk visited %v, want %d entries", paths, len(want))
	}
	for _, p := range paths {
		if !want[p] {
			t.Errorf("Walk visited unexpected path %q", p)
		}
	}
}

func TestWalkSkipDirPrunesSubtree(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs = seedWalkFixture(t, ctx, fs)

	var paths []string
	w := fs.Walk("")
	for w.Next() {
		info := w.Info()
		paths = append(paths, info.Path)
		if info.Path == "dir" {
			w.SkipDir()
		}
	}
	if err := w.Err(); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	for _, p := range paths {
		if p == "dir/mid.txt" || p == "dir/sub" || p == "dir/sub/leaf.txt" {
			t.Errorf("Walk visited %q after SkipDir on its parent", p)
		}
	}
}

func TestWalkScopedToSubdirectory(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs = seedWalkFixture(t, ctx, fs)

	var paths []string
	w := fs.Walk("dir")
	for w.Next() {
		paths = append(paths, w.Info().Path)
	}
	if err := w.Err(); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("Walk(\"dir\") = %v, want 3 entries", paths)
	}
}

func TestWalkOnFileFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs = seedWalkFixture(t, ctx, fs)

	w := fs.Walk("top.txt")
	if w.Next() {
		t.Fatalf("Walk(file) unexpectedly produced an entry")
	}
	if !errors.Is(w.Err(), NotADirectory) {
		t.Errorf("Walk(file) err = %v, want NotADirectory", w.Err())
	}
}

func TestIglobStopsAfterFirstMatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs = seedWalkFixture(t, ctx, fs)

	it := fs.Iglob("**/*.txt")
	if !it.Next() {
		t.Fatalf("Iglob produced no matches: %v", it.Err())
	}
	first := it.Info().Path
	if first == "" {
		t.Errorf("Iglob first match has empty path")
	}
	if err := it.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestIglobInvalidPatternReportsError(t *testing.T) {
	st := newTestStore(t)
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	it := fs.Iglob("[")
	if it.Next() {
		t.Fatalf("Iglob(invalid pattern) unexpectedly matched")
	}
	if it.Err() == nil {
		t.Errorf("Iglob(invalid pattern) Err() = nil, want an error")
	}
}

func TestResolveRootPath(t *testing.T) {
	st := newTestStore(t)
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	info, err := fs.Stat("")
	if err != nil {
		t.Fatalf("Stat(\"\"): %v", err)
	}
	if !info.IsDir() {
		t.Errorf("Stat(\"\").IsDir() = false, want true")
	}
}

func TestResolveThroughFileSegmentFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "a.txt", []byte("x"), "add")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	_, err = fs.Stat("a.txt/nested")
	if !errors.Is(err, NotADirectory) {
		t.Errorf("Stat through a file segment: err = %v, want NotADirectory", err)
	}
}

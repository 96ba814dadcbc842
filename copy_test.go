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
	"os"
	"path/filepath"
	"testing"
)

func TestCopyOutWritesFilesToDisk(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "docs/guide.md", []byte("guide"), "add")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	fs, err = fs.Write(ctx, "docs/sub/deep.md", []byte("deep"), "add")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	dest := t.TempDir()
	report, err := fs.CopyOut(ctx, "docs", dest, SyncOptions{})
	if err != nil {
		t.Fatalf("CopyOut: %v", err)
	}
	if len(report.Copied) != 2 {
		t.Fatalf("Copied = %v, want 2 entries", report.Copied)
	}
	data, err := os.ReadFile(filepath.Join(dest, "docs", "guide.md"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "guide" {
		t.Errorf("guide.md = %q, want %q", data, "guide")
	}
}

func TestCopyOutTrailingSlashCopiesContentsOnly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "docs/guide.md", []byte("guide"), "add")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	dest := t.TempDir()
	if _, err := fs.CopyOut(ctx, "docs/", dest, SyncOptions{}); err != nil {
		t.Fatalf("CopyOut: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "guide.md")); err != nil {
		t.Errorf("expected guide.md directly under dest: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "docs")); err == nil {
		t.Errorf("did not expect a nested docs/ directory under dest")
	}
}

func TestCopyInWritesFilesIntoRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}

	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0o777); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("aaa"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("bbb"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	newFs, report, err := fs.CopyIn(ctx, src, "imported", "import tree", SyncOptions{})
	if err != nil {
		t.Fatalf("CopyIn: %v", err)
	}
	if len(report.Copied) != 2 {
		t.Errorf("Copied = %v, want 2 entries", report.Copied)
	}
	data, err := newFs.Read("imported/sub/b.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "bbb" {
		t.Errorf("Read() = %q, want %q", data, "bbb")
	}
}

func TestSyncInPrunesFilesMissingFromDisk(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "mirror/stale.txt", []byte("old"), "seed")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "fresh.txt"), []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	newFs, _, err := fs.SyncIn(ctx, src, "mirror", "sync", SyncOptions{})
	if err != nil {
		t.Fatalf("SyncIn: %v", err)
	}
	if ok, err := newFs.Exists("mirror/stale.txt"); err != nil || ok {
		t.Errorf("Exists(mirror/stale.txt) = %v, %v; want false, nil", ok, err)
	}
	if ok, err := newFs.Exists("mirror/fresh.txt"); err != nil || !ok {
		t.Errorf("Exists(mirror/fresh.txt) = %v, %v; want true, nil", ok, err)
	}
}

func TestCopyFromRefCopiesAcrossSnapshots(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	main, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	main, err = main.Write(ctx, "release/app.bin", []byte("binary"), "seed release")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	dev, err := st.Branch("dev")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	dev, err = dev.CopyFromRef(ctx, main, "release", "vendored", "vendor release assets")
	if err != nil {
		t.Fatalf("CopyFromRef: %v", err)
	}
	data, err := dev.Read("vendored/app.bin")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "binary" {
		t.Errorf("Read() = %q, want %q", data, "binary")
	}
}

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
	"strings"
	"testing"

	"vost.dev/vost/object"
)

func TestApplyFromStaleSnapshotFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	base, err = base.Write(ctx, "seed.txt", []byte("seed"), "seed")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	stale := base

	advanced, err := base.Write(ctx, "a.txt", []byte("1"), "one")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	tip, _ := advanced.Commit()

	_, err = stale.Write(ctx, "b.txt", []byte("2"), "two")
	if !errors.Is(err, StaleSnapshot) {
		t.Fatalf("Write from stale snapshot: err = %v, want StaleSnapshot", err)
	}

	head, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	headCommit, _ := head.Commit()
	if headCommit != tip {
		t.Errorf("branch moved to %v after failed stale write, want it left at %v", headCommit, tip)
	}
	if ok, err := head.Exists("b.txt"); err != nil || ok {
		t.Errorf("Exists(b.txt) = %v, %v; want false, nil (stale write must not land)", ok, err)
	}
}

func TestRetryWriteRebasesAroundStaleSnapshot(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	stale, err := base.Write(ctx, "seed.txt", []byte("seed"), "seed")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := stale.Write(ctx, "a.txt", []byte("1"), "one"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	result, err := RetryWrite(ctx, func() (Fs, error) {
		fresh, err := stale.Refresh()
		if err != nil {
			return Fs{}, err
		}
		return fresh.Write(ctx, "b.txt", []byte("2"), "two")
	})
	if err != nil {
		t.Fatalf("RetryWrite: %v", err)
	}
	if ok, err := result.Exists("a.txt"); err != nil || !ok {
		t.Errorf("Exists(a.txt) = %v, %v; want true, nil", ok, err)
	}
	if ok, err := result.Exists("b.txt"); err != nil || !ok {
		t.Errorf("Exists(b.txt) = %v, %v; want true, nil", ok, err)
	}
}

func TestApplyReportsModeFlipAsUpdate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "x", []byte("same bytes"), "add")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	fs, err = fs.Apply(ctx, []WriteOp{{Path: "x", Content: []byte("same bytes"), Mode: object.ModeExecutable}}, nil, "flip")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	changes := fs.Changes()
	if len(changes) != 1 || changes[0].Path != "x" || changes[0].Kind != Updated {
		t.Fatalf("Changes() = %+v, want a single Updated change for %q", changes, "x")
	}
	if changes[0].NewMode != object.ModeExecutable {
		t.Errorf("Changes()[0].NewMode = %v, want ModeExecutable", changes[0].NewMode)
	}
}

func TestApplySingleWriteDefaultMessage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "hello.txt", []byte("hi"), "")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasSuffix(fs.Message(), "+ hello.txt") {
		t.Errorf("Message() = %q, want it to end with %q", fs.Message(), "+ hello.txt")
	}
}

func TestApplySingleRemoveDefaultMessage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "gone.txt", []byte("x"), "add")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	fs, err = fs.Remove(ctx, []string{"gone.txt"}, RemoveOptions{})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if fs.Message() != "- gone.txt" {
		t.Errorf("Message() = %q, want %q", fs.Message(), "- gone.txt")
	}
}

func TestApplyNoopProducesEmptyChanges(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "a.txt", []byte("v"), "add")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	before, _ := fs.Commit()

	fs, err = fs.Write(ctx, "a.txt", []byte("v"), "rewrite")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	after, _ := fs.Commit()
	if before != after {
		t.Errorf("no-op write produced a new commit: %v != %v", before, after)
	}
	if fs.Changes() != nil {
		t.Errorf("Changes() = %v, want nil for a no-op write", fs.Changes())
	}
	if fs.Message() != "" {
		t.Errorf("Message() = %q, want empty for a no-op write", fs.Message())
	}
}

func TestRemoveDirectoryWithoutRecursiveFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "dir/a.txt", []byte("x"), "add")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := fs.Remove(ctx, []string{"dir"}, RemoveOptions{}); !errors.Is(err, IsADirectory) {
		t.Errorf("Remove(dir) without Recursive: err = %v, want IsADirectory", err)
	}
	if ok, err := fs.Exists("dir/a.txt"); err != nil || !ok {
		t.Errorf("Exists(dir/a.txt) after rejected remove = %v, %v; want true, nil", ok, err)
	}

	fs, err = fs.Remove(ctx, []string{"dir"}, RemoveOptions{Recursive: true})
	if err != nil {
		t.Fatalf("Remove with Recursive: %v", err)
	}
	if ok, err := fs.Exists("dir"); err != nil || ok {
		t.Errorf("Exists(dir) after recursive remove = %v, %v; want false, nil", ok, err)
	}
}

func TestRemoveDryRunDoesNotCommit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	fs, err = fs.Write(ctx, "f.txt", []byte("x"), "add")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	before, _ := fs.Commit()

	preview, err := fs.Remove(ctx, []string{"f.txt"}, RemoveOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Remove dry-run: %v", err)
	}
	after, _ := preview.Commit()
	if before != after {
		t.Errorf("dry-run Remove advanced the commit: %v != %v", before, after)
	}
	if len(preview.Changes()) != 1 || preview.Changes()[0].Kind != Deleted {
		t.Errorf("Changes() = %+v, want a single Deleted change", preview.Changes())
	}
	if ok, err := fs.Exists("f.txt"); err != nil || !ok {
		t.Errorf("Exists(f.txt) after dry-run remove = %v, %v; want true, nil", ok, err)
	}
}

func TestApplyUnknownPlaceholderFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fs, err := st.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	_, err = fs.Write(ctx, "f.txt", []byte("x"), "oops {nonsense}")
	if err == nil {
		t.Fatalf("Write with an unknown placeholder succeeded, want an error")
	}
}

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
	"errors"
	"testing"

	"vost.dev/vost/githash"
	"vost.dev/vost/object"
)

func (st *Store) blobID(t *testing.T, content []byte) githash.SHA1 {
	t.Helper()
	id, err := st.writeObject(object.TypeBlob, content)
	if err != nil {
		t.Fatalf("writeObject: %v", err)
	}
	return id
}

func TestBuildTreeWritesNestedPaths(t *testing.T) {
	st := newTestStore(t)
	blob := st.blobID(t, []byte("hello"))

	root, changed, err := st.buildTree(emptyTreeID, []treeWrite{
		{path: "a/b/c.txt", mode: object.ModePlain, blob: blob},
	}, nil, true)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}
	if !changed {
		t.Fatalf("buildTree: changed = false, want true")
	}

	info, err := st.resolve(root, "a/b/c.txt")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.ID != blob {
		t.Errorf("resolve(a/b/c.txt).ID = %v, want %v", info.ID, blob)
	}
}

func TestBuildTreeIdenticalContentIsNotChanged(t *testing.T) {
	st := newTestStore(t)
	blob := st.blobID(t, []byte("same"))

	base, _, err := st.buildTree(emptyTreeID, []treeWrite{
		{path: "f.txt", mode: object.ModePlain, blob: blob},
	}, nil, true)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}

	result, changed, err := st.buildTree(base, []treeWrite{
		{path: "f.txt", mode: object.ModePlain, blob: blob},
	}, nil, true)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}
	if changed {
		t.Errorf("buildTree: changed = true for a rewrite of identical content")
	}
	if result != base {
		t.Errorf("buildTree result = %v, want unchanged base %v", result, base)
	}
}

func TestBuildTreeWriteOverDirectoryFails(t *testing.T) {
	st := newTestStore(t)
	blob := st.blobID(t, []byte("x"))

	base, _, err := st.buildTree(emptyTreeID, []treeWrite{
		{path: "a/b.txt", mode: object.ModePlain, blob: blob},
	}, nil, true)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}

	_, _, err = st.buildTree(base, []treeWrite{
		{path: "a", mode: object.ModePlain, blob: blob},
	}, nil, true)
	if !errors.Is(err, IsADirectory) {
		t.Errorf("buildTree writing over a directory: err = %v, want IsADirectory", err)
	}
}

func TestBuildTreeRemoveCollapsesEmptyParent(t *testing.T) {
	st := newTestStore(t)
	blob := st.blobID(t, []byte("x"))

	base, _, err := st.buildTree(emptyTreeID, []treeWrite{
		{path: "dir/only.txt", mode: object.ModePlain, blob: blob},
	}, nil, true)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}

	result, changed, err := st.buildTree(base, nil, []string{"dir/only.txt"}, true)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}
	if !changed {
		t.Errorf("buildTree: changed = false, want true")
	}
	if result != emptyTreeID {
		t.Errorf("buildTree result = %v, want empty tree %v", result, emptyTreeID)
	}
}

func TestBuildTreeRemoveDirectoryWithoutRecursiveFails(t *testing.T) {
	st := newTestStore(t)
	blob := st.blobID(t, []byte("x"))

	base, _, err := st.buildTree(emptyTreeID, []treeWrite{
		{path: "dir/a.txt", mode: object.ModePlain, blob: blob},
		{path: "dir/b.txt", mode: object.ModePlain, blob: blob},
	}, nil, true)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}

	if _, _, err := st.buildTree(base, nil, []string{"dir"}, false); !errors.Is(err, IsADirectory) {
		t.Errorf("buildTree non-recursive remove of a directory: err = %v, want IsADirectory", err)
	}

	result, changed, err := st.buildTree(base, nil, []string{"dir"}, true)
	if err != nil {
		t.Fatalf("buildTree recursive remove: %v", err)
	}
	if !changed {
		t.Errorf("buildTree: changed = false, want true")
	}
	if result != emptyTreeID {
		t.Errorf("buildTree result = %v, want empty tree %v", result, emptyTreeID)
	}
}

func TestBuildTreeRemoveMissingPathIsNoop(t *testing.T) {
	st := newTestStore(t)
	result, changed, err := st.buildTree(emptyTreeID, nil, []string{"nope/nothing.txt"}, true)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}
	if changed {
		t.Errorf("buildTree: changed = true removing an absent path")
	}
	if result != emptyTreeID {
		t.Errorf("buildTree result = %v, want unchanged empty tree", result)
	}
}

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
	"fmt"
	"sort"

	"vost.dev/vost/githash"
	"vost.dev/vost/object"
	"vost.dev/vost/pathutil"
)

// treeWrite is a single resolved write: a path, its mode, and the already
// hashed-and-stored blob it should point to.
type treeWrite struct {
	path string
	mode object.Mode
	blob githash.SHA1
}

// node is one directory or file in the in-memory tree under construction.
// Directory nodes lazily load their children from the base tree the first
// time something touches them; file nodes are leaves.
type node struct {
	mode     object.Mode
	id       githash.SHA1 // blob hash (file) or tree hash (dir); valid when !dirty
	children map[string]*node
	dirty    bool
}

func (n *node) isDir() bool { return n.mode.IsDir() }

func (st *Store) ensureChildren(n *node) error {
	if n.children != nil {
		return nil
	}
	tree, err := st.loadTree(n.id)
	if err != nil {
		return err
	}
	n.children = make(map[string]*node, len(tree))
	for _, ent := range tree {
		n.children[ent.Name] = &node{mode: ent.Mode, id: ent.ObjectID}
	}
	return nil
}

// buildTree applies writes and removes on top of the tree rooted at base,
// returning the hash of the resulting tree and whether anything actually
// changed (a false changed with a nil error means every write/remove was
// either a no-op or reproduced content already present).
func (st *Store) buildTree(base githash.SHA1, writes []treeWrite, removes []string, recursive bool) (result githash.SHA1, changed bool, err error) {
	root := &node{mode: object.ModeDir, id: base}

	for _, w := range writes {
		if err := st.applyWrite(root, w); err != nil {
			return githash.SHA1{}, false, err
		}
	}
	for _, p := range removes {
		if err := st.applyRemove(root, p, recursive); err != nil {
			return githash.SHA1{}, false, err
		}
	}

	if !root.dirty {
		return base, false, nil
	}
	newID, err := st.serialize(root)
	if err != nil {
		return githash.SHA1{}, false, err
	}
	return newID, newID != base, nil
}

func (st *Store) applyWrite(root *node, w treeWrite) error {
	segs := pathutil.Segments(w.path)
	if len(segs) == 0 {
		return fmt.Errorf("vost: write %q: %w: cannot write the repository root", w.path, InvalidPath)
	}
	path := []*node{root}
	cur := root
	for i, seg := range segs {
		if err := st.ensureChildren(cur); err != nil {
			return err
		}
		last := i == len(segs)-1
		child, exists := cur.children[seg]
		if last {
			if exists && child.isDir() {
				return fmt.Errorf("vost: write %q: %w", w.path, IsADirectory)
			}
			cur.children[seg] = &node{mode: w.mode, id: w.blob, dirty: true}
			break
		}
		if !exists {
			child = &node{mode: object.ModeDir, children: map[string]*node{}}
			cur.children[seg] = child
		} else if !child.isDir() {
			return fmt.Errorf("vost: write %q: %w: %q is a file", w.path, NotADirectory, joinSegs(segs[:i+1]))
		}
		path = append(path, child)
		cur = child
	}
	for _, n := range path {
		n.dirty = true
	}
	return nil
}

func (st *Store) applyRemove(root *node, rawPath string, recursive bool) error {
	path, err := pathutil.Clean(rawPath)
	if err != nil {
		return fmt.Errorf("vost: remove %q: %w", rawPath, err)
	}
	segs := pathutil.Segments(path)
	if len(segs) == 0 {
		return fmt.Errorf("vost: remove %q: %w: cannot remove the repository root", rawPath, InvalidPath)
	}
	ancestors := []*node{root}
	cur := root
	for i, seg := range segs {
		if err := st.ensureChildren(cur); err != nil {
			return err
		}
		last := i == len(segs)-1
		child, exists := cur.children[seg]
		if !exists {
			return nil // already absent: removing is a no-op
		}
		if last {
			if child.isDir() && !recursive {
				return fmt.Errorf("vost: remove %q: %w", rawPath, IsADirectory)
			}
			delete(cur.children, seg)
			for _, n := range ancestors {
				n.dirty = true
			}
			return nil
		}
		if !child.isDir() {
			return nil // parent segment is a file, so path can't exist either
		}
		ancestors = append(ancestors, child)
		cur = child
	}
	return nil
}

func (st *Store) serialize(n *node) (githash.SHA1, error) {
	if !n.dirty {
		return n.id, nil
	}
	if !n.isDir() {
		n.dirty = false
		return n.id, nil
	}
	if err := st.ensureChildren(n); err != nil {
		return githash.SHA1{}, err
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	tree := make(object.Tree, 0, len(names))
	for _, name := range names {
		child := n.children[name]
		id, err := st.serialize(child)
		if err != nil {
			return githash.SHA1{}, err
		}
		if child.isDir() && id == emptyTreeID {
			continue // an emptied subdirectory is dropped from its parent
		}
		tree = append(tree, &object.TreeEntry{Name: name, Mode: child.mode, ObjectID: id})
	}
	if err := tree.Sort(); err != nil {
		return githash.SHA1{}, fmt.Errorf("vost: build tree: %w: %v", Git, err)
	}

	if len(tree) == 0 {
		n.id = emptyTreeID
		n.dirty = false
		return n.id, nil
	}
	data, err := tree.MarshalBinary()
	if err != nil {
		return githash.SHA1{}, fmt.Errorf("vost: build tree: %w: %v", Git, err)
	}
	id, err := st.writeObject(object.TypeTree, data)
	if err != nil {
		return githash.SHA1{}, err
	}
	n.id = id
	n.dirty = false
	return n.id, nil
}

// writeObject writes a single loose object of the given type and returns
// its hash.
func (st *Store) writeObject(typ object.Type, data []byte) (githash.SHA1, error) {
	w, err := st.objects.WriteObject(object.Prefix{Type: typ, Size: int64(len(data))})
	if err != nil {
		return githash.SHA1{}, fmt.Errorf("vost: write %s: %w", typ, wrapStoreErr(err))
	}
	if _, err := w.Write(data); err != nil {
		return githash.SHA1{}, fmt.Errorf("vost: write %s: %w", typ, wrapStoreErr(err))
	}
	id, err := w.FinishObject()
	if err != nil {
		return githash.SHA1{}, fmt.Errorf("vost: write %s: %w", typ, wrapStoreErr(err))
	}
	return id, nil
}

func joinSegs(segs []string) string {
	return pathutil.Join(segs...)
}

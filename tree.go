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
	"strings"

	"vost.dev/vost/githash"
	"vost.dev/vost/gitglob"
	"vost.dev/vost/object"
	"vost.dev/vost/pathutil"
)

// Info describes a single entry resolved from a tree: a file, directory, or
// symlink.
type Info struct {
	Path string
	Mode object.Mode
	ID   githash.SHA1
	Size int64 // blob size for regular files and symlinks; -1 for directories (0 for the root itself), never an entry count
}

// IsDir reports whether the entry is a directory.
func (i Info) IsDir() bool { return i.Mode.IsDir() }

var emptyTreeID = object.Tree(nil).SHA1()

func (st *Store) loadTree(id githash.SHA1) (object.Tree, error) {
	if id == emptyTreeID || id == (githash.SHA1{}) {
		return nil, nil
	}
	prefix, data, err := st.objects.ReadObject(id)
	if err != nil {
		return nil, fmt.Errorf("vost: load tree %v: %w", id, wrapStoreErr(err))
	}
	if prefix.Type != object.TypeTree {
		return nil, fmt.Errorf("vost: load tree %v: %w: object is a %s", id, Git, prefix.Type)
	}
	tree, err := object.ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("vost: load tree %v: %w: %v", id, Git, err)
	}
	return tree, nil
}

// resolve walks path (already Clean'd) from root, returning the entry it
// names. Path "" resolves to the root directory itself.
func (st *Store) resolve(root githash.SHA1, path string) (Info, error) {
	if path == "" {
		return Info{Path: "", Mode: object.ModeDir, ID: root}, nil
	}
	segs := pathutil.Segments(path)
	curTree, curID := root, root
	for i, seg := range segs {
		tree, err := st.loadTree(curTree)
		if err != nil {
			return Info{}, err
		}
		ent := tree.Search(seg)
		if ent == nil {
			return Info{}, fmt.Errorf("vost: resolve %q: %w", path, NotFound)
		}
		last := i == len(segs)-1
		if !last {
			if !ent.Mode.IsDir() {
				return Info{}, fmt.Errorf("vost: resolve %q: %w: %q is not a directory", path, NotADirectory, strings.Join(segs[:i+1], "/"))
			}
			curTree = ent.ObjectID
			curID = ent.ObjectID
			continue
		}
		curID = ent.ObjectID
		size := int64(-1)
		if !ent.Mode.IsDir() {
			prefix, _, err := st.objects.ReadObject(ent.ObjectID)
			if err == nil {
				size = prefix.Size
			}
		}
		return Info{Path: path, Mode: ent.Mode, ID: curID, Size: size}, nil
	}
	return Info{Path: path, Mode: object.ModeDir, ID: curID}, nil
}

func (st *Store) listdir(root githash.SHA1, path string) ([]Info, error) {
	info, err := st.resolve(root, path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vost: listdir %q: %w", path, NotADirectory)
	}
	tree, err := st.loadTree(info.ID)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(tree))
	for _, ent := range tree {
		size := int64(-1)
		if !ent.Mode.IsDir() {
			prefix, _, err := st.objects.ReadObject(ent.ObjectID)
			if err == nil {
				size = prefix.Size
			}
		}
		out = append(out, Info{Path: pathutil.Join(path, ent.Name), Mode: ent.Mode, ID: ent.ObjectID, Size: size})
	}
	return out, nil
}

func (st *Store) readBlob(id githash.SHA1) ([]byte, error) {
	prefix, data, err := st.objects.ReadObject(id)
	if err != nil {
		return nil, fmt.Errorf("vost: read blob %v: %w", id, wrapStoreErr(err))
	}
	if prefix.Type != object.TypeBlob {
		return nil, fmt.Errorf("vost: read blob %v: %w: object is a %s", id, Git, prefix.Type)
	}
	return data, nil
}

// Walker is a non-restartable, pull-style iterator over every entry in a
// subtree, grounded in the same Next/Err/Close shape the teacher uses for
// its commit log iterator.
type Walker struct {
	st      *Store
	stack   []walkFrame
	cur     Info
	err     error
	done    bool
	skipDir bool
}

type walkFrame struct {
	entries []Info
	i       int
}

// Walk returns an iterator over every file, directory, and symlink at or
// below path, in depth-first, lexical order. The root itself is not
// visited; only its descendants are.
func (fs Fs) Walk(root string) *Walker {
	root, err := pathutil.Clean(root)
	if err != nil {
		return &Walker{err: fmt.Errorf("vost: walk %q: %w", root, err), done: true}
	}
	entries, err := fs.store.listdir(fs.tree, root)
	if err != nil {
		return &Walker{err: err, done: true}
	}
	sortInfos(entries)
	return &Walker{st: fs.store, stack: []walkFrame{{entries: entries}}}
}

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
}

// Next advances the walker to the next entry, returning false when there
// are no more entries or an error occurred (distinguish the two with Err).
func (w *Walker) Next() bool {
	if w.done {
		return false
	}
	// Descend into the directory returned by the previous call, unless the
	// caller pruned it with SkipDir in between.
	if w.cur.IsDir() && !w.skipDir {
		children, err := w.st.listdir(w.cur.ID, "")
		if err != nil {
			w.err = err
			w.done = true
			return false
		}
		for i := range children {
			children[i].Path = pathutil.Join(w.cur.Path, children[i].Path)
		}
		sortInfos(children)
		w.stack = append(w.stack, walkFrame{entries: children})
	}
	w.skipDir = false
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.i >= len(top.entries) {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		w.cur = top.entries[top.i]
		top.i++
		return true
	}
	w.done = true
	return false
}

// SkipDir instructs the walker not to descend into the directory most
// recently returned by Next. It is a no-op if the current entry is not a
// directory.
func (w *Walker) SkipDir() {
	w.skipDir = true
}

// Info returns the entry most recently returned by Next.
func (w *Walker) Info() Info {
	return w.cur
}

// Err returns the first error encountered during the walk, if any.
func (w *Walker) Err() error {
	return w.err
}

// Close releases any resources held by the walker. It is always safe to
// call and always returns nil; it exists so Walker can be used the same way
// as other vost iterators.
func (w *Walker) Close() error {
	w.done = true
	return nil
}

// Glob returns every path in the snapshot matching pattern, in Walk order.
// Glob is pure and restartable, unlike Walk: it fully traverses the tree
// before returning.
func (fs Fs) Glob(pattern string) ([]string, error) {
	g, err := gitglob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("vost: glob %q: %w", pattern, err)
	}
	var out []string
	w := fs.Walk("")
	for w.Next() {
		info := w.Info()
		if g.MatchString(info.Path) {
			out = append(out, info.Path)
		}
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Iglob is the iterator form of Glob: it matches entries lazily as the
// underlying walk proceeds, so a caller that only needs the first few
// matches doesn't pay for a full tree traversal.
type Iglob struct {
	w    *Walker
	g    *gitglob.Glob
	cur  Info
	gerr error
}

// Iglob returns a lazy iterator over the paths in the snapshot matching
// pattern.
func (fs Fs) Iglob(pattern string) *Iglob {
	g, err := gitglob.Compile(pattern)
	if err != nil {
		return &Iglob{gerr: fmt.Errorf("vost: iglob %q: %w", pattern, err)}
	}
	return &Iglob{w: fs.Walk(""), g: g}
}

// Next advances to the next matching entry.
func (it *Iglob) Next() bool {
	if it.gerr != nil || it.w == nil {
		return false
	}
	for it.w.Next() {
		info := it.w.Info()
		if it.g.MatchString(info.Path) {
			it.cur = info
			return true
		}
	}
	return false
}

// Info returns the entry most recently returned by Next.
func (it *Iglob) Info() Info { return it.cur }

// Err returns the first error encountered, if any.
func (it *Iglob) Err() error {
	if it.gerr != nil {
		return it.gerr
	}
	if it.w == nil {
		return nil
	}
	return it.w.Err()
}

// Close releases resources held by the iterator.
func (it *Iglob) Close() error {
	if it.w != nil {
		return it.w.Close()
	}
	return nil
}

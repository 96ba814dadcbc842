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

// Package vost implements a versioned object store: a filesystem-like API
// layered over a bare Git object database, where every mutation produces a
// new, immutable commit rather than modifying anything in place.
package vost

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vost.dev/vost/githash"
	"vost.dev/vost/lock"
	"vost.dev/vost/object"
	"vost.dev/vost/objstore"
)

// Store is a handle to a repository rooted at a directory on disk. A Store
// is safe for concurrent use by multiple goroutines, and by design is also
// safe for concurrent use by multiple processes pointed at the same
// repository directory: every mutation is serialized through an advisory
// lock and compare-and-swap ref updates.
type Store struct {
	dir     string
	objects objstore.Dir
	refs    objstore.Refs
	lock    *lock.Lock
	cfg     config
}

// Open opens (creating if necessary) the repository rooted at dir. dir is
// a bare repository layout with no working tree: Open creates "objects" and
// HEAD, and the "refs" and "logs" subdirectories appear with the first ref
// update.
func Open(dir string, opts ...Option) (*Store, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("vost: open %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o777); err != nil {
		return nil, fmt.Errorf("vost: open %s: %w", dir, err)
	}

	objDir := objstore.Dir(filepath.Join(abs, "objects"))
	if err := objDir.Init(); err != nil {
		return nil, fmt.Errorf("vost: open %s: %w", dir, err)
	}
	l, err := lock.For(abs)
	if err != nil {
		return nil, fmt.Errorf("vost: open %s: %w", dir, err)
	}

	st := &Store{
		dir:     abs,
		objects: objDir,
		refs:    objstore.Refs(abs),
		lock:    l,
		cfg:     cfg,
	}

	if _, ok, err := st.refs.ReadSymref(githash.Head); err != nil {
		return nil, fmt.Errorf("vost: open %s: %w", dir, err)
	} else if !ok {
		if err := st.refs.SetSymref(githash.Head, cfg.defaultBranchRef()); err != nil {
			return nil, fmt.Errorf("vost: open %s: %w", dir, err)
		}
	}
	st.cfg.log.WithField("path", abs).Debug("vost: opened repository")
	return st, nil
}

// Dir returns the repository's root directory.
func (st *Store) Dir() string { return st.dir }

// Head returns the snapshot that HEAD currently points to.
func (st *Store) Head() (Fs, error) {
	target, direct, ok, err := st.refs.ReadSymref(githash.Head)
	if err != nil {
		return Fs{}, fmt.Errorf("vost: head: %w", err)
	}
	if !ok {
		return Fs{}, fmt.Errorf("vost: head: %w", NotFound)
	}
	if direct {
		// HEAD detached onto a raw commit ID, not a branch.
		id, err := githash.ParseSHA1(string(target))
		if err != nil {
			return Fs{}, fmt.Errorf("vost: head: %w", err)
		}
		return st.fsForCommit(id, "", false)
	}
	return st.fsForRef(target, true)
}

// SetHead points HEAD at branch, the way a "checkout" would. branch must
// already exist.
func (st *Store) SetHead(branch string) error {
	ref := githash.BranchRef(branch)
	if _, ok, err := st.refs.GetRef(ref); err != nil {
		return fmt.Errorf("vost: set head: %w", err)
	} else if !ok {
		return fmt.Errorf("vost: set head %s: %w", branch, NotFound)
	}
	if err := st.refs.SetSymref(githash.Head, ref); err != nil {
		return fmt.Errorf("vost: set head: %w", err)
	}
	return nil
}

// Branch returns the snapshot at the tip of the named branch.
func (st *Store) Branch(name string) (Fs, error) {
	return st.fsForRef(githash.BranchRef(name), true)
}

// Tag returns the (read-only) snapshot that the named tag points to.
// Annotated tag objects are dereferenced to the commit they point to.
func (st *Store) Tag(name string) (Fs, error) {
	return st.fsForRef(githash.TagRef(name), false)
}

// AtCommit returns a detached, writable snapshot of the given commit. The
// returned Fs is not tied to any ref; Apply on it builds new commits that
// are only reachable once the caller assigns them to a ref via RefDict.
func (st *Store) AtCommit(id githash.SHA1) (Fs, error) {
	return st.fsForCommit(id, "", true)
}

// Refs returns the RefDict for the branches and tags in this repository.
func (st *Store) Refs() *RefDict {
	return &RefDict{store: st}
}

// Notes returns the notes subsystem for the given namespace (e.g.
// "commits" for the conventional refs/notes/commits).
func (st *Store) Notes(namespace string) *Notes {
	return &Notes{store: st, namespace: namespace}
}

func (st *Store) fsForRef(ref githash.Ref, writable bool) (Fs, error) {
	id, ok, err := st.refs.GetRef(ref)
	if err != nil {
		return Fs{}, fmt.Errorf("vost: resolve %s: %w", ref, err)
	}
	if !ok {
		return st.emptyFs(ref, writable), nil
	}
	return st.fsForCommit(id, ref, writable)
}

func (st *Store) emptyFs(ref githash.Ref, writable bool) Fs {
	return Fs{store: st, ref: ref, writable: writable}
}

func (st *Store) fsForCommit(id githash.SHA1, ref githash.Ref, writable bool) (Fs, error) {
	commit, err := st.loadCommit(id)
	if err != nil {
		return Fs{}, err
	}
	return Fs{
		store:     st,
		ref:       ref,
		hasCommit: true,
		commit:    id,
		tree:      commit.Tree,
		writable:  writable,
	}, nil
}

func (st *Store) loadCommit(id githash.SHA1) (*object.Commit, error) {
	prefix, data, err := st.objects.ReadObject(id)
	if err != nil {
		return nil, fmt.Errorf("vost: load commit %v: %w", id, wrapStoreErr(err))
	}
	if prefix.Type == object.TypeTag {
		tag, err := object.ParseTag(data)
		if err != nil {
			return nil, fmt.Errorf("vost: load commit %v: %w: %v", id, Git, err)
		}
		return st.loadCommit(tag.ObjectID)
	}
	if prefix.Type != object.TypeCommit {
		return nil, fmt.Errorf("vost: load commit %v: %w: object is a %s", id, Git, prefix.Type)
	}
	c, err := object.ParseCommit(data)
	if err != nil {
		return nil, fmt.Errorf("vost: load commit %v: %w: %v", id, Git, err)
	}
	return c, nil
}

func (st *Store) withLock(ctx context.Context, fn func() error) error {
	unlock, err := st.lock.Lock(ctx)
	if err != nil {
		return fmt.Errorf("vost: %w", err)
	}
	defer unlock()
	return fn()
}

func wrapStoreErr(err error) error {
	if errors.Is(err, objstore.ErrNotFound) {
		return fmt.Errorf("%w: %v", NotFound, err)
	}
	return fmt.Errorf("%w: %v", Io, err)
}

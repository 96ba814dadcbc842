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
	"fmt"

	"vost.dev/vost/githash"
	"vost.dev/vost/object"
	"vost.dev/vost/pathutil"
)

// Fs is an immutable snapshot of a repository's file tree: either the tip
// of a branch (ref != ""), a detached view of one historical commit, or
// (for a brand-new repository with no commits yet) the empty tree.
//
// Every mutating method returns a new Fs rather than modifying the receiver
// in place; the Fs a caller is holding never changes underneath them.
type Fs struct {
	store     *Store
	ref       githash.Ref // "" if detached from any ref
	hasCommit bool
	commit    githash.SHA1
	tree      githash.SHA1
	writable  bool

	// message and lastChanges describe the commit_apply call that produced
	// this snapshot; both are empty on a snapshot obtained by any other
	// means (Head, Tag, Refresh, ...).
	message     string
	lastChanges []Change
}

// Store returns the Store this snapshot belongs to.
func (fs Fs) Store() *Store { return fs.store }

// Ref returns the ref this snapshot tracks, and whether it tracks one at
// all. A detached snapshot (ok == false) never advances: Apply on it
// produces a new commit that is not reachable from any ref until the
// caller assigns it with RefDict.Set.
func (fs Fs) Ref() (ref githash.Ref, ok bool) {
	return fs.ref, fs.ref != ""
}

// Commit returns the commit this snapshot is based on, and whether it is
// based on a commit at all (a brand-new repository's Fs has none).
func (fs Fs) Commit() (id githash.SHA1, ok bool) {
	return fs.commit, fs.hasCommit
}

// Tree returns the hash of the root tree object this snapshot reads from.
func (fs Fs) Tree() githash.SHA1 { return fs.tree }

// Writable reports whether Apply and the other mutating methods may be
// called on this snapshot. Tag-backed snapshots are never writable.
func (fs Fs) Writable() bool { return fs.writable }

// Message returns the commit message the write that produced this snapshot
// used, or "" if this Fs did not come from a write.
func (fs Fs) Message() string { return fs.message }

// Changes returns the add/update/delete report for the write that produced
// this snapshot, or nil if this Fs did not come from a write or that write
// was a true no-op.
func (fs Fs) Changes() []Change { return fs.lastChanges }

// Refresh re-reads the ref this snapshot tracks and returns a new Fs
// reflecting its current value. Calling Refresh on a detached snapshot
// returns the receiver unchanged.
func (fs Fs) Refresh() (Fs, error) {
	if fs.ref == "" {
		return fs, nil
	}
	return fs.store.fsForRef(fs.ref, fs.writable)
}

// Stat resolves path and returns its metadata.
func (fs Fs) Stat(path string) (Info, error) {
	clean, err := pathutil.Clean(path)
	if err != nil {
		return Info{}, fmt.Errorf("vost: stat %q: %w", path, err)
	}
	return fs.store.resolve(fs.tree, clean)
}

// ListDir lists the immediate children of the directory named by path.
func (fs Fs) ListDir(path string) ([]Info, error) {
	clean, err := pathutil.Clean(path)
	if err != nil {
		return nil, fmt.Errorf("vost: listdir %q: %w", path, err)
	}
	entries, err := fs.store.listdir(fs.tree, clean)
	if err != nil {
		return nil, err
	}
	sortInfos(entries)
	return entries, nil
}

// Read returns the full contents of the file or symlink target at path.
func (fs Fs) Read(path string) ([]byte, error) {
	clean, err := pathutil.Clean(path)
	if err != nil {
		return nil, fmt.Errorf("vost: read %q: %w", path, err)
	}
	info, err := fs.store.resolve(fs.tree, clean)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("vost: read %q: %w", path, IsADirectory)
	}
	return fs.store.readBlob(info.ID)
}

// ReadRange returns up to size bytes starting at offset within the file at
// path. Because the object store only exposes whole objects, ReadRange
// loads the full blob and slices it in memory; callers working with very
// large files should prefer streaming via Store's lower-level object
// access instead.
func (fs Fs) ReadRange(path string, offset, size int64) ([]byte, error) {
	data, err := fs.Read(path)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset > int64(len(data)) {
		return nil, fmt.Errorf("vost: read %q: offset %d out of range", path, offset)
	}
	end := offset + size
	if size < 0 || end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[offset:end], nil
}

// ReadLink returns the target of the symlink at path.
func (fs Fs) ReadLink(path string) (string, error) {
	clean, err := pathutil.Clean(path)
	if err != nil {
		return "", fmt.Errorf("vost: readlink %q: %w", path, err)
	}
	info, err := fs.store.resolve(fs.tree, clean)
	if err != nil {
		return "", err
	}
	if info.Mode != object.ModeSymlink {
		return "", fmt.Errorf("vost: readlink %q: not a symlink", path)
	}
	data, err := fs.store.readBlob(info.ID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Exists reports whether path resolves to anything.
func (fs Fs) Exists(path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func isNotFound(err error) bool {
	return errors.Is(err, NotFound)
}

// Copyright 2021 The gg Authors
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

package objstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vost.dev/vost/githash"
)

// ErrRefConflict is wrapped by the error returned from SetRefCAS and
// DeleteRefCAS when the ref's current value doesn't match the caller's
// expectation.
var ErrRefConflict = errors.New("ref compare-and-swap conflict")

// Refs stores loose refs and HEAD for a repository rooted at dir (the
// top-level repository directory, the parent of "objects" and "refs").
type Refs string

func (r Refs) refPath(name githash.Ref) string {
	return filepath.Join(string(r), filepath.FromSlash(string(name)))
}

// GetRef returns the object ID that name points to, or ok == false if the
// ref does not exist. GetRef does not resolve symrefs other than HEAD.
func (r Refs) GetRef(name githash.Ref) (id githash.SHA1, ok bool, err error) {
	if name == githash.Head {
		return r.resolveHead()
	}
	data, err := os.ReadFile(r.refPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return githash.SHA1{}, false, nil
		}
		return githash.SHA1{}, false, fmt.Errorf("objstore: get ref %s: %w", name, err)
	}
	id, err = githash.ParseSHA1(strings.TrimSpace(string(data)))
	if err != nil {
		return githash.SHA1{}, false, fmt.Errorf("objstore: get ref %s: %w", name, err)
	}
	return id, true, nil
}

func (r Refs) resolveHead() (githash.SHA1, bool, error) {
	target, direct, ok, err := r.ReadSymref(githash.Head)
	if err != nil {
		return githash.SHA1{}, false, err
	}
	if !ok {
		return githash.SHA1{}, false, nil
	}
	if direct {
		id, err := githash.ParseSHA1(string(target))
		if err != nil {
			return githash.SHA1{}, false, fmt.Errorf("objstore: resolve HEAD: %w", err)
		}
		return id, true, nil
	}
	return r.GetRef(target)
}

// ReadSymref reads the ref file at name. If it holds a "ref: <target>"
// symbolic reference (as HEAD normally does), it returns the target ref name
// with direct == false. If it holds a plain object ID, it checks that the ID
// parses as a SHA1 and returns its hex text as target with direct == true,
// to save the caller a redundant re-read in the common case of resolving
// HEAD.
func (r Refs) ReadSymref(name githash.Ref) (target githash.Ref, direct bool, ok bool, err error) {
	data, err := os.ReadFile(r.refPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, false, nil
		}
		return "", false, false, fmt.Errorf("objstore: read symref %s: %w", name, err)
	}
	line := strings.TrimSpace(string(data))
	if rest, isSym := cutPrefix(line, "ref: "); isSym {
		return githash.Ref(rest), false, true, nil
	}
	if _, err := githash.ParseSHA1(line); err != nil {
		return "", false, false, fmt.Errorf("objstore: read symref %s: %w", name, err)
	}
	return githash.Ref(line), true, true, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// SetSymref makes name a symbolic ref pointing at target (used to point HEAD
// at the current branch). It is not compare-and-swap: symrefs are only ever
// written by the repository's own checkout/branch-switch logic, never raced
// against concurrent writers the way branch and tag refs are.
func (r Refs) SetSymref(name, target githash.Ref) error {
	path := r.refPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return fmt.Errorf("objstore: set symref %s: %w", name, err)
	}
	content := "ref: " + string(target) + "\n"
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return fmt.Errorf("objstore: set symref %s: %w", name, err)
	}
	return nil
}

// SetRefCAS atomically updates name to point to newID, failing with
// ErrRefConflict if the ref's current value doesn't equal expectedPrev.
// hasExpectedPrev == false asserts that the ref must not currently exist.
// Callers are expected to already hold the repository lock; SetRefCAS itself
// only guards against the ref file having changed since it was last read by
// re-reading it immediately before the rename.
func (r Refs) SetRefCAS(name githash.Ref, hasExpectedPrev bool, expectedPrev, newID githash.SHA1) error {
	path := r.refPath(name)
	cur, exists, err := r.GetRef(name)
	if err != nil {
		return fmt.Errorf("objstore: set ref %s: %w", name, err)
	}
	switch {
	case !hasExpectedPrev && exists:
		return fmt.Errorf("objstore: set ref %s: %w: ref already exists as %v", name, ErrRefConflict, cur)
	case hasExpectedPrev && (!exists || cur != expectedPrev):
		return fmt.Errorf("objstore: set ref %s: %w: expected %v, found %v", name, ErrRefConflict, expectedPrev, cur)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return fmt.Errorf("objstore: set ref %s: %w", name, err)
	}
	content := newID.String() + "\n"
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return fmt.Errorf("objstore: set ref %s: %w", name, err)
	}
	return nil
}

// DeleteRefCAS removes name, failing with ErrRefConflict if its current
// value doesn't equal expectedPrev.
func (r Refs) DeleteRefCAS(name githash.Ref, expectedPrev githash.SHA1) error {
	cur, exists, err := r.GetRef(name)
	if err != nil {
		return fmt.Errorf("objstore: delete ref %s: %w", name, err)
	}
	if !exists || cur != expectedPrev {
		return fmt.Errorf("objstore: delete ref %s: %w: expected %v, found %v", name, ErrRefConflict, expectedPrev, cur)
	}
	if err := os.Remove(r.refPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("objstore: delete ref %s: %w", name, err)
	}
	r.pruneEmptyDirs(filepath.Dir(r.refPath(name)))
	return nil
}

// pruneEmptyDirs removes now-empty ref directories up to (but not including)
// the top-level "refs" directory, mirroring Git's own behavior of not
// leaving behind empty refs/heads/foo/ directories after deleting the last
// branch in a namespace.
func (r Refs) pruneEmptyDirs(dir string) {
	refsRoot := filepath.Clean(filepath.Join(string(r), "refs"))
	for {
		dir = filepath.Clean(dir)
		if dir == refsRoot || len(dir) <= len(refsRoot) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// ListRefs returns the full names of every ref under prefix (e.g.
// "refs/heads/" or "refs/tags/"), in filepath.Walk order.
func (r Refs) ListRefs(prefix githash.Ref) ([]githash.Ref, error) {
	root := r.refPath(prefix)
	var out []githash.Ref
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(string(r), path)
		if err != nil {
			return err
		}
		out = append(out, githash.Ref(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("objstore: list refs %s: %w", prefix, err)
	}
	return out, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".reftmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

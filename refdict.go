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
	"fmt"
	"sort"
	"strings"

	"vost.dev/vost/githash"
	"vost.dev/vost/gitglob"
	"vost.dev/vost/objstore"
)

// RefDict provides branch- and tag-keyed access to a repository's refs: get
// and set operations keyed by short name, with compare-and-swap semantics
// on Set.
type RefDict struct {
	store *Store
}

// Get returns the commit ID that branch currently points to.
func (d *RefDict) Get(name string) (githash.SHA1, bool, error) {
	return d.store.refs.GetRef(githash.BranchRef(name))
}

// Set points branch at id unconditionally, creating the branch if it
// doesn't already exist. For compare-and-swap semantics, see SetCAS.
func (d *RefDict) Set(ctx context.Context, name string, id githash.SHA1) error {
	if !githash.ValidName(name) {
		return fmt.Errorf("vost: set branch %q: %w", name, InvalidRefName)
	}
	ref := githash.BranchRef(name)
	return d.store.withLock(ctx, func() error {
		prev, hadPrev, err := d.store.refs.GetRef(ref)
		if err != nil {
			return fmt.Errorf("vost: set branch %q: %w", name, err)
		}
		if err := d.store.refs.SetRefCAS(ref, hadPrev, prev, id); err != nil {
			return fmt.Errorf("vost: set branch %q: %w", name, err)
		}
		return nil
	})
}

// SetCAS points branch at newID, failing if its current value isn't
// expectedPrev (hasExpectedPrev == false asserts the branch must not yet
// exist).
func (d *RefDict) SetCAS(ctx context.Context, name string, hasExpectedPrev bool, expectedPrev, newID githash.SHA1) error {
	if !githash.ValidName(name) {
		return fmt.Errorf("vost: set branch %q: %w", name, InvalidRefName)
	}
	ref := githash.BranchRef(name)
	err := d.store.withLock(ctx, func() error {
		return d.store.refs.SetRefCAS(ref, hasExpectedPrev, expectedPrev, newID)
	})
	if err != nil {
		if errors.Is(err, objstore.ErrRefConflict) {
			return fmt.Errorf("vost: set branch %q: %w", name, StaleSnapshot)
		}
		return fmt.Errorf("vost: set branch %q: %w", name, err)
	}
	return nil
}

// SetAndGet is SetCAS followed by resolving the branch to an Fs, as a
// single convenience call for the common "commit floating work onto a
// branch" pattern.
func (d *RefDict) SetAndGet(ctx context.Context, name string, hasExpectedPrev bool, expectedPrev, newID githash.SHA1) (Fs, error) {
	if err := d.SetCAS(ctx, name, hasExpectedPrev, expectedPrev, newID); err != nil {
		return Fs{}, err
	}
	return d.store.Branch(name)
}

// Delete removes branch, failing if its current value isn't expectedPrev.
func (d *RefDict) Delete(ctx context.Context, name string, expectedPrev githash.SHA1) error {
	ref := githash.BranchRef(name)
	err := d.store.withLock(ctx, func() error {
		return d.store.refs.DeleteRefCAS(ref, expectedPrev)
	})
	if err != nil {
		if errors.Is(err, objstore.ErrRefConflict) {
			return fmt.Errorf("vost: delete branch %q: %w", name, StaleSnapshot)
		}
		return fmt.Errorf("vost: delete branch %q: %w", name, err)
	}
	return nil
}

// Contains reports whether branch exists.
func (d *RefDict) Contains(name string) (bool, error) {
	_, ok, err := d.Get(name)
	return ok, err
}

// List returns the short names of every branch, sorted lexically.
func (d *RefDict) List() ([]string, error) {
	return d.list(githash.BranchRef(""), "")
}

// ListMatching returns the short names of every branch whose name matches
// the given glob pattern (no "refs/heads/" prefix in the pattern).
func (d *RefDict) ListMatching(pattern string) ([]string, error) {
	return d.list(githash.BranchRef(""), pattern)
}

// ListTags returns the short names of every tag, sorted lexically.
func (d *RefDict) ListTags() ([]string, error) {
	return d.list(githash.TagRef(""), "")
}

// ListTagsMatching returns the short names of every tag whose name matches
// the given glob pattern (no "refs/tags/" prefix in the pattern).
func (d *RefDict) ListTagsMatching(pattern string) ([]string, error) {
	return d.list(githash.TagRef(""), pattern)
}

// GetTag returns the object ID the tag ref currently holds. For a tag made
// by CreateTag that is the annotated tag object's ID, not the commit it
// points to; Store.Tag dereferences it.
func (d *RefDict) GetTag(name string) (githash.SHA1, bool, error) {
	return d.store.refs.GetRef(githash.TagRef(name))
}

func (d *RefDict) list(prefix githash.Ref, pattern string) ([]string, error) {
	var g *gitglob.Glob
	if pattern != "" {
		var err error
		g, err = gitglob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("vost: list refs: %w", err)
		}
	}
	refs, err := d.store.refs.ListRefs(prefix)
	if err != nil {
		return nil, fmt.Errorf("vost: list refs: %w", err)
	}
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		name := strings.TrimPrefix(string(r), string(prefix))
		if g != nil && !g.MatchString(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CurrentName returns the short name of the branch HEAD points to, and
// false if HEAD is detached onto a raw commit.
func (d *RefDict) CurrentName() (string, bool, error) {
	target, direct, ok, err := d.store.refs.ReadSymref(githash.Head)
	if err != nil {
		return "", false, fmt.Errorf("vost: current branch: %w", err)
	}
	if !ok || direct {
		return "", false, nil
	}
	return target.Branch(), target.IsBranch(), nil
}

// SetCurrent makes name the current branch (what HEAD points to).
func (d *RefDict) SetCurrent(ctx context.Context, name string) error {
	return d.store.SetHead(name)
}

// Current returns the snapshot HEAD currently points to. It is a
// convenience alias for Store.Head.
func (d *RefDict) Current() (Fs, error) {
	return d.store.Head()
}

// Reflog returns the reflog entries for branch, oldest first.
func (d *RefDict) Reflog(name string) ([]objstore.ReflogEntry, error) {
	entries, err := d.store.refs.ReadReflog(githash.BranchRef(name))
	if err != nil {
		return nil, fmt.Errorf("vost: reflog %q: %w", name, err)
	}
	return entries, nil
}

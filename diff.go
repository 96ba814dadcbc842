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
)

// ChangeKind classifies one entry in a ChangeSet.
type ChangeKind int

// Kinds of change.
const (
	Added ChangeKind = iota
	Updated
	Deleted
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change describes a single path-level difference between two trees.
type Change struct {
	Path    string
	Kind    ChangeKind
	OldMode object.Mode
	NewMode object.Mode
	OldID   githash.SHA1
	NewID   githash.SHA1
}

// leaves returns every non-directory entry beneath an Fs's root, keyed by
// path, for diffing. Directories themselves never appear in a ChangeSet:
// they're implied by the paths nested under them.
func leaves(fs Fs) (map[string]Info, error) {
	out := make(map[string]Info)
	w := fs.Walk("")
	for w.Next() {
		info := w.Info()
		if info.IsDir() {
			continue
		}
		out[info.Path] = info
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// diffLeaves computes the change set that turns old into new.
func diffLeaves(old, new map[string]Info) []Change {
	var changes []Change
	for path, o := range old {
		n, ok := new[path]
		if !ok {
			changes = append(changes, Change{Path: path, Kind: Deleted, OldMode: o.Mode, OldID: o.ID})
			continue
		}
		if o.Mode != n.Mode || o.ID != n.ID {
			changes = append(changes, Change{
				Path: path, Kind: Updated,
				OldMode: o.Mode, OldID: o.ID,
				NewMode: n.Mode, NewID: n.ID,
			})
		}
	}
	for path, n := range new {
		if _, ok := old[path]; !ok {
			changes = append(changes, Change{Path: path, Kind: Added, NewMode: n.Mode, NewID: n.ID})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// Diff reports every add, update, and delete needed to turn fs into other.
// Both snapshots must belong to the same Store.
func (fs Fs) Diff(other Fs) ([]Change, error) {
	if fs.store != other.store {
		return nil, fmt.Errorf("vost: diff: snapshots belong to different stores")
	}
	if fs.tree == other.tree {
		return nil, nil
	}
	oldLeaves, err := leaves(fs)
	if err != nil {
		return nil, fmt.Errorf("vost: diff: %w", err)
	}
	newLeaves, err := leaves(other)
	if err != nil {
		return nil, fmt.Errorf("vost: diff: %w", err)
	}
	return diffLeaves(oldLeaves, newLeaves), nil
}

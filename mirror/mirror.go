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

// Package mirror computes the set of ref changes needed to bring one
// repository's branches and tags in line with another's. It deliberately
// stops at the in-process diff: no network transport is implemented here,
// matching the spec's carve-out of "the backup/restore mirror transport" as
// an external collaborator. An actual backup or restore tool supplies its
// own RefSource for whatever remote it talks to and hands both sides to
// Diff.
package mirror

import (
	"context"
	"fmt"
	"sort"
)

// RefEntry names one ref and the object it currently points to.
type RefEntry struct {
	Name   string // e.g. "refs/heads/main" or "refs/tags/v1.0"
	Target string // hex object ID
}

// RefSource lists the refs a repository (local or remote) currently holds.
// *vost.Store does not implement this directly, to avoid a dependency
// cycle between the root package and this one; see StoreSource.
type RefSource interface {
	ListRefs(ctx context.Context) ([]RefEntry, error)
}

// ChangeKind classifies one entry in a RefChangeReport.
type ChangeKind int

// Kinds of ref change.
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

// RefChange describes one ref whose value differs between src and dst.
type RefChange struct {
	Name      string
	Kind      ChangeKind
	OldTarget string // dst's current value; "" for Added
	NewTarget string // src's value; "" for Deleted
}

// RefChangeReport is the result of Diff: the raw per-ref changes, plus the
// two derived sets a backup/restore tool actually needs. Backup is every
// ref whose absence from a restore would lose data (adds, updates, and
// deletes all matter: a ref deleted at src should eventually be pruned from
// a faithful mirror). Restore is the subset an incremental push need only
// apply to bring dst forward to src: adds and updates, since a restore
// operation that only ever replays forward doesn't need to delete what dst
// uniquely has.
type RefChangeReport struct {
	Changes []RefChange
	Backup  []string
	Restore []string
}

// Diff compares src against dst and reports what changed. A ref present in
// src but not dst is Added; present in both with different targets is
// Updated; present in dst but not src is Deleted.
func Diff(ctx context.Context, src, dst RefSource) (*RefChangeReport, error) {
	srcRefs, err := src.ListRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("mirror: diff: read source refs: %w", err)
	}
	dstRefs, err := dst.ListRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("mirror: diff: read destination refs: %w", err)
	}

	srcByName := make(map[string]string, len(srcRefs))
	for _, r := range srcRefs {
		srcByName[r.Name] = r.Target
	}
	dstByName := make(map[string]string, len(dstRefs))
	for _, r := range dstRefs {
		dstByName[r.Name] = r.Target
	}

	report := &RefChangeReport{}
	for name, target := range srcByName {
		old, ok := dstByName[name]
		switch {
		case !ok:
			report.Changes = append(report.Changes, RefChange{Name: name, Kind: Added, NewTarget: target})
		case old != target:
			report.Changes = append(report.Changes, RefChange{Name: name, Kind: Updated, OldTarget: old, NewTarget: target})
		}
	}
	for name, target := range dstByName {
		if _, ok := srcByName[name]; !ok {
			report.Changes = append(report.Changes, RefChange{Name: name, Kind: Deleted, OldTarget: target})
		}
	}
	sort.Slice(report.Changes, func(i, j int) bool { return report.Changes[i].Name < report.Changes[j].Name })

	for _, c := range report.Changes {
		report.Backup = append(report.Backup, c.Name)
		if c.Kind != Deleted {
			report.Restore = append(report.Restore, c.Name)
		}
	}
	return report, nil
}

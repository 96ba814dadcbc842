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
	"fmt"

	"vost.dev/vost/githash"
	"vost.dev/vost/objstore"
)

// Undo moves the branch fs tracks back n steps in its reflog, first-parent
// only: it does not follow merge commits' second-or-later parents, since
// those were never the tip of this branch. Undo fails with NotFound if the
// branch's reflog has fewer than n prior commit-producing entries.
// Undo is only meaningful on a ref-backed, writable Fs.
func (fs Fs) Undo(ctx context.Context, n int) (Fs, error) {
	if fs.ref == "" {
		return Fs{}, fmt.Errorf("vost: undo: %w: snapshot is not ref-backed", InvalidRefName)
	}
	if n <= 0 {
		return fs, nil
	}
	entries, err := fs.store.refs.ReadReflog(fs.ref)
	if err != nil {
		return Fs{}, fmt.Errorf("vost: undo: %w", err)
	}
	if n > len(entries) {
		return Fs{}, fmt.Errorf("vost: undo %d steps: %w: only %d entries in reflog", n, NotFound, len(entries))
	}
	target := entries[len(entries)-n].Old
	return fs.moveTo(ctx, target, fmt.Sprintf("undo: %d step(s)", n))
}

// Redo moves the branch forward n steps, the inverse of Undo: it replays
// forward through the reflog from the branch's current position.
func (fs Fs) Redo(ctx context.Context, n int) (Fs, error) {
	if fs.ref == "" {
		return Fs{}, fmt.Errorf("vost: redo: %w: snapshot is not ref-backed", InvalidRefName)
	}
	if n <= 0 {
		return fs, nil
	}
	entries, err := fs.store.refs.ReadReflog(fs.ref)
	if err != nil {
		return Fs{}, fmt.Errorf("vost: redo: %w", err)
	}
	cur, _ := fs.Commit()
	idx := -1
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Old == cur {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Fs{}, fmt.Errorf("vost: redo: %w: current position not found in reflog", NotFound)
	}
	if idx+n > len(entries) {
		return Fs{}, fmt.Errorf("vost: redo %d step(s): %w: only %d entries ahead", n, NotFound, len(entries)-idx)
	}
	target := entries[idx+n-1].New
	return fs.moveTo(ctx, target, fmt.Sprintf("redo: %d step(s)", n))
}

func (fs Fs) moveTo(ctx context.Context, target githash.SHA1, message string) (Fs, error) {
	st := fs.store
	cur, hadCur, err := st.refs.GetRef(fs.ref)
	if err != nil {
		return Fs{}, fmt.Errorf("vost: %s: %w", message, err)
	}
	if err := st.casUpdateRef(ctx, fs.ref, hadCur, cur, target); err != nil {
		return Fs{}, fmt.Errorf("vost: %s: %w", message, err)
	}
	return st.fsForCommit(target, fs.ref, true)
}

// History returns every position branch's ref has held, oldest first, as
// recorded in its reflog. It is a supplemental convenience over the raw
// reflog for callers that want to browse undo/redo targets without
// re-deriving them from entries themselves.
func (d *RefDict) History(name string) ([]objstore.ReflogEntry, error) {
	return d.Reflog(name)
}

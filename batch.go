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

	"vost.dev/vost/object"
)

// Batch accumulates a set of writes and removes to be applied as a single
// commit, for callers building up a change incrementally (e.g. from a
// directory walk) rather than constructing the whole []WriteOp slice up
// front. A Batch is not safe for concurrent use, and becomes unusable
// (every method returns BatchClosed) once Commit or Discard has been
// called.
type Batch struct {
	base    Fs
	writes  []WriteOp
	removes []string
	closed  bool
}

// NewBatch starts a batch of changes against base.
func (fs Fs) NewBatch() *Batch {
	return &Batch{base: fs}
}

// Write stages a regular-file write at the default mode.
func (b *Batch) Write(path string, content []byte) error {
	return b.WriteMode(path, content, object.ModePlain)
}

// WriteMode stages a write with an explicit tree mode, e.g.
// object.ModeExecutable or object.ModeSymlink (with content set to the
// link target).
func (b *Batch) WriteMode(path string, content []byte, mode object.Mode) error {
	if b.closed {
		return fmt.Errorf("vost: batch write %q: %w", path, BatchClosed)
	}
	b.writes = append(b.writes, WriteOp{Path: path, Content: content, Mode: mode})
	return nil
}

// Remove stages removal of path (a file or an entire directory subtree).
func (b *Batch) Remove(path string) error {
	if b.closed {
		return fmt.Errorf("vost: batch remove %q: %w", path, BatchClosed)
	}
	b.removes = append(b.removes, path)
	return nil
}

// Len reports the number of staged operations (writes plus removes).
func (b *Batch) Len() int {
	return len(b.writes) + len(b.removes)
}

// Commit applies every staged write and remove as a single commit and
// closes the batch. Calling Commit (or any other method) again returns
// BatchClosed.
func (b *Batch) Commit(ctx context.Context, message string) (Fs, error) {
	if b.closed {
		return Fs{}, fmt.Errorf("vost: batch commit: %w", BatchClosed)
	}
	b.closed = true
	return b.base.Apply(ctx, b.writes, b.removes, message)
}

// Discard closes the batch without applying any of its staged changes.
func (b *Batch) Discard() {
	b.closed = true
	b.writes = nil
	b.removes = nil
}

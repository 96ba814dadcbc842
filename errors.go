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

import "errors"

// Kind is the closed set of error conditions that vost operations report.
// Callers should compare against these with errors.Is rather than matching
// on error strings.
type Kind error

// Error kinds. Most errors vost returns are one of these (wrapped with
// operation context via fmt.Errorf's %w) or an *fs.PathError / opaque I/O
// error from the underlying filesystem or object store, which callers
// should treat as Io. A few argument errors carry no Kind: an unknown
// commit-message placeholder, an unsupported write mode, ReadLink on a
// non-symlink, and combining snapshots from different stores.
var (
	// NotFound indicates that a path or ref did not resolve to anything.
	NotFound Kind = errors.New("vost: not found")
	// IsADirectory indicates an operation that requires a file (read,
	// write, readlink) was given a path that names a directory.
	IsADirectory Kind = errors.New("vost: is a directory")
	// NotADirectory indicates an operation that requires a directory
	// (listdir, or treating an intermediate path segment as a directory)
	// was given a path that names a file.
	NotADirectory Kind = errors.New("vost: not a directory")
	// Permission indicates the Fs the operation was attempted against is
	// not writable.
	Permission Kind = errors.New("vost: permission denied: snapshot is read-only")
	// StaleSnapshot indicates a write was attempted against an Fs whose
	// ref has moved since the snapshot was taken.
	StaleSnapshot Kind = errors.New("vost: stale snapshot")
	// KeyNotFound indicates a note lookup found no note under the given
	// key.
	KeyNotFound Kind = errors.New("vost: note key not found")
	// KeyExists indicates a create collided with an existing key, such as
	// CreateTag on a tag name that already exists.
	KeyExists Kind = errors.New("vost: key already exists")
	// InvalidRefName indicates a branch, tag, or notes-namespace name
	// failed validation.
	InvalidRefName Kind = errors.New("vost: invalid ref name")
	// InvalidPath indicates a repository-relative path failed
	// normalization (escaped the repository root, contained an empty
	// segment, or contained a NUL).
	InvalidPath Kind = errors.New("vost: invalid path")
	// InvalidHash indicates a caller-supplied object ID was malformed.
	InvalidHash Kind = errors.New("vost: invalid hash")
	// BatchClosed indicates an operation was attempted against a Batch
	// that already committed or was discarded.
	BatchClosed Kind = errors.New("vost: batch already closed")
	// Io wraps an underlying filesystem or object-store error that isn't
	// one of the more specific kinds above.
	Io Kind = errors.New("vost: i/o error")
	// Git wraps an error in the underlying Git object encoding (a
	// corrupt or malformed object was read from the store).
	Git Kind = errors.New("vost: git object error")
)

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

	"vost.dev/vost/githash"
	"vost.dev/vost/gitglob"
)

// Notes is a handle to one notes namespace: small, independently versioned
// blobs attached to arbitrary keys (conventionally object IDs, but vost
// treats the key as an opaque string) without disturbing the repository's
// main commit history. Each namespace lives on its own ref
// (refs/notes/<namespace>), separate from any branch.
type Notes struct {
	store     *Store
	namespace string
}

func (n *Notes) ref() githash.Ref {
	return githash.NotesRef(n.namespace)
}

// keyPath maps a note key to the path vost stores it under within the
// namespace's tree. Keys that happen to be 40-character hex object IDs are
// read from both a flat layout (the whole hex string as the filename) and
// Git's traditional 2/38 fanout layout (first two hex characters as a
// subdirectory), for compatibility with notes trees written by real git;
// vost itself always writes the flat layout.
func keyPath(key string) string {
	return key
}

func fanoutPath(key string) (string, bool) {
	if len(key) != 40 {
		return "", false
	}
	for _, c := range key {
		if !isHex(c) {
			return "", false
		}
	}
	return key[:2] + "/" + key[2:], true
}

func isHex(c rune) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func (n *Notes) snapshot() (Fs, error) {
	return n.store.fsForRef(n.ref(), true)
}

// Get returns the note stored under key.
func (n *Notes) Get(key string) ([]byte, error) {
	fs, err := n.snapshot()
	if err != nil {
		return nil, err
	}
	data, err := fs.Read(keyPath(key))
	if err == nil {
		return data, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	if fanout, ok := fanoutPath(key); ok {
		data, ferr := fs.Read(fanout)
		if ferr == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("vost: notes(%s) get %q: %w", n.namespace, key, KeyNotFound)
}

// Has reports whether a note exists under key.
func (n *Notes) Has(key string) (bool, error) {
	_, err := n.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, KeyNotFound) {
		return false, nil
	}
	return false, err
}

// Set writes the note under key, overwriting any existing note there.
func (n *Notes) Set(ctx context.Context, key string, content []byte) error {
	fs, err := n.snapshot()
	if err != nil {
		return err
	}
	_, err = fs.Apply(ctx, []WriteOp{{Path: keyPath(key), Content: content}}, nil,
		fmt.Sprintf("note: set %s", key))
	if err != nil {
		return fmt.Errorf("vost: notes(%s) set %q: %w", n.namespace, key, err)
	}
	return nil
}

// SetIfAbsent is Set, but fails with KeyExists if a note already exists
// under key (checking both the flat and fanout layouts).
func (n *Notes) SetIfAbsent(ctx context.Context, key string, content []byte) error {
	if ok, err := n.Has(key); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("vost: notes(%s) set %q: %w", n.namespace, key, KeyExists)
	}
	return n.Set(ctx, key, content)
}

// Delete removes the note under key. Deleting an absent note is a no-op.
func (n *Notes) Delete(ctx context.Context, key string) error {
	fs, err := n.snapshot()
	if err != nil {
		return err
	}
	removes := []string{keyPath(key)}
	if fanout, ok := fanoutPath(key); ok {
		removes = append(removes, fanout)
	}
	_, err = fs.Apply(ctx, nil, removes, fmt.Sprintf("note: delete %s", key))
	if err != nil {
		return fmt.Errorf("vost: notes(%s) delete %q: %w", n.namespace, key, err)
	}
	return nil
}

// List returns the keys of every note in the namespace matching pattern
// ("" or "*" for all).
func (n *Notes) List(pattern string) ([]string, error) {
	fs, err := n.snapshot()
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*"
	}
	g, err := gitglob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("vost: notes(%s) list: %w", n.namespace, err)
	}
	var keys []string
	w := fs.Walk("")
	for w.Next() {
		info := w.Info()
		if info.IsDir() {
			continue
		}
		key := info.Path
		if len(key) == 41 && key[2] == '/' {
			// Collapse a fanout entry "aa/bbb...bbb" to its flat key.
			key = key[:2] + key[3:]
		}
		if g.MatchString(key) {
			keys = append(keys, key)
		}
	}
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("vost: notes(%s) list: %w", n.namespace, err)
	}
	return keys, nil
}

// Size returns the number of notes in the namespace.
func (n *Notes) Size() (int, error) {
	keys, err := n.List("")
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Append adds content to the end of the existing note under key (or
// creates it, if absent), separated from any existing content by a
// newline. This is the supplemental convenience the teacher's plumbing
// doesn't need but the notes CLI surface does: building up a note across
// several calls without the caller re-reading it themselves each time.
func (n *Notes) Append(ctx context.Context, key string, content []byte) error {
	existing, err := n.Get(key)
	if err != nil && !errors.Is(err, KeyNotFound) {
		return err
	}
	var merged []byte
	if len(existing) > 0 {
		merged = append(merged, existing...)
		merged = append(merged, '\n')
	}
	merged = append(merged, content...)
	return n.Set(ctx, key, merged)
}

// Copy copies the note under srcKey to dstKey within the same namespace,
// failing with KeyNotFound if srcKey has no note.
func (n *Notes) Copy(ctx context.Context, srcKey, dstKey string) error {
	content, err := n.Get(srcKey)
	if err != nil {
		return err
	}
	return n.Set(ctx, dstKey, content)
}

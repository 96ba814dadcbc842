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

// Package objstore implements the on-disk loose-object store that backs a
// vost repository: a directory tree shaped like Git's own objects/ directory,
// holding zlib-deflated blob/tree/commit objects keyed by their SHA-1 hash.
//
// Unlike a full Git object database, Dir never reads or writes packfiles:
// vost repositories are never packed, so every object is loose. This keeps
// the store byte-for-byte readable by a stock git binary (`git cat-file -p
// <oid>` works against a vost repository) without requiring this package to
// implement packfile encoding.
package objstore

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"vost.dev/vost/githash"
	"vost.dev/vost/object"
)

// ErrNotFound is wrapped by the error returned from ReadObject when the
// requested object does not exist in the store.
var ErrNotFound = errors.New("object not found")

// WriteFinisher combines io.Writer with a method for closing the writer and
// obtaining the SHA-1 hash of the object that was written. The behavior of
// FinishObject after the first call is undefined.
type WriteFinisher interface {
	io.Writer
	// FinishObject finishes writing the object, atomically publishing it
	// into the store keyed by its hash. It returns an error if fewer bytes
	// were written than the declared size.
	FinishObject() (githash.SHA1, error)
}

// Dir is a loose-object store rooted at a directory, normally the `objects`
// subdirectory of a bare repository.
type Dir string

// Init creates the directory (and its parents) if it does not already exist.
func (dir Dir) Init() error {
	if err := os.MkdirAll(string(dir), 0o777); err != nil {
		return fmt.Errorf("objstore: init %s: %w", dir, err)
	}
	return nil
}

func (dir Dir) objectPath(id githash.SHA1) string {
	hexID := id.String()
	return filepath.Join(string(dir), hexID[:2], hexID[2:])
}

// Has reports whether an object with the given hash is present in the store.
func (dir Dir) Has(id githash.SHA1) (bool, error) {
	_, err := os.Stat(dir.objectPath(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("objstore: stat object %v: %w", id, err)
}

// ReadObject reads and inflates the object with the given hash, returning its
// parsed prefix and its content (the bytes following the prefix).
func (dir Dir) ReadObject(id githash.SHA1) (object.Prefix, []byte, error) {
	f, err := os.Open(dir.objectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return object.Prefix{}, nil, fmt.Errorf("objstore: read object %v: %w", id, ErrNotFound)
		}
		return object.Prefix{}, nil, fmt.Errorf("objstore: read object %v: %w", id, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return object.Prefix{}, nil, fmt.Errorf("objstore: read object %v: %w", id, err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return object.Prefix{}, nil, fmt.Errorf("objstore: read object %v: %w", id, err)
	}

	nul := bytes.IndexByte(raw, 0)
	if nul == -1 {
		return object.Prefix{}, nil, fmt.Errorf("objstore: read object %v: missing object prefix", id)
	}
	var prefix object.Prefix
	if err := prefix.UnmarshalBinary(raw[:nul+1]); err != nil {
		return object.Prefix{}, nil, fmt.Errorf("objstore: read object %v: %w", id, err)
	}
	content := raw[nul+1:]
	if int64(len(content)) != prefix.Size {
		return object.Prefix{}, nil, fmt.Errorf("objstore: read object %v: size mismatch (header says %d, got %d)", id, prefix.Size, len(content))
	}
	return prefix, content, nil
}

type dirWriter struct {
	f         *os.File
	dir       Dir
	typ       object.Type
	zw        *zlib.Writer
	sha1      hash.Hash
	remaining int64
	err       error
}

// WriteObject opens a new object of the given type and size for writing.
// Callers must write exactly prefix.Size bytes before calling FinishObject.
func (dir Dir) WriteObject(prefix object.Prefix) (WriteFinisher, error) {
	f, err := os.CreateTemp(string(dir), "object")
	if err != nil {
		return nil, fmt.Errorf("objstore: write %s: %w", prefix.Type, err)
	}
	ok := false
	defer func() {
		if !ok {
			name := f.Name()
			f.Close()
			os.Remove(name)
		}
	}()

	prefixData, err := prefix.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("objstore: write %s: %w", prefix.Type, err)
	}
	h := sha1.New()
	h.Write(prefixData)
	zw := zlib.NewWriter(f)
	if _, err := zw.Write(prefixData); err != nil {
		return nil, fmt.Errorf("objstore: write %s: %w", prefix.Type, err)
	}

	w := &dirWriter{
		f:         f,
		dir:       dir,
		typ:       prefix.Type,
		zw:        zw,
		sha1:      h,
		remaining: prefix.Size,
	}
	ok = true
	return w, nil
}

func (w *dirWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if w.err != nil {
		return 0, w.err
	}
	if int64(len(p)) > w.remaining {
		p = p[:int(w.remaining)]
		w.err = fmt.Errorf("objstore: write %s: more bytes than expected", w.typ)
	}
	n, err := w.zw.Write(p)
	w.remaining -= int64(n)
	w.sha1.Write(p[:n])
	if err == nil {
		err = w.err
	} else {
		err = fmt.Errorf("objstore: write %s: %w", w.typ, err)
	}
	return n, err
}

func (w *dirWriter) FinishObject() (_ githash.SHA1, err error) {
	name := w.f.Name()
	defer func() {
		if err != nil {
			os.Remove(name)
		}
	}()

	if w.err != nil {
		w.zw.Close()
		w.f.Close()
		return githash.SHA1{}, w.err
	}
	if w.remaining > 0 {
		w.zw.Close()
		w.f.Close()
		return githash.SHA1{}, fmt.Errorf("objstore: write %s: less bytes than expected (missing %d bytes)", w.typ, w.remaining)
	}
	if err := w.zw.Close(); err != nil {
		w.f.Close()
		return githash.SHA1{}, fmt.Errorf("objstore: write %s: %w", w.typ, err)
	}
	if err := w.f.Close(); err != nil {
		return githash.SHA1{}, fmt.Errorf("objstore: write %s: %w", w.typ, err)
	}

	var id githash.SHA1
	w.sha1.Sum(id[:0])
	dst := w.dir.objectPath(id)
	if err := os.MkdirAll(filepath.Dir(dst), 0o777); err != nil {
		return githash.SHA1{}, fmt.Errorf("objstore: write %s %v: %w", w.typ, id, err)
	}
	if _, statErr := os.Stat(dst); statErr == nil {
		// Object already exists (content-addressed, so it's identical);
		// discard the freshly written duplicate.
		os.Remove(name)
		return id, nil
	}
	if err := os.Rename(name, dst); err != nil {
		return githash.SHA1{}, fmt.Errorf("objstore: write %s %v: %w", w.typ, id, err)
	}
	return id, nil
}

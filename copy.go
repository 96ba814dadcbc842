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
	"os"
	"path/filepath"
	"strings"

	"vost.dev/vost/object"
	"vost.dev/vost/pathutil"
)

// SyncOptions configures the copy_in/copy_out/sync_in/sync_out family.
type SyncOptions struct {
	// DryRun computes and returns the Report without touching the
	// destination.
	DryRun bool
	// IgnoreExisting skips any destination path that already exists,
	// instead of overwriting it.
	IgnoreExisting bool
	// IgnoreErrors causes a per-file failure (a permission error, a
	// vanished source file) to be recorded in the Report instead of
	// aborting the whole operation.
	IgnoreErrors bool
	// Exclude, if set, skips any path it matches.
	Exclude *pathutil.IgnoreMatcher
}

// Report summarizes the effect of a copy or sync operation.
type Report struct {
	Copied  []string
	Deleted []string
	Skipped []string
	Errors  map[string]error
}

func newReport() *Report {
	return &Report{Errors: make(map[string]error)}
}

func (r *Report) fail(path string, err error, ignoreErrors bool) error {
	if ignoreErrors {
		r.Errors[path] = err
		return nil
	}
	return err
}

// destRelPath implements rsync-style trailing-slash and "/./" pivot
// semantics for mapping a matched source path onto a destination-relative
// path. srcRaw is the original (uncleaned) source argument the caller
// passed; matched is the cleaned path (within the source tree) that was
// selected for copying.
func destRelPath(srcRaw, matched string) (string, error) {
	if base, rest, ok := pathutil.SplitPivot(srcRaw); ok {
		baseClean, err := pathutil.Clean(base)
		if err != nil {
			return "", fmt.Errorf("vost: invalid source %q: %w", srcRaw, err)
		}
		_ = rest
		if baseClean == "" {
			return matched, nil
		}
		return strings.TrimPrefix(strings.TrimPrefix(matched, baseClean), "/"), nil
	}
	srcClean, err := pathutil.Clean(srcRaw)
	if err != nil {
		return "", fmt.Errorf("vost: invalid source %q: %w", srcRaw, err)
	}
	if pathutil.HasTrailingSlash(srcRaw) {
		return strings.TrimPrefix(strings.TrimPrefix(matched, srcClean), "/"), nil
	}
	parent, _ := pathutil.Split(srcClean)
	if parent == "" {
		return matched, nil
	}
	return strings.TrimPrefix(strings.TrimPrefix(matched, parent), "/"), nil
}

// CopyOut writes every file and symlink at or below src (a repository path,
// possibly with a "/./" pivot or trailing slash) onto disk under destDir.
func (fs Fs) CopyOut(ctx context.Context, src, destDir string, opts SyncOptions) (*Report, error) {
	report := newReport()
	root, err := pathutil.Clean(firstNonEmpty(pivotJoin(src), src))
	if err != nil {
		return nil, fmt.Errorf("vost: copy out %q: %w", src, err)
	}

	info, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("vost: copy out %q: %w", src, err)
	}

	visit := func(path string, leaf Info) error {
		rel, err := destRelPath(src, path)
		if err != nil {
			return err
		}
		if opts.Exclude != nil && opts.Exclude.Match(path, leaf.IsDir()) {
			report.Skipped = append(report.Skipped, path)
			return nil
		}
		dest := filepath.Join(destDir, filepath.FromSlash(rel))
		if opts.IgnoreExisting {
			if _, err := os.Lstat(dest); err == nil {
				report.Skipped = append(report.Skipped, path)
				return nil
			}
		}
		if opts.DryRun {
			report.Copied = append(report.Copied, path)
			return nil
		}
		if err := writeDiskEntry(fs, leaf, dest); err != nil {
			return report.fail(path, err, opts.IgnoreErrors)
		}
		report.Copied = append(report.Copied, path)
		return nil
	}

	if !info.IsDir() {
		if err := visit(root, info); err != nil {
			return nil, fmt.Errorf("vost: copy out %q: %w", src, err)
		}
		return report, nil
	}
	w := fs.Walk(root)
	for w.Next() {
		leaf := w.Info()
		if leaf.IsDir() {
			continue
		}
		if err := visit(leaf.Path, leaf); err != nil {
			return nil, fmt.Errorf("vost: copy out %q: %w", src, err)
		}
	}
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("vost: copy out %q: %w", src, err)
	}
	return report, nil
}

func pivotJoin(src string) string {
	if base, rest, ok := pathutil.SplitPivot(src); ok {
		return base + "/" + rest
	}
	return ""
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func writeDiskEntry(fs Fs, leaf Info, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o777); err != nil {
		return err
	}
	tmp := dest + ".vost-tmp"
	switch leaf.Mode {
	case object.ModeSymlink:
		target, err := fs.ReadLink(leaf.Path)
		if err != nil {
			return err
		}
		os.Remove(tmp)
		if err := os.Symlink(target, tmp); err != nil {
			return err
		}
	default:
		data, err := fs.Read(leaf.Path)
		if err != nil {
			return err
		}
		perm := os.FileMode(0o644)
		if leaf.Mode == object.ModeExecutable {
			perm = 0o755
		}
		if err := os.WriteFile(tmp, data, perm); err != nil {
			return err
		}
	}
	return os.Rename(tmp, dest)
}

// diskFingerprint pairs a disk file's size and modification time. Nothing
// consults it: CopyIn reads and hashes every source file in full on every
// call, whatever its size or modification time.
type diskFingerprint struct {
	size    int64
	modTime int64
}

// CopyIn reads every regular file and symlink on disk at or below srcDir
// and writes them into the repository under dest, producing one new commit.
// Each file lands at dest joined with its path relative to srcDir, so the
// contents of srcDir (not srcDir itself) appear under dest. Unlike CopyOut,
// CopyIn does not interpret a "/./" pivot or a trailing slash in srcDir.
func (fs Fs) CopyIn(ctx context.Context, srcDir, dest, message string, opts SyncOptions) (Fs, *Report, error) {
	report := newReport()
	var writes []WriteOp

	err := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return report.fail(path, err, opts.IgnoreErrors)
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)
		if opts.Exclude != nil && opts.Exclude.Match(relSlash, false) {
			report.Skipped = append(report.Skipped, relSlash)
			return nil
		}
		destPath := pathutil.Join(dest, relSlash)

		if opts.IgnoreExisting {
			if _, err := fs.Stat(destPath); err == nil {
				report.Skipped = append(report.Skipped, relSlash)
				return nil
			}
		}

		mode := object.ModePlain
		var content []byte
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return report.fail(relSlash, err, opts.IgnoreErrors)
			}
			mode = object.ModeSymlink
			content = []byte(target)
		} else {
			data, err := os.ReadFile(path)
			if err != nil {
				return report.fail(relSlash, err, opts.IgnoreErrors)
			}
			content = data
			if info.Mode()&0o111 != 0 {
				mode = object.ModeExecutable
			}
		}
		writes = append(writes, WriteOp{Path: destPath, Content: content, Mode: mode})
		report.Copied = append(report.Copied, destPath)
		return nil
	})
	if err != nil {
		return Fs{}, nil, fmt.Errorf("vost: copy in %q: %w", srcDir, err)
	}
	if opts.DryRun {
		return fs, report, nil
	}
	newFs, err := fs.Apply(ctx, writes, nil, message)
	if err != nil {
		return Fs{}, nil, fmt.Errorf("vost: copy in %q: %w", srcDir, err)
	}
	return newFs, report, nil
}

// SyncOut is CopyOut followed by deleting any file under destDir that
// wasn't part of src's current contents, making destDir's contents mirror
// src exactly.
func (fs Fs) SyncOut(ctx context.Context, src, destDir string, opts SyncOptions) (*Report, error) {
	report, err := fs.CopyOut(ctx, src, destDir, opts)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(report.Copied)+len(report.Skipped))
	for _, list := range [][]string{report.Copied, report.Skipped} {
		for _, p := range list {
			rel, err := destRelPath(src, p)
			if err != nil {
				continue
			}
			wanted[filepath.Join(destDir, filepath.FromSlash(rel))] = true
		}
	}
	err = filepath.Walk(destDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return report.fail(path, err, opts.IgnoreErrors)
		}
		if info.IsDir() || wanted[path] {
			return nil
		}
		rel, _ := filepath.Rel(destDir, path)
		if opts.Exclude != nil && opts.Exclude.Match(filepath.ToSlash(rel), false) {
			return nil
		}
		if opts.DryRun {
			report.Deleted = append(report.Deleted, path)
			return nil
		}
		if err := os.Remove(path); err != nil {
			return report.fail(path, err, opts.IgnoreErrors)
		}
		report.Deleted = append(report.Deleted, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vost: sync out %q: %w", src, err)
	}
	return report, nil
}

// SyncIn is CopyIn followed by removing any repository path under dest
// that is no longer present on disk under srcDir, making dest's contents
// mirror srcDir exactly.
func (fs Fs) SyncIn(ctx context.Context, srcDir, dest, message string, opts SyncOptions) (Fs, *Report, error) {
	newFs, report, err := fs.CopyIn(ctx, srcDir, dest, message, opts)
	if err != nil {
		return Fs{}, nil, err
	}
	destClean, err := pathutil.Clean(dest)
	if err != nil {
		return Fs{}, nil, fmt.Errorf("vost: sync in: %w", err)
	}
	wanted := make(map[string]bool, len(report.Copied)+len(report.Skipped))
	for _, p := range report.Copied {
		wanted[p] = true
	}
	for _, rel := range report.Skipped {
		wanted[pathutil.Join(destClean, rel)] = true
	}
	var removes []string
	w := newFs.Walk(destClean)
	for w.Next() {
		leaf := w.Info()
		if leaf.IsDir() || wanted[leaf.Path] {
			continue
		}
		if opts.DryRun {
			report.Deleted = append(report.Deleted, leaf.Path)
			continue
		}
		removes = append(removes, leaf.Path)
	}
	if err := w.Err(); err != nil {
		return Fs{}, nil, fmt.Errorf("vost: sync in: %w", err)
	}
	if len(removes) == 0 {
		return newFs, report, nil
	}
	final, err := newFs.Apply(ctx, nil, removes, fmt.Sprintf("%s (prune)", message))
	if err != nil {
		return Fs{}, nil, fmt.Errorf("vost: sync in: %w", err)
	}
	report.Deleted = append(report.Deleted, removes...)
	return final, report, nil
}

// CopyFromRef copies the subtree at srcPath in other onto dest in fs,
// producing a single new commit. other must belong to the same Store.
func (fs Fs) CopyFromRef(ctx context.Context, other Fs, srcPath, dest, message string) (Fs, error) {
	if fs.store != other.store {
		return Fs{}, fmt.Errorf("vost: copy from ref: snapshots belong to different stores")
	}
	srcClean, err := pathutil.Clean(srcPath)
	if err != nil {
		return Fs{}, fmt.Errorf("vost: copy from ref: %w", err)
	}
	info, err := other.Stat(srcClean)
	if err != nil {
		return Fs{}, fmt.Errorf("vost: copy from ref: %w", err)
	}
	var writes []WriteOp
	collect := func(path string, leaf Info) error {
		rel := strings.TrimPrefix(strings.TrimPrefix(path, srcClean), "/")
		content, mode, err := readLeaf(other, leaf)
		if err != nil {
			return err
		}
		writes = append(writes, WriteOp{Path: pathutil.Join(dest, rel), Content: content, Mode: mode})
		return nil
	}
	if !info.IsDir() {
		if err := collect(srcClean, info); err != nil {
			return Fs{}, fmt.Errorf("vost: copy from ref: %w", err)
		}
	} else {
		w := other.Walk(srcClean)
		for w.Next() {
			leaf := w.Info()
			if leaf.IsDir() {
				continue
			}
			if err := collect(leaf.Path, leaf); err != nil {
				return Fs{}, fmt.Errorf("vost: copy from ref: %w", err)
			}
		}
		if err := w.Err(); err != nil {
			return Fs{}, fmt.Errorf("vost: copy from ref: %w", err)
		}
	}
	return fs.Apply(ctx, writes, nil, message)
}

func readLeaf(fs Fs, leaf Info) ([]byte, object.Mode, error) {
	if leaf.Mode == object.ModeSymlink {
		target, err := fs.ReadLink(leaf.Path)
		return []byte(target), object.ModeSymlink, err
	}
	data, err := fs.Read(leaf.Path)
	return data, leaf.Mode, err
}

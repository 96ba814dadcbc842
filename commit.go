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
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"vost.dev/vost/githash"
	"vost.dev/vost/object"
	"vost.dev/vost/objstore"
	"vost.dev/vost/pathutil"
)

// WriteOp describes one file to create or overwrite. Mode defaults to
// object.ModePlain (a regular, non-executable file) when left zero.
type WriteOp struct {
	Path    string
	Content []byte
	Mode    object.Mode
}

// RemoveOptions configures Remove.
type RemoveOptions struct {
	// Recursive allows a remove to take down a whole directory subtree.
	// Without it, a path in paths that names a directory fails the whole
	// call with IsADirectory and nothing is removed.
	Recursive bool
	// DryRun computes and returns the Fs's would-be Message and Changes
	// without creating a commit or advancing the snapshot's ref. The
	// returned Fs otherwise looks like the receiver: same tree, same
	// commit.
	DryRun bool
	// Message is the commit message; see Apply for the placeholders it
	// accepts. An empty Message is equivalent to "{default}".
	Message string
}

// Apply performs writes and removes atomically, producing one new commit.
// message may contain the placeholders {default}, {add_count},
// {update_count}, {delete_count}, {total_count}, and {op}; an empty message
// is equivalent to "{default}". If, after resolving content addresses, the
// operation would produce a tree identical to the one the snapshot already
// has, Apply returns the receiver unchanged (with an empty Message and nil
// Changes) and creates no commit.
//
// Apply is a single-attempt, compare-and-swap write against fs's own
// commit: if fs tracks a ref that has moved since fs was read, Apply fails
// with StaleSnapshot rather than silently rebasing onto the new tip. A
// caller that wants to retry on staleness should re-read the ref with
// Refresh and call Apply again, optionally driving that loop with the
// retry package's Write helper.
func (fs Fs) Apply(ctx context.Context, writes []WriteOp, removes []string, message string) (Fs, error) {
	return fs.apply(ctx, writes, removes, message, "apply", true)
}

// Write is a convenience wrapper around Apply for a single file write.
func (fs Fs) Write(ctx context.Context, path string, content []byte, message string) (Fs, error) {
	return fs.apply(ctx, []WriteOp{{Path: path, Content: content}}, nil, message, "write", true)
}

// Remove deletes one or more paths (files, or whole directory subtrees when
// opts.Recursive is set) in a single commit. Removing a path that does not
// exist is a no-op for that path; removing a path that names a directory
// without opts.Recursive fails the whole call with IsADirectory.
func (fs Fs) Remove(ctx context.Context, paths []string, opts RemoveOptions) (Fs, error) {
	if opts.DryRun {
		if !fs.writable {
			return Fs{}, fmt.Errorf("vost: remove: %w", Permission)
		}
		_, changes, err := fs.store.classifyRemoves(fs.tree, paths, opts.Recursive)
		if err != nil {
			return Fs{}, fmt.Errorf("vost: remove: %w", err)
		}
		preview := fs
		msg, err := renderMessage(opts.Message, changes, "remove")
		if err != nil {
			return Fs{}, fmt.Errorf("vost: remove: %w", err)
		}
		preview.message = msg
		preview.lastChanges = changes
		return preview, nil
	}
	return fs.apply(ctx, nil, paths, opts.Message, "remove", opts.Recursive)
}

// apply is the shared implementation behind Apply, Write, and Remove. It
// resolves and classifies every write and remove against base's own tree,
// builds the new tree, and — on an actual change — writes one commit and
// advances base's ref with a single compare-and-swap against base's own
// commit oid.
func (fs Fs) apply(ctx context.Context, writes []WriteOp, removes []string, message, op string, recursive bool) (Fs, error) {
	if !fs.writable {
		return Fs{}, fmt.Errorf("vost: %s: %w", op, Permission)
	}
	st := fs.store

	resolved, writeChanges, err := st.resolveWrites(fs.tree, writes)
	if err != nil {
		return Fs{}, err
	}
	cleanRemoves, removeChanges, err := st.classifyRemoves(fs.tree, removes, recursive)
	if err != nil {
		return Fs{}, err
	}

	changes := append(writeChanges, removeChanges...)
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	newTree, changed, err := st.buildTree(fs.tree, resolved, cleanRemoves, recursive)
	if err != nil {
		return Fs{}, err
	}
	if !changed {
		unchanged := fs
		unchanged.message = ""
		unchanged.lastChanges = nil
		return unchanged, nil
	}

	msg, err := renderMessage(message, changes, op)
	if err != nil {
		return Fs{}, fmt.Errorf("vost: %s: %w", op, err)
	}

	commitID, err := st.writeCommit(fs, newTree, msg)
	if err != nil {
		return Fs{}, err
	}

	if fs.ref != "" {
		if err := st.casUpdateRef(ctx, fs.ref, fs.hasCommit, fs.commit, commitID); err != nil {
			if errors.Is(err, objstore.ErrRefConflict) {
				return Fs{}, fmt.Errorf("vost: %s: %w", op, StaleSnapshot)
			}
			return Fs{}, err
		}
	}

	return Fs{
		store:       st,
		ref:         fs.ref,
		hasCommit:   true,
		commit:      commitID,
		tree:        newTree,
		writable:    true,
		message:     msg,
		lastChanges: changes,
	}, nil
}

// resolveWrites hashes and stores the blob for every write and classifies
// each as Added or Updated by resolving its path against base. A write that
// reproduces the mode and blob already at its path is dropped from the
// returned change report (but still handed to the tree builder, which will
// correctly detect the overall no-op).
func (st *Store) resolveWrites(base githash.SHA1, writes []WriteOp) ([]treeWrite, []Change, error) {
	out := make([]treeWrite, 0, len(writes))
	var changes []Change
	for _, w := range writes {
		clean, err := pathutil.Clean(w.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("vost: apply: %w", err)
		}
		mode := w.Mode
		if mode == 0 {
			mode = object.ModePlain
		}
		if !mode.IsRegular() && mode != object.ModeSymlink {
			return nil, nil, fmt.Errorf("vost: apply %q: unsupported mode %v", w.Path, mode)
		}
		id, err := st.writeObject(object.TypeBlob, w.Content)
		if err != nil {
			return nil, nil, fmt.Errorf("vost: apply %q: %w", w.Path, err)
		}
		out = append(out, treeWrite{path: clean, mode: mode, blob: id})

		existing, err := st.resolve(base, clean)
		switch {
		case err == nil:
			if existing.IsDir() {
				return nil, nil, fmt.Errorf("vost: apply %q: %w", w.Path, IsADirectory)
			}
			if existing.Mode == mode && existing.ID == id {
				continue // reproduces what's already there
			}
			changes = append(changes, Change{
				Path: clean, Kind: Updated,
				OldMode: existing.Mode, OldID: existing.ID,
				NewMode: mode, NewID: id,
			})
		case isNotFound(err):
			changes = append(changes, Change{Path: clean, Kind: Added, NewMode: mode, NewID: id})
		default:
			return nil, nil, err
		}
	}
	return out, changes, nil
}

// classifyRemoves cleans each remove path, expands directory removes into
// their constituent leaves for the change report, and rejects a directory
// remove when recursive is false. Removing a path that doesn't exist is a
// no-op: it's dropped from both the cleaned list and the change report.
func (st *Store) classifyRemoves(base githash.SHA1, removes []string, recursive bool) ([]string, []Change, error) {
	cleaned := make([]string, 0, len(removes))
	var changes []Change
	for _, p := range removes {
		clean, err := pathutil.Clean(p)
		if err != nil {
			return nil, nil, fmt.Errorf("vost: remove %q: %w", p, err)
		}
		info, err := st.resolve(base, clean)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, nil, err
		}
		if info.IsDir() {
			if !recursive {
				return nil, nil, fmt.Errorf("vost: remove %q: %w", p, IsADirectory)
			}
			under, err := st.leavesUnder(base, clean)
			if err != nil {
				return nil, nil, err
			}
			for _, leaf := range under {
				changes = append(changes, Change{Path: leaf.Path, Kind: Deleted, OldMode: leaf.Mode, OldID: leaf.ID})
			}
		} else {
			changes = append(changes, Change{Path: clean, Kind: Deleted, OldMode: info.Mode, OldID: info.ID})
		}
		cleaned = append(cleaned, clean)
	}
	return cleaned, changes, nil
}

// leavesUnder returns every non-directory entry at or below path in the
// tree rooted at root.
func (st *Store) leavesUnder(root githash.SHA1, path string) ([]Info, error) {
	scratch := Fs{store: st, tree: root}
	var out []Info
	w := scratch.Walk(path)
	for w.Next() {
		info := w.Info()
		if info.IsDir() {
			continue
		}
		out = append(out, info)
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

var knownPlaceholders = map[string]bool{
	"{default}":      true,
	"{add_count}":    true,
	"{update_count}": true,
	"{delete_count}": true,
	"{total_count}":  true,
	"{op}":           true,
}

// renderMessage expands the placeholders documented on Apply within
// message, using the change report and the name of the operation that
// produced it. A message without any "{" is used verbatim. A message
// containing an unrecognized "{...}" placeholder is an error.
func renderMessage(message string, changes []Change, op string) (string, error) {
	if message == "" {
		return defaultSummary(changes, op), nil
	}
	if !strings.Contains(message, "{") {
		return message, nil
	}
	for _, tok := range placeholderPattern.FindAllString(message, -1) {
		if !knownPlaceholders[tok] {
			return "", fmt.Errorf("unknown message placeholder %q", tok)
		}
	}
	var adds, updates, deletes int
	for _, c := range changes {
		switch c.Kind {
		case Added:
			adds++
		case Updated:
			updates++
		case Deleted:
			deletes++
		}
	}
	r := strings.NewReplacer(
		"{default}", defaultSummary(changes, op),
		"{add_count}", strconv.Itoa(adds),
		"{update_count}", strconv.Itoa(updates),
		"{delete_count}", strconv.Itoa(deletes),
		"{total_count}", strconv.Itoa(len(changes)),
		"{op}", op,
	)
	return r.Replace(message), nil
}

// defaultSummary synthesizes the commit message used when the caller
// supplies none: a single-file write or remove uses the symbol form ("+
// path", "~ path", "- path", with an "(executable)" or "(link)" suffix),
// matching real Git's one-line convention; anything touching more than one
// path uses an aggregate count.
func defaultSummary(changes []Change, op string) string {
	if len(changes) == 0 {
		return "no-op commit"
	}
	if len(changes) == 1 {
		return changeSymbol(changes[0])
	}
	var adds, updates, deletes int
	for _, c := range changes {
		switch c.Kind {
		case Added:
			adds++
		case Updated:
			updates++
		case Deleted:
			deletes++
		}
	}
	return fmt.Sprintf("Batch %s: +%d ~%d -%d", op, adds, updates, deletes)
}

func changeSymbol(c Change) string {
	var symbol string
	mode := c.NewMode
	switch c.Kind {
	case Added:
		symbol = "+"
	case Updated:
		symbol = "~"
	case Deleted:
		symbol = "-"
		mode = c.OldMode
	}
	suffix := ""
	switch {
	case mode == object.ModeExecutable:
		suffix = " (executable)"
	case mode == object.ModeSymlink:
		suffix = " (link)"
	}
	return symbol + " " + c.Path + suffix
}

func (st *Store) writeCommit(base Fs, newTree githash.SHA1, message string) (githash.SHA1, error) {
	user, err := st.cfg.signature.user()
	if err != nil {
		return githash.SHA1{}, fmt.Errorf("vost: write commit: %w", err)
	}
	now := time.Now()
	c := &object.Commit{
		Tree:       newTree,
		Author:     user,
		AuthorTime: now,
		Committer:  user,
		CommitTime: now,
		Message:    message,
	}
	if base.hasCommit {
		c.Parents = []githash.SHA1{base.commit}
	}
	data, err := c.MarshalText()
	if err != nil {
		return githash.SHA1{}, fmt.Errorf("vost: write commit: %w", err)
	}
	return st.writeObject(object.TypeCommit, data)
}

// casUpdateRef atomically advances ref from prev to next, appends a reflog
// entry, and (if ref is HEAD's target or HEAD itself) keeps HEAD's log
// consistent. Callers must treat ErrRefConflict as terminal for this
// attempt: casUpdateRef never retries.
func (st *Store) casUpdateRef(ctx context.Context, ref githash.Ref, hadPrev bool, prev, next githash.SHA1) error {
	return st.withLock(ctx, func() error {
		if err := st.refs.SetRefCAS(ref, hadPrev, prev, next); err != nil {
			return err
		}
		user, err := st.cfg.signature.user()
		if err != nil {
			return fmt.Errorf("vost: update ref %s: %w", ref, err)
		}
		entry := objstore.ReflogEntry{
			Old:       prev,
			New:       next,
			Committer: user,
			When:      time.Now().Unix(),
			TZOffset:  tzOffsetMinutes(time.Now()),
			Message:   "commit",
		}
		if err := st.refs.AppendReflog(ref, entry); err != nil {
			return fmt.Errorf("vost: update ref %s: %w", ref, err)
		}
		if target, _, ok, _ := st.refs.ReadSymref(githash.Head); ok && target == ref {
			if err := st.refs.AppendReflog(githash.Head, entry); err != nil {
				return fmt.Errorf("vost: update ref %s: %w", ref, err)
			}
		}
		return nil
	})
}

func tzOffsetMinutes(t time.Time) int {
	_, offsetSec := t.Zone()
	return offsetSec / 60
}

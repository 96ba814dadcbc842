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

// Package lock provides the advisory, process-wide repository lock that
// vost holds around every mutating operation: object writes, ref
// compare-and-swap, and reflog appends. It wraps an OS file lock so that
// two independent processes (or two Store handles to the same repository
// within one process) can't interleave writes to the same repository.
package lock

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// fileName is the name of the lock file created at the root of the
// repository directory, alongside "objects" and "refs".
const fileName = "vost.lock"

// registry deduplicates Lock values so that two Store handles opened on the
// same repository path within one process share the exact same *flock.Flock
// (and thus the same in-process mutex), rather than racing two OS-level
// locks against each other, which flock does not guard against on all
// platforms when taken twice from the same process.
var registry sync.Map // map[string]*Lock

// A Lock is an advisory lock over a single repository directory. It is not
// re-entrant: a second acquire from the same process blocks until the
// first is released.
type Lock struct {
	path string
	sem  chan struct{} // buffered 1; held == empty
	fl   *flock.Flock
}

// For returns the Lock for the repository rooted at dir, creating it if
// this is the first time dir has been locked in this process.
func For(dir string) (*Lock, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("lock: %w", err)
	}
	abs = filepath.Clean(abs)
	if existing, ok := registry.Load(abs); ok {
		return existing.(*Lock), nil
	}
	l := &Lock{
		path: abs,
		sem:  make(chan struct{}, 1),
		fl:   flock.New(filepath.Join(abs, fileName)),
	}
	l.sem <- struct{}{}
	actual, _ := registry.LoadOrStore(abs, l)
	return actual.(*Lock), nil
}

// Lock acquires the lock, blocking until it is available or ctx is done.
// The in-process semaphore is acquired first (so concurrent goroutines in
// the same process serialize without touching the filesystem), then the OS
// file lock (so concurrent processes serialize too).
func (l *Lock) Lock(ctx context.Context) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-l.sem:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := l.fl.Lock(); err != nil {
		l.sem <- struct{}{}
		return nil, fmt.Errorf("lock %s: %w", l.path, err)
	}
	released := false
	unlock := func() {
		if released {
			return
		}
		released = true
		l.fl.Unlock()
		l.sem <- struct{}{}
	}
	return unlock, nil
}

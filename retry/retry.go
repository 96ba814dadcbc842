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

// Package retry implements the bounded retry schedule that vost uses to
// re-attempt a mutating operation after it loses a ref compare-and-swap
// race against a concurrent writer.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MaxAttempts is the number of times Write will invoke fn before giving up.
const MaxAttempts = 5

// schedule implements backoff.BackOff with the fixed delay sequence
// min(10*2^attempt, 200) milliseconds: 10ms, 20ms, 40ms, 80ms, one sleep
// before each of attempts two to five (the fifth and final attempt is not
// followed by a sleep, since there is no attempt after it).
type schedule struct {
	attempt int
}

func (s *schedule) NextBackOff() time.Duration {
	if s.attempt >= MaxAttempts-1 {
		return backoff.Stop
	}
	ms := 10 * (int64(1) << uint(s.attempt))
	if ms > 200 {
		ms = 200
	}
	s.attempt++
	return time.Duration(ms) * time.Millisecond
}

func (s *schedule) Reset() {
	s.attempt = 0
}

// errRetryable is the sentinel a caller's fn should wrap its stale-state
// error in (via Retryable) to signal that the failure is transient and
// should trigger another attempt, rather than being given up on
// immediately.
var errRetryable = errors.New("retry: retryable error")

// Retryable wraps err so that Write will retry the operation that produced
// it, instead of returning immediately. A nil err returns nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errRetryable, err)
}

// IsRetryable reports whether err (or something it wraps) was produced by
// Retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, errRetryable)
}

// Write invokes fn up to MaxAttempts times on the fixed schedule
// 10ms, 20ms, 40ms, 80ms between attempts, stopping as soon as fn
// returns a nil error or a non-retryable error (one not wrapped with
// Retryable). It also stops early if ctx is canceled between attempts.
func Write(ctx context.Context, fn func() error) error {
	var lastErr error
	op := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithContext(&schedule{}, ctx)
	err := backoff.Retry(op, b)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}

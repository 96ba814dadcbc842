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

package retry

import (
	"context"
	"errors"
	"testing"
)

var errBoom = errors.New("boom")

func TestWriteSucceedsEventually(t *testing.T) {
	attempts := 0
	err := Write(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return Retryable(errBoom)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Write() = %v; want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d; want 3", attempts)
	}
}

func TestWriteGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	err := Write(context.Background(), func() error {
		attempts++
		return Retryable(errBoom)
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("Write() error = %v; want wrapping errBoom", err)
	}
	if attempts != MaxAttempts {
		t.Errorf("attempts = %d; want %d", attempts, MaxAttempts)
	}
}

func TestWriteStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	err := Write(context.Background(), func() error {
		attempts++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("Write() error = %v; want errBoom", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d; want 1 (no retry on non-retryable error)", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errBoom) {
		t.Error("plain error reported retryable")
	}
	if !IsRetryable(Retryable(errBoom)) {
		t.Error("wrapped error not reported retryable")
	}
}

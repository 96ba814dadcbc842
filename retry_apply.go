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

	"vost.dev/vost/retry"
)

// RetryWrite is the opt-in rebase-and-retry wrapper around Apply (and the
// other writers built on it). fn performs one write attempt and should
// re-read its starting snapshot with Fs.Refresh before reapplying its
// writes, so each retry races against the ref's latest tip rather than
// repeating the same losing compare-and-swap. RetryWrite retries fn only
// when it fails with StaleSnapshot, using the same bounded exponential
// backoff schedule as the retry package; any other error is returned
// immediately.
//
//	result, err := vost.RetryWrite(ctx, func() (vost.Fs, error) {
//		fresh, err := fs.Refresh()
//		if err != nil {
//			return vost.Fs{}, err
//		}
//		return fresh.Write(ctx, "path", content, message)
//	})
func RetryWrite(ctx context.Context, fn func() (Fs, error)) (Fs, error) {
	var result Fs
	err := retry.Write(ctx, func() error {
		var err error
		result, err = fn()
		if errors.Is(err, StaleSnapshot) {
			return retry.Retryable(err)
		}
		return err
	})
	if err != nil {
		return Fs{}, err
	}
	return result, nil
}

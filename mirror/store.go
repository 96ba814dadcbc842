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

package mirror

import (
	"context"
	"fmt"

	"vost.dev/vost"
)

// StoreSource adapts a *vost.Store into a RefSource, listing every branch
// and tag it holds.
type StoreSource struct {
	Store *vost.Store
}

// ListRefs implements RefSource.
func (s StoreSource) ListRefs(ctx context.Context) ([]RefEntry, error) {
	refs := s.Store.Refs()

	branches, err := refs.List()
	if err != nil {
		return nil, fmt.Errorf("mirror: list branches: %w", err)
	}
	tags, err := refs.ListTags()
	if err != nil {
		return nil, fmt.Errorf("mirror: list tags: %w", err)
	}

	entries := make([]RefEntry, 0, len(branches)+len(tags))
	for _, name := range branches {
		id, ok, err := refs.Get(name)
		if err != nil {
			return nil, fmt.Errorf("mirror: resolve branch %q: %w", name, err)
		}
		if !ok {
			continue
		}
		entries = append(entries, RefEntry{Name: "refs/heads/" + name, Target: id.String()})
	}
	for _, name := range tags {
		id, ok, err := refs.GetTag(name)
		if err != nil {
			return nil, fmt.Errorf("mirror: resolve tag %q: %w", name, err)
		}
		if !ok {
			continue
		}
		entries = append(entries, RefEntry{Name: "refs/tags/" + name, Target: id.String()})
	}
	return entries, nil
}

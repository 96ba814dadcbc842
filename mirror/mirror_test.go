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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type fakeSource map[string]string

func (f fakeSource) ListRefs(ctx context.Context) ([]RefEntry, error) {
	var entries []RefEntry
	for name, target := range f {
		entries = append(entries, RefEntry{Name: name, Target: target})
	}
	return entries, nil
}

func TestDiffAddedUpdatedDeleted(t *testing.T) {
	src := fakeSource{
		"refs/heads/main": "aaaa",
		"refs/heads/dev":  "bbbb",
		"refs/tags/v1":    "cccc",
	}
	dst := fakeSource{
		"refs/heads/main": "zzzz",
		"refs/heads/old":  "dddd",
		"refs/tags/v1":    "cccc",
	}

	report, err := Diff(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	want := []RefChange{
		{Name: "refs/heads/dev", Kind: Added, NewTarget: "bbbb"},
		{Name: "refs/heads/main", Kind: Updated, OldTarget: "zzzz", NewTarget: "aaaa"},
		{Name: "refs/heads/old", Kind: Deleted, OldTarget: "dddd"},
	}
	if diff := cmp.Diff(want, report.Changes, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Changes mismatch (-want +got):\n%s", diff)
	}

	wantBackup := []string{"refs/heads/dev", "refs/heads/main", "refs/heads/old"}
	if diff := cmp.Diff(wantBackup, report.Backup); diff != "" {
		t.Errorf("Backup mismatch (-want +got):\n%s", diff)
	}
	wantRestore := []string{"refs/heads/dev", "refs/heads/main"}
	if diff := cmp.Diff(wantRestore, report.Restore); diff != "" {
		t.Errorf("Restore mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffIdentical(t *testing.T) {
	src := fakeSource{"refs/heads/main": "aaaa"}
	dst := fakeSource{"refs/heads/main": "aaaa"}

	report, err := Diff(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(report.Changes) != 0 {
		t.Errorf("Changes = %v, want empty", report.Changes)
	}
}

func TestChangeKindString(t *testing.T) {
	cases := map[ChangeKind]string{Added: "added", Updated: "updated", Deleted: "deleted"}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", kind, got, want)
		}
	}
}

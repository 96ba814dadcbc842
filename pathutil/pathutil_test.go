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

package pathutil

import (
	"errors"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"/", "", false},
		{"a/b/c", "a/b/c", false},
		{"./a/./b", "a/b", false},
		{"/a/b/", "a/b", false},
		{"a//b", "", true},
		{"a/../b", "", true},
		{"..", "", true},
		{"a/b/..", "", true},
	}
	for _, test := range tests {
		got, err := Clean(test.in)
		if test.wantErr {
			if err == nil || !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Clean(%q) error = %v; want ErrInvalidPath", test.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Clean(%q) unexpected error: %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("Clean(%q) = %q; want %q", test.in, got, test.want)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in       string
		wantDir  string
		wantName string
	}{
		{"", "", ""},
		{"a", "", "a"},
		{"a/b/c", "a/b", "c"},
	}
	for _, test := range tests {
		dir, name := Split(test.in)
		if dir != test.wantDir || name != test.wantName {
			t.Errorf("Split(%q) = %q, %q; want %q, %q", test.in, dir, name, test.wantDir, test.wantName)
		}
	}
}

func TestHasPrefixDir(t *testing.T) {
	tests := []struct {
		p, dir string
		want   bool
	}{
		{"a/b/c", "", true},
		{"a/b/c", "a", true},
		{"a/b/c", "a/b", true},
		{"a/b/c", "a/b/c", true},
		{"a/bc", "a/b", false},
		{"ab/c", "a", false},
	}
	for _, test := range tests {
		if got := HasPrefixDir(test.p, test.dir); got != test.want {
			t.Errorf("HasPrefixDir(%q, %q) = %t; want %t", test.p, test.dir, got, test.want)
		}
	}
}

func TestSplitPivot(t *testing.T) {
	tests := []struct {
		in       string
		wantBase string
		wantRest string
		wantOK   bool
	}{
		{"a/b/./c/d", "a/b", "c/d", true},
		{"./a/b", "", "./a/b", false},
		{"a/b/c", "", "a/b/c", false},
		{"/./a", "", "a", true},
	}
	for _, test := range tests {
		base, rest, ok := SplitPivot(test.in)
		if base != test.wantBase || rest != test.wantRest || ok != test.wantOK {
			t.Errorf("SplitPivot(%q) = %q, %q, %t; want %q, %q, %t",
				test.in, base, rest, ok, test.wantBase, test.wantRest, test.wantOK)
		}
	}
}

func TestHasTrailingSlash(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a/b/", true},
		{"a/b", false},
		{"/", false},
		{"", false},
	}
	for _, test := range tests {
		if got := HasTrailingSlash(test.in); got != test.want {
			t.Errorf("HasTrailingSlash(%q) = %t; want %t", test.in, got, test.want)
		}
	}
}

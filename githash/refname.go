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

package githash

import "strings"

// NotesRef returns the ref for the given notes namespace.
func NotesRef(ns string) Ref {
	return notesPrefix + Ref(ns)
}

// IsNotes reports whether r starts with "refs/notes/".
func (r Ref) IsNotes() bool {
	return r.IsValid() && strings.HasPrefix(string(r), notesPrefix)
}

// Notes returns the string after "refs/notes/" or an empty string if the ref
// does not start with "refs/notes/".
func (r Ref) Notes() string {
	if !r.IsNotes() {
		return ""
	}
	return string(r[len(notesPrefix):])
}

const notesPrefix = "refs/notes/"

// ValidName reports whether name is a valid short branch, tag, or notes
// namespace name (the part after "refs/heads/", "refs/tags/", or
// "refs/notes/"). It applies the same character restrictions as
// [Ref.IsValid], including the ban on a leading '-' or '.', which Git
// reserves for command-line flag and relative-ref disambiguation.
func ValidName(name string) bool {
	if name == "" || name == "@" {
		return false
	}
	if name[0] == '-' || name[0] == '.' || name[0] == '/' {
		return false
	}
	if name[len(name)-1] == '.' || name[len(name)-1] == '/' {
		return false
	}
	if strings.IndexFunc(name, func(c rune) bool {
		return c < 0x20 || c == 0x7f ||
			c == ' ' || c == '\t' || c == '\n' ||
			c == '~' || c == '^' || c == ':' ||
			c == '?' || c == '*' || c == '[' ||
			c == '\\'
	}) >= 0 {
		return false
	}
	if strings.Contains(name, "..") ||
		strings.Contains(name, "@{") ||
		strings.Contains(name, "//") ||
		strings.Contains(name, "/.") ||
		strings.Contains(name, ".lock/") ||
		strings.HasSuffix(name, ".lock") {
		return false
	}
	return true
}

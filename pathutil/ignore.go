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
	"fmt"
	"strings"

	"vost.dev/vost/gitglob"
)

// Pattern is one compiled line of a gitignore-style exclude file.
type Pattern struct {
	raw      string
	negate   bool
	dirOnly  bool
	anchored bool
	glob     *gitglob.Glob
}

// CompilePattern compiles a single gitignore-style line. Blank lines and
// lines starting with "#" return (nil, nil): callers should skip them.
//
// Supported syntax (a subset of .gitignore, limited by what [gitglob]
// implements): a leading "!" negates the pattern; a pattern containing a
// "/" other than a single trailing one is anchored to the scope root,
// otherwise it matches a basename at any depth; a trailing "/" restricts
// the pattern to directories. Brace alternation ("{a,b}") is not supported.
func CompilePattern(line string) (*Pattern, error) {
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, nil
	}
	p := &Pattern{raw: line}
	if strings.HasPrefix(line, `\#`) || strings.HasPrefix(line, `\!`) {
		line = line[1:]
	} else if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if line == "" {
		return nil, nil
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
		if line == "" {
			return nil, fmt.Errorf("pathutil: invalid ignore pattern %q", p.raw)
		}
	}

	anchoredLine := strings.TrimPrefix(line, "/")
	p.anchored = anchoredLine != line || strings.Contains(anchoredLine, "/")

	globPattern := anchoredLine
	if !p.anchored {
		globPattern = "**/" + anchoredLine
	}
	g, err := gitglob.Compile(globPattern)
	if err != nil {
		return nil, fmt.Errorf("pathutil: invalid ignore pattern %q: %w", p.raw, err)
	}
	p.glob = g
	return p, nil
}

// Match reports whether rel (a path relative to the scope the pattern was
// loaded from) matches. isDir indicates whether rel names a directory.
func (p *Pattern) Match(rel string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	return p.glob.MatchString(rel)
}

// scopedPattern pairs a compiled Pattern with the scope directory (relative
// to the matcher's root) it was loaded from.
type scopedPattern struct {
	scope   string
	pattern *Pattern
}

// IgnoreMatcher evaluates a sequence of gitignore-style pattern sets loaded
// from different directory depths, the way Git merges a directory's own
// .gitignore with the ones in its ancestors: patterns loaded from a deeper
// scope are considered after (and so override) patterns from a shallower
// one, and within one scope, later lines override earlier ones.
type IgnoreMatcher struct {
	patterns []scopedPattern
}

// NewIgnoreMatcher compiles patterns as a single anonymous scope rooted at
// the matcher root ("").
func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	if err := m.Add("", patterns); err != nil {
		return nil, err
	}
	return m, nil
}

// Add compiles patterns and appends them as a new scope rooted at scope (a
// cleaned repository-relative path, "" for the matcher root). Call Add for
// shallower scopes before deeper ones so that deeper scopes correctly take
// priority.
func (m *IgnoreMatcher) Add(scope string, patterns []string) error {
	for _, line := range patterns {
		p, err := CompilePattern(line)
		if err != nil {
			return err
		}
		if p == nil {
			continue
		}
		m.patterns = append(m.patterns, scopedPattern{scope: scope, pattern: p})
	}
	return nil
}

// Match reports whether rel (a cleaned path relative to the matcher root)
// is ignored: the last pattern, across all scopes, whose scope contains rel
// and which matches it, determines the result (negated patterns un-ignore).
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	ignored := false
	for _, sp := range m.patterns {
		if !HasPrefixDir(rel, sp.scope) {
			continue
		}
		sub := rel
		if sp.scope != "" {
			sub = strings.TrimPrefix(rel, sp.scope+"/")
		}
		if sub == "" {
			continue
		}
		if sp.pattern.Match(sub, isDir) {
			ignored = !sp.pattern.negate
		}
	}
	return ignored
}

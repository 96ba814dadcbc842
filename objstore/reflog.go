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

package objstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vost.dev/vost/githash"
	"vost.dev/vost/object"
)

// ReflogEntry is one line of a ref's reflog: a record of an old-to-new
// object ID transition, who made it, when, and why.
type ReflogEntry struct {
	Old       githash.SHA1
	New       githash.SHA1
	Committer object.User // "Name <email>"
	When      int64       // Unix seconds
	TZOffset  int         // minutes east of UTC
	Message   string
}

// logPath returns the path of the reflog file for name, e.g.
// "logs/refs/heads/main" or "logs/HEAD".
func (r Refs) logPath(name githash.Ref) string {
	return filepath.Join(string(r), "logs", filepath.FromSlash(string(name)))
}

// AppendReflog appends e to the reflog for name, creating the log file (and
// its parent directories) if it does not already exist.
func (r Refs) AppendReflog(name githash.Ref, e ReflogEntry) error {
	path := r.logPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return fmt.Errorf("objstore: append reflog %s: %w", name, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
	if err != nil {
		return fmt.Errorf("objstore: append reflog %s: %w", name, err)
	}
	defer f.Close()
	line := formatReflogLine(e)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("objstore: append reflog %s: %w", name, err)
	}
	return nil
}

// ReadReflog returns every entry in name's reflog, oldest first.
func (r Refs) ReadReflog(name githash.Ref) ([]ReflogEntry, error) {
	path := r.logPath(name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("objstore: read reflog %s: %w", name, err)
	}
	defer f.Close()

	var entries []ReflogEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		e, err := parseReflogLine(line)
		if err != nil {
			return nil, fmt.Errorf("objstore: read reflog %s: %w", name, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("objstore: read reflog %s: %w", name, err)
	}
	return entries, nil
}

// formatReflogLine renders e in Git's reflog text format:
//
//	<old-oid> <new-oid> <name> <email> <timestamp> <tz>\t<message>\n
func formatReflogLine(e ReflogEntry) string {
	sign := "+"
	tz := e.TZOffset
	if tz < 0 {
		sign = "-"
		tz = -tz
	}
	tzStr := fmt.Sprintf("%s%02d%02d", sign, tz/60, tz%60)
	msg := strings.ReplaceAll(e.Message, "\n", " ")
	return fmt.Sprintf("%v %v %s %d %s\t%s\n",
		e.Old, e.New, e.Committer, e.When, tzStr, msg)
}

// parseReflogLine parses one line of Git's reflog text format.
func parseReflogLine(line string) (ReflogEntry, error) {
	var e ReflogEntry
	fields := strings.SplitN(line, "\t", 2)
	if len(fields) != 2 {
		return e, fmt.Errorf("parse reflog line: missing tab separator")
	}
	header, msg := fields[0], fields[1]
	e.Message = msg

	parts := strings.Fields(header)
	if len(parts) < 5 {
		return e, fmt.Errorf("parse reflog line: too few fields")
	}
	old, err := githash.ParseSHA1(parts[0])
	if err != nil {
		return e, fmt.Errorf("parse reflog line: old oid: %w", err)
	}
	newID, err := githash.ParseSHA1(parts[1])
	if err != nil {
		return e, fmt.Errorf("parse reflog line: new oid: %w", err)
	}
	e.Old, e.New = old, newID

	tzStr := parts[len(parts)-1]
	tsStr := parts[len(parts)-2]
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return e, fmt.Errorf("parse reflog line: timestamp: %w", err)
	}
	e.When = ts
	tz, err := parseTZOffset(tzStr)
	if err != nil {
		return e, fmt.Errorf("parse reflog line: tz: %w", err)
	}
	e.TZOffset = tz

	identEnd := len(header) - len(tsStr) - len(tzStr) - 2
	if identEnd < 0 || identEnd > len(header) {
		return e, fmt.Errorf("parse reflog line: malformed ident")
	}
	oidsLen := len(parts[0]) + 1 + len(parts[1]) + 1
	if oidsLen > identEnd {
		return e, fmt.Errorf("parse reflog line: malformed ident")
	}
	ident := strings.TrimSpace(header[oidsLen:identEnd])
	if !strings.Contains(ident, "<") || !strings.Contains(ident, ">") {
		return e, fmt.Errorf("parse reflog line: malformed ident %q", ident)
	}
	e.Committer = object.User(ident)
	return e, nil
}

func parseTZOffset(s string) (int, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, fmt.Errorf("malformed tz offset %q", s)
	}
	hh, err := strconv.Atoi(s[1:3])
	if err != nil {
		return 0, err
	}
	mm, err := strconv.Atoi(s[3:5])
	if err != nil {
		return 0, err
	}
	total := hh*60 + mm
	if s[0] == '-' {
		total = -total
	}
	return total, nil
}

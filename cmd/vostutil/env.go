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

package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"vost.dev/vost"
)

// cmdEnv carries the persistent flags every subcommand needs to open the
// same repository the same way.
type cmdEnv struct {
	dirFlag     *string
	branchFlag  *string
	verboseFlag *bool
	authorFlag  *string
}

func (e *cmdEnv) open() (*vost.Store, error) {
	if *e.verboseFlag {
		logrus.SetLevel(logrus.DebugLevel)
	}
	sig, err := parseAuthor(*e.authorFlag)
	if err != nil {
		return nil, err
	}
	return vost.Open(*e.dirFlag,
		vost.WithSignature(sig),
		vost.WithDefaultBranch(*e.branchFlag),
		vost.WithLogger(logrus.NewEntry(logrus.StandardLogger())),
	)
}

func (e *cmdEnv) head() (vost.Fs, error) {
	st, err := e.open()
	if err != nil {
		return vost.Fs{}, err
	}
	return st.Branch(*e.branchFlag)
}

func parseAuthor(s string) (vost.Signature, error) {
	lt := strings.IndexByte(s, '<')
	gt := strings.IndexByte(s, '>')
	if lt < 0 || gt < lt {
		return vost.Signature{}, fmt.Errorf("invalid --author %q, want \"Name <email>\"", s)
	}
	return vost.Signature{
		Name:  strings.TrimSpace(s[:lt]),
		Email: strings.TrimSpace(s[lt+1 : gt]),
	}, nil
}

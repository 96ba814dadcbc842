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
	"github.com/sirupsen/logrus"
	"vost.dev/vost/githash"
	"vost.dev/vost/object"
)

// Signature identifies the author/committer recorded on every commit a
// Store creates.
type Signature struct {
	Name  string
	Email string
}

func (s Signature) user() (object.User, error) {
	return object.MakeUser(s.Name, s.Email)
}

// config holds the resolved settings for a Store, built up by applying
// Options over defaultConfig.
type config struct {
	signature     Signature
	defaultBranch string
	log           *logrus.Entry
}

func defaultConfig() config {
	return config{
		signature:     Signature{Name: "vost", Email: "vost@localhost"},
		defaultBranch: "main",
		log:           logrus.NewEntry(logrus.StandardLogger()),
	}
}

// Option configures a Store at Open time.
type Option func(*config)

// WithSignature sets the author/committer identity recorded on commits.
// The default is "vost <vost@localhost>".
func WithSignature(sig Signature) Option {
	return func(c *config) {
		c.signature = sig
	}
}

// WithDefaultBranch sets the branch name Open points HEAD at when opening a
// repository that has no HEAD yet; the branch itself comes into existence
// with its first commit. The default is "main".
func WithDefaultBranch(name string) Option {
	return func(c *config) {
		c.defaultBranch = name
	}
}

// WithLogger overrides the logrus entry that a Store logs through. By
// default, Store logs through logrus's standard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(c *config) {
		c.log = log
	}
}

func (c config) defaultBranchRef() githash.Ref {
	return githash.BranchRef(c.defaultBranch)
}

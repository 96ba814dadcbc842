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

// Command vostutil is a thin CLI over vost.Store, useful for poking at a
// repository by hand and as a build-verification harness for the library;
// it is not a production tool in its own right.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dir       string
		branch    string
		verbose   bool
		authorCfg string
	)

	root := &cobra.Command{
		Use:           "vostutil",
		Short:         "Inspect and mutate a vost repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", ".vost", "repository directory")
	root.PersistentFlags().StringVar(&branch, "branch", "main", "branch to operate on")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&authorCfg, "author", "vost <vost@localhost>", "commit author as \"Name <email>\"")

	env := &cmdEnv{dirFlag: &dir, branchFlag: &branch, verboseFlag: &verbose, authorFlag: &authorCfg}

	root.AddCommand(
		newInitCmd(env),
		newWriteCmd(env),
		newCatCmd(env),
		newLsCmd(env),
		newRmCmd(env),
		newMvCmd(env),
		newCpCmd(env),
		newSyncCmd(env),
		newUndoCmd(env),
		newRedoCmd(env),
		newNoteCmd(env),
		newBackupCmd(env),
	)

	logrus.SetLevel(logrus.InfoLevel)
	return root
}

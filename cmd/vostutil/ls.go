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

	"github.com/spf13/cobra"
	"vost.dev/vost"
)

func newLsCmd(env *cmdEnv) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List the entries of a directory at the branch tip",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			fs, err := env.head()
			if err != nil {
				return err
			}
			if !recursive {
				entries, err := fs.ListDir(path)
				if err != nil {
					return fmt.Errorf("ls: %w", err)
				}
				for _, e := range entries {
					printEntry(cmd, e)
				}
				return nil
			}
			w := fs.Walk(path)
			for w.Next() {
				printEntry(cmd, w.Info())
			}
			return w.Err()
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "walk the whole subtree")
	return cmd
}

func printEntry(cmd *cobra.Command, e vost.Info) {
	suffix := ""
	if e.IsDir() {
		suffix = "/"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", e.Path, suffix)
}

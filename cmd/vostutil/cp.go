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

func newCpCmd(env *cmdEnv) *cobra.Command {
	var (
		message string
		toDisk  bool
		fromRef string
	)

	cmd := &cobra.Command{
		Use:   "cp <src> <dst>",
		Short: "Copy a path: within the repository, to disk (--to-disk), or from another branch (--from-ref)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := env.head()
			if err != nil {
				return err
			}

			if toDisk {
				report, err := fs.CopyOut(cmd.Context(), args[0], args[1], vostSyncOptions())
				if err != nil {
					return fmt.Errorf("cp: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "copied %d file(s) to disk\n", len(report.Copied))
				return nil
			}

			if fromRef != "" {
				st, err := env.open()
				if err != nil {
					return err
				}
				other, err := st.Branch(fromRef)
				if err != nil {
					return fmt.Errorf("cp: %w", err)
				}
				if _, err := fs.CopyFromRef(cmd.Context(), other, args[0], args[1], message); err != nil {
					return fmt.Errorf("cp: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "copied %s from %s to %s\n", args[0], fromRef, args[1])
				return nil
			}

			info, err := fs.Stat(args[0])
			if err != nil {
				return fmt.Errorf("cp: %w", err)
			}
			if info.IsDir() {
				if _, err := fs.CopyFromRef(cmd.Context(), fs, args[0], args[1], message); err != nil {
					return fmt.Errorf("cp: %w", err)
				}
			} else {
				content, err := fs.Read(args[0])
				if err != nil {
					return fmt.Errorf("cp: %w", err)
				}
				if _, err := fs.Apply(cmd.Context(), []vost.WriteOp{{Path: args[1], Content: content, Mode: info.Mode}}, nil, message); err != nil {
					return fmt.Errorf("cp: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %s -> %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVar(&toDisk, "to-disk", false, "copy out of the repository onto disk at dst")
	cmd.Flags().StringVar(&fromRef, "from-ref", "", "copy src from the given branch instead of the current one")
	return cmd
}

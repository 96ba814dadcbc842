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

func newRmCmd(env *cmdEnv) *cobra.Command {
	var message string
	var recursive bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove one or more files or directory subtrees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := env.head()
			if err != nil {
				return err
			}
			result, err := fs.Remove(cmd.Context(), args, vost.RemoveOptions{
				Recursive: recursive,
				DryRun:    dryRun,
				Message:   message,
			})
			if err != nil {
				return fmt.Errorf("rm: %w", err)
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "would commit: %s\n", result.Message())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d path(s)\n", len(args))
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "remove directories and everything under them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without committing")
	return cmd
}

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
	"strconv"

	"github.com/spf13/cobra"
)

func newUndoCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "undo [n]",
		Short: "Move the branch back n steps in its reflog (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := stepCount(args)
			if err != nil {
				return err
			}
			fs, err := env.head()
			if err != nil {
				return err
			}
			newFs, err := fs.Undo(cmd.Context(), n)
			if err != nil {
				return fmt.Errorf("undo: %w", err)
			}
			commit, _ := newFs.Commit()
			fmt.Fprintf(cmd.OutOrStdout(), "now at %v\n", commit)
			return nil
		},
	}
}

func newRedoCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "redo [n]",
		Short: "Move the branch forward n steps in its reflog (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := stepCount(args)
			if err != nil {
				return err
			}
			fs, err := env.head()
			if err != nil {
				return err
			}
			newFs, err := fs.Redo(cmd.Context(), n)
			if err != nil {
				return fmt.Errorf("redo: %w", err)
			}
			commit, _ := newFs.Commit()
			fmt.Fprintf(cmd.OutOrStdout(), "now at %v\n", commit)
			return nil
		},
	}
}

func stepCount(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid step count %q", args[0])
	}
	return n, nil
}

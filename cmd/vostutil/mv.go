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

func newMvCmd(env *cmdEnv) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Rename a path, in a single commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := env.head()
			if err != nil {
				return err
			}
			info, err := fs.Stat(args[0])
			if err != nil {
				return fmt.Errorf("mv: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("mv: %q is a directory; move each entry individually", args[0])
			}
			content, err := fs.Read(args[0])
			if err != nil {
				return fmt.Errorf("mv: %w", err)
			}
			_, err = fs.Apply(cmd.Context(),
				[]vost.WriteOp{{Path: args[1], Content: content, Mode: info.Mode}},
				[]string{args[0]},
				message)
			if err != nil {
				return fmt.Errorf("mv: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %s -> %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

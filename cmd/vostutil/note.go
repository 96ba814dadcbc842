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
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newNoteCmd(env *cmdEnv) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "note",
		Short: "Get, set, or list notes in a namespace, independent of the branch's commit history",
	}
	cmd.PersistentFlags().StringVar(&namespace, "namespace", "commits", "notes namespace")

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the note stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := env.open()
			if err != nil {
				return err
			}
			data, err := st.Notes(namespace).Get(args[0])
			if err != nil {
				return fmt.Errorf("note get: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	set := &cobra.Command{
		Use:   "set <key> [local-file]",
		Short: "Set the note under key, reading stdin if local-file is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content []byte
			var err error
			if len(args) == 2 {
				content, err = os.ReadFile(args[1])
			} else {
				content, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("note set: %w", err)
			}
			st, err := env.open()
			if err != nil {
				return err
			}
			if err := st.Notes(namespace).Set(cmd.Context(), args[0], content); err != nil {
				return fmt.Errorf("note set: %w", err)
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list [pattern]",
		Short: "List note keys matching pattern (default all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			st, err := env.open()
			if err != nil {
				return err
			}
			keys, err := st.Notes(namespace).List(pattern)
			if err != nil {
				return fmt.Errorf("note list: %w", err)
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}

	cmd.AddCommand(get, set, list)
	return cmd
}

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
	"vost.dev/vost/object"
)

func newWriteCmd(env *cmdEnv) *cobra.Command {
	var message string
	var executable bool

	cmd := &cobra.Command{
		Use:   "write <path> [local-file]",
		Short: "Write content into the repository at path, reading stdin if local-file is omitted",
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
				return fmt.Errorf("write: %w", err)
			}

			fs, err := env.head()
			if err != nil {
				return err
			}
			mode := object.ModePlain
			if executable {
				mode = object.ModeExecutable
			}
			w := fs.WriterMode(cmd.Context(), args[0], mode, message)
			if _, err := w.Write(content); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			if _, err := w.Close(); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVarP(&executable, "executable", "x", false, "mark the file executable")
	return cmd
}

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
	"vost.dev/vost/mirror"
)

func newBackupCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <other-dir>",
		Short: "Show the branches and tags that differ between this repository and another vost repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := env.open()
			if err != nil {
				return err
			}
			dst, err := vost.Open(args[0])
			if err != nil {
				return fmt.Errorf("backup: %w", err)
			}

			report, err := mirror.Diff(cmd.Context(), mirror.StoreSource{Store: src}, mirror.StoreSource{Store: dst})
			if err != nil {
				return fmt.Errorf("backup: %w", err)
			}
			for _, c := range report.Changes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s -> %s\n", c.Kind, c.Name, c.OldTarget, c.NewTarget)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d ref(s) need backup, %d need restore\n", len(report.Backup), len(report.Restore))
			return nil
		},
	}
}

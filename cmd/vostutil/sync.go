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

var (
	syncDryRun         bool
	syncIgnoreExisting bool
	syncIgnoreErrors   bool
)

func vostSyncOptions() vost.SyncOptions {
	return vost.SyncOptions{
		DryRun:         syncDryRun,
		IgnoreExisting: syncIgnoreExisting,
		IgnoreErrors:   syncIgnoreErrors,
	}
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report what would change without touching anything")
	cmd.Flags().BoolVar(&syncIgnoreExisting, "ignore-existing", false, "skip destination paths that already exist")
	cmd.Flags().BoolVar(&syncIgnoreErrors, "ignore-errors", false, "record per-file errors instead of aborting")
}

func newSyncCmd(env *cmdEnv) *cobra.Command {
	var (
		message string
		out     bool
		mirror  bool
	)

	cmd := &cobra.Command{
		Use:   "sync <local-dir> <repo-path>",
		Short: "Copy between a local directory and a repository path; with --mirror, also delete whatever the source no longer has",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := env.head()
			if err != nil {
				return err
			}
			opts := vostSyncOptions()

			if out {
				var report *vost.Report
				if mirror {
					report, err = fs.SyncOut(cmd.Context(), args[1], args[0], opts)
				} else {
					report, err = fs.CopyOut(cmd.Context(), args[1], args[0], opts)
				}
				if err != nil {
					return fmt.Errorf("sync: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "copied %d, deleted %d\n", len(report.Copied), len(report.Deleted))
				return nil
			}

			if mirror {
				_, report, err := fs.SyncIn(cmd.Context(), args[0], args[1], message, opts)
				if err != nil {
					return fmt.Errorf("sync: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "copied %d, deleted %d\n", len(report.Copied), len(report.Deleted))
				return nil
			}
			_, report, err := fs.CopyIn(cmd.Context(), args[0], args[1], message, opts)
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d file(s)\n", len(report.Copied))
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVar(&out, "out", false, "copy from the repository to disk instead of disk into the repository")
	cmd.Flags().BoolVar(&mirror, "mirror", false, "delete whatever the source no longer has (sync_in/sync_out), instead of a plain copy")
	addSyncFlags(cmd)
	return cmd
}

// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/entity"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/manifest"
)

func newApplyCmd(opts *globalOptions) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "apply -f MANIFEST",
		Short: "Create and delete entities to match a manifest",
		Example: `  restful apply -f entities.yaml
  restful apply -f entities.yaml --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := manifest.Load(file)
			if err != nil {
				return err
			}

			provider, err := opts.provider(cmd.Context())
			if err != nil {
				return err
			}

			changes, err := provider.Apply(cmd.Context(), m.Resources(), dryRun)
			printChanges(opts, changes, dryRun)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "filename", "f", "", "YAML manifest declaring the entities")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the changes without making them")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}

func printChanges(opts *globalOptions, changes []entity.Change, dryRun bool) {
	suffix := ""
	if dryRun {
		suffix = " (dry run)"
	}
	for _, c := range changes {
		if c.Action == entity.ActionUnchanged {
			fmt.Fprintf(opts.out, "entity/%s unchanged\n", c.Name)
			continue
		}
		if c.ID != 0 {
			fmt.Fprintf(opts.out, "entity/%s %s [id=%d]%s\n", c.Name, c.Action, c.ID, suffix)
		} else {
			fmt.Fprintf(opts.out, "entity/%s %s%s\n", c.Name, c.Action, suffix)
		}
	}
}

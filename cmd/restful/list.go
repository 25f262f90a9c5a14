// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List entities that exist in the API",
		Example: `  restful list --url https://api.example.com/entities`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider, err := opts.provider(cmd.Context())
			if err != nil {
				return err
			}

			entities, err := provider.Instances(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				docs := make([]map[string]interface{}, 0, len(entities))
				for _, e := range entities {
					docs = append(docs, e.Properties())
				}
				encoder := json.NewEncoder(opts.out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(docs)
			}

			if len(entities) == 0 {
				_, err := fmt.Fprintln(opts.out, "No entities found.")
				return err
			}

			w := tabwriter.NewWriter(opts.out, 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "ID\tNAME\tATTRIBUTES"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
			for _, e := range entities {
				attrs := "-"
				if e.Attributes != nil {
					raw, err := json.Marshal(e.Attributes)
					if err != nil {
						return fmt.Errorf("failed to encode attributes of %s: %w", e.Name, err)
					}
					attrs = string(raw)
				}
				if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, e.Name, attrs); err != nil {
					return fmt.Errorf("failed to write entity: %w", err)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print entities as JSON")

	return cmd
}

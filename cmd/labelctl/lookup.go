package main

import (
	"fmt"
	"strings"

	"label-analyzer/internal/app"
	"label-analyzer/internal/core/reference"

	"github.com/spf13/cobra"
)

func newLookupCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup [name]",
		Short: "Find the reference entry for an ingredient name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := app.LoadReference(c.cfg.Reference)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			ing, kind := reference.NewMatcher(idx).FindWithKind(query)
			if ing == nil {
				return fmt.Errorf("no reference ingredient matches %q", query)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]interface{}{
					"query":      query,
					"match":      kind,
					"ingredient": ing,
				})
			}

			fmt.Fprintf(out, "%s (%s match)\n", ing.Name, kind)
			fmt.Fprintf(out, "  risk:     %d/10\n", ing.Risk)
			if len(ing.Aliases) > 0 {
				fmt.Fprintf(out, "  aliases:  %s\n", strings.Join(ing.Aliases, ", "))
			}
			if len(ing.Concerns) > 0 {
				fmt.Fprintf(out, "  concerns: %s\n", strings.Join(ing.Concerns, ", "))
			}
			if ing.HealthImpact != "" {
				fmt.Fprintf(out, "  impact:   %s\n", ing.HealthImpact)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the match as JSON")
	return cmd
}

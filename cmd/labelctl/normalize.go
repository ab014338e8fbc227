package main

import (
	"fmt"
	"io"
	"os"

	"label-analyzer/internal/app"

	"github.com/spf13/cobra"
)

func newNormalizeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Parse a raw model response and correct it against the reference data",
		Long: "Reads a raw model response (the text returned by the AI provider) from a file or stdin,\n" +
			"parses it and overrides the risk data of every ingredient found in the reference list.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), c.cfg, app.Options{Offline: true})
			if err != nil {
				return err
			}
			defer a.Close()

			report, sum, err := a.Service.NormalizeRaw(string(content))
			if err != nil {
				return err
			}

			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "verified %d of %d ingredients\n", sum.Verified, sum.Total)
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

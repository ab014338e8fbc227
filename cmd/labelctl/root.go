package main

import (
	"encoding/json"
	"io"

	"label-analyzer/internal/infrastructure/config"
	"label-analyzer/internal/pkg/common"

	"github.com/spf13/cobra"
)

// cli 子命令共用的狀態
type cli struct {
	cfg       *config.Config
	reference string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "labelctl",
		Short:         "Food label ingredient analysis tool",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if c.reference != "" {
				cfg.Reference.Path = c.reference
				cfg.Reference.Required = true
			}
			// 預設不輸出日誌，避免混入命令輸出
			if c.verbose {
				if err := common.InitLogger(cfg.LogLevel, ""); err != nil {
					return err
				}
			}
			c.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.reference, "reference", "", "path to a reference ingredients JSON file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable logging")

	root.AddCommand(
		newLookupCmd(c),
		newNormalizeCmd(c),
		newAnalyzeCmd(c),
	)
	return root
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"os"

	"label-analyzer/internal/app"
	"label-analyzer/internal/core/image"
	"label-analyzer/internal/core/label"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(c *cli) *cobra.Command {
	var (
		providerName string
		userID       string
	)

	cmd := &cobra.Command{
		Use:   "analyze [image...]",
		Short: "Analyze one or more label photos with the configured AI provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > c.cfg.Image.MaxImages {
				return fmt.Errorf("too many images: %d (max %d)", len(args), c.cfg.Image.MaxImages)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, c.cfg.Server.RequestTimeout)
			defer cancel()

			a, err := app.New(ctx, c.cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			images := make([]*image.Image, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				img, err := a.Images.FromBytes(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				images = append(images, img)
			}

			result, err := a.Service.Analyze(ctx, &label.AnalyzeRequest{
				Images:   images,
				Provider: providerName,
				UserID:   userID,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "AI provider (claude or openai), defaults to AI_PROVIDER")
	cmd.Flags().StringVar(&userID, "user", "", "record the scan in the history of this user")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Siddarth2230/shortcode/internal/logging"
	"github.com/Siddarth2230/shortcode/internal/service"
	"github.com/Siddarth2230/shortcode/pkg/idgen"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Show the sequence number a server would start from",
	Long: `Connect to the configured store and print the counter seed and the
first code a freshly started server would issue. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

		ctx, cancel := context.WithTimeout(cmd.Context(), startupTimeout)
		defer cancel()

		repo, closeStore, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		seed, err := service.SeedCounter(ctx, repo)
		if err != nil {
			logger.Error("cannot seed counter", slog.Any("error", err))
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seed\t%d\nfirst code\t%s\n", seed, idgen.Encode(seed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

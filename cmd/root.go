package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/collidium/collidium-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "collidium",
	Short: "Construction-collision proximity pipeline",
	Long:  "Cleans city collision and building-permit extracts, joins collisions to nearby construction sites, and serves before/during/after collision counts for visualization.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

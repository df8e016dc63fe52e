package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sustainboard/esg-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "esg-cli",
	Short: "ESG scoring and compliance platform",
	Long:  "Scores company ESG data across the three pillars, maps it to BRSR readiness, derives remediation tasks and serves the tenant API.",
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

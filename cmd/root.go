package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/xgrid/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "xgrid",
	Short: "Average yarding distance by the grid method",
	Long: `Overlays a reference grid on forest stand maps, counts the cells covered
by the harvest area and derives the average yarding distance to a chosen
landing, producing the worksheet used in harvest planning.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return cfg.Validate()
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

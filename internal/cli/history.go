package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fxconvert/internal/app"
)

var (
	historyLimit int
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display recently journaled conversions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}
		if historyPrune < 0 {
			return fmt.Errorf("--prune-older-than must not be negative")
		}

		opts := app.HistoryOptions{
			Limit:          historyLimit,
			PruneOlderThan: historyPrune,
		}
		return getApp().History(cmd.Context(), opts)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of conversions to display")
	historyCmd.Flags().DurationVar(&historyPrune, "prune-older-than", 0, "Delete journaled conversions older than this age (e.g. 720h)")
}

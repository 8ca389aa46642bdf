package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fxconvert/internal/app"
)

var (
	trendFrom    string
	trendTo      string
	trendDays    int
	trendCSVPath string
	trendPNGPath string
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Print a synthetic historical rate series and optionally export it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if trendFrom == "" || trendTo == "" {
			return fmt.Errorf("--from and --to must be provided")
		}
		if trendDays < 0 {
			return fmt.Errorf("--days must not be negative")
		}

		opts := app.TrendOptions{
			From:    trendFrom,
			To:      trendTo,
			Days:    trendDays,
			CSVPath: trendCSVPath,
			PNGPath: trendPNGPath,
		}
		return getApp().Trend(cmd.Context(), opts)
	},
}

func init() {
	trendCmd.Flags().StringVar(&trendFrom, "from", "USD", "Source currency code")
	trendCmd.Flags().StringVar(&trendTo, "to", "EUR", "Target currency code")
	trendCmd.Flags().IntVar(&trendDays, "days", 0, "Number of days (defaults to config, clamped to 2..365)")
	trendCmd.Flags().StringVar(&trendCSVPath, "csv", "", "Path to write CSV data")
	trendCmd.Flags().StringVar(&trendPNGPath, "png", "", "Path to write PNG chart")
}

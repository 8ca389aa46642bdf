package cli

import (
	"github.com/spf13/cobra"
)

var simulateBase string

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Send a test stale-rate alert through the configured channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SimulateAlert(cmd.Context(), simulateBase)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateBase, "base", "USD", "Base currency named in the alert")
}

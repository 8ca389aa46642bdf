package cli

import (
	"github.com/spf13/cobra"
)

var probeBase string

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Fetch rates once from the provider, bypassing the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Probe(cmd.Context(), probeBase)
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeBase, "base", "USD", "Base currency to fetch")
}

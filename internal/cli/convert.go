package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fxconvert/internal/app"
)

var convertInteractive bool

var convertCmd = &cobra.Command{
	Use:   "convert AMOUNT FROM TO",
	Short: "Convert an amount between two currencies",
	Example: `  fxconvert convert 100 USD EUR
  fxconvert convert --interactive`,
	Args: func(cmd *cobra.Command, args []string) error {
		if convertInteractive {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(3)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if convertInteractive {
			return getApp().Interactive(cmd.Context())
		}

		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], errors.Unwrap(err))
		}

		opts := app.ConvertOptions{
			Amount: amount,
			From:   args[1],
			To:     args[2],
		}
		return getApp().Convert(cmd.Context(), opts)
	},
}

func init() {
	convertCmd.Flags().BoolVarP(&convertInteractive, "interactive", "i", false, "Prompt for conversions until the user stops")
}

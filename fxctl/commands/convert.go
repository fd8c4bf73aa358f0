package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"currency-api/domain"
)

// convert "<amount> <CODE>" --to XXX: convert through the API.
func convertCmd() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   `convert "<amount> <CODE>"`,
		Short: "Convert an amount into another currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := domain.ParseCurrency(args[0])
			if err != nil {
				return err
			}
			code, err := domain.ParseCode(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			converted, err := api.Convert(cmd.Context(), from, code)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), converted)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "currency to convert into")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// rate <from> <to>: the value of one unit of from in to.
func rateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <from> <to>",
		Short: "Show the exchange rate between two currencies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := domain.ParseCode(args[0])
			if err != nil {
				return err
			}
			to, err := domain.ParseCode(args[1])
			if err != nil {
				return err
			}

			rate, err := api.Rate(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(float64(rate), 'f', -1, 64))
			return nil
		},
	}
}

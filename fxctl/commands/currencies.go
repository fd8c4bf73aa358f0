package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// currencies: list the API's currency directory, optionally syncing it from the provider first.
func currenciesCmd() *cobra.Command {
	var sync bool

	cmd := &cobra.Command{
		Use:   "currencies",
		Short: "List known currencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sync {
				fetched, err := upstream.Currencies(cmd.Context())
				if err != nil {
					return err
				}
				if err := api.PushCurrencies(cmd.Context(), fetched); err != nil {
					return err
				}
			}

			currencies, err := api.Currencies(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range currencies {
				fmt.Fprintf(tw, "%v\t%v\n", c.Code, c.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "copy the provider's currency directory to the API first")
	return cmd
}

package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// fetch: load the latest rates from the provider, optionally pushing them to the API.
func fetchCmd() *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the latest rates from Open Exchange Rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := upstream.Latest(cmd.Context())
			if err != nil {
				return err
			}

			if !push {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snapshot)
			}

			accepted, err := api.PushRates(cmd.Context(), snapshot)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d rates (base %v, %v)\n", accepted, snapshot.Base(), snapshot.Timestamp().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().BoolVar(&push, "push", false, "push the fetched rates to the API")
	return cmd
}

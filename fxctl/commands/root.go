package commands

import (
	"os"

	"github.com/spf13/cobra"

	"currency-api/client"
	"currency-api/provider"
)

var (
	apiURL   string
	oxrURL   string
	oxrToken string

	api      *client.Client
	upstream provider.Provider
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fxctl",
		Short:        "Fetch, push and convert exchange rates",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			api = client.New(apiURL)
			upstream = provider.New(oxrURL, oxrToken)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api", envOr("FXCTL_API", "http://localhost:3000"), "currency API base URL")
	root.PersistentFlags().StringVar(&oxrURL, "oxr-url", envOr("OXR_BASE_URL", provider.ApiUrlBase), "Open Exchange Rates base URL")
	root.PersistentFlags().StringVar(&oxrToken, "oxr-token", os.Getenv("OXR_TOKEN"), "Open Exchange Rates token")

	root.AddCommand(fetchCmd(), currenciesCmd(), convertCmd(), rateCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

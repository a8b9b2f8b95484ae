package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/raphaelgruber/closeout/internal/client"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is up and serves this campaign",
	Long: `Check the server health endpoint and compare its campaign with the
one this CLI targets.

Examples:
  closeout health
  closeout health --server http://salon:5000`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	status, err := apiClient.Health(context.Background())
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if slug := targetCampaign(); status.Campaign != slug {
		return fmt.Errorf("server serves campaign %q, not %q", status.Campaign, slug)
	}
	return printJSON(cmd.OutOrStdout(), status)
}

// campaignError explains a 404 from a campaign route.
func campaignError(action string, err error) error {
	if client.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%s: server does not serve campaign %q (use --campaign): %w", action, targetCampaign(), err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// Package cli provides the command-line interface for closeout.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/raphaelgruber/closeout/internal/client"
	"github.com/raphaelgruber/closeout/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	campaign  string

	// Global config and API client
	cfg       config.Config
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "closeout",
	Short: "Operator tools for the conversation close-out service",
	Long: `Closeout inspects what the close-out service does with a conversation:
flatten a transcript locally, or ask a running server to resolve a
natural-language date/time, summarize a transcript or quote an event.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		endpoint := cfg.ServerURL
		if serverURL != "" {
			endpoint = serverURL
		}
		apiClient = client.New(endpoint, targetCampaign(), cfg.ClientTimeout)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default $CLOSEOUT_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&campaign, "campaign", "", "campaign slug (default from campaign file)")

	rootCmd.AddCommand(flattenCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
}

// targetCampaign is the --campaign flag or the configured campaign slug.
func targetCampaign() string {
	if campaign != "" {
		return campaign
	}
	return cfg.Campaign.Slug
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printJSON writes v as JSON, indented when w is a terminal.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if isTerminal(w) {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

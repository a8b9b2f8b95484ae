package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <date> <time>",
	Short: "Resolve a natural-language date and time on the server",
	Long: `Ask the server to resolve a spoken date and time into the campaign's
time zone. Prints the full resolution, including low-confidence results.

Examples:
  closeout resolve "mañana" "7 de la noche"
  closeout resolve "el próximo martes" "a mediodía"`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

var quoteCmd = &cobra.Command{
	Use:   "quote <tipo> <invitados>",
	Short: "Quote an event price on the server",
	Long: `Estimate the price of an event from its type and guest count.

Examples:
  closeout quote boda 120
  closeout quote conferencia 40`,
	Args: cobra.ExactArgs(2),
	RunE: runQuote,
}

func runResolve(cmd *cobra.Command, args []string) error {
	res, err := apiClient.ResolveDatetime(context.Background(), args[0], args[1])
	if err != nil {
		return campaignError("resolve", err)
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runQuote(cmd *cobra.Command, args []string) error {
	guests, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid guest count %q: %w", args[1], err)
	}

	quote, err := apiClient.Quote(context.Background(), args[0], guests)
	if err != nil {
		return campaignError("quote", err)
	}
	return printJSON(cmd.OutOrStdout(), quote)
}

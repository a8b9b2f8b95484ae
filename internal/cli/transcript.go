package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/raphaelgruber/closeout/internal/models"
	"github.com/raphaelgruber/closeout/internal/transcript"
	"github.com/spf13/cobra"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten <file.json>",
	Short: "Render a transcript the way it is written to the sheet",
	Long: `Render a transcript as a single line, skipping empty turns.

The file holds either a JSON array of turns or an after-call payload with a
"transcript" field. Use "-" to read from stdin. Runs locally.

Examples:
  closeout flatten transcript.json
  cat payload.json | closeout flatten -`,
	Args: cobra.ExactArgs(1),
	RunE: runFlatten,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file.json>",
	Short: "Summarize a transcript on the server",
	Long: `Send a transcript to the server and print its one-paragraph summary.

Examples:
  closeout summarize transcript.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func runFlatten(cmd *cobra.Command, args []string) error {
	turns, err := readTranscript(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), transcript.Flatten(turns))
	return err
}

func runSummarize(cmd *cobra.Command, args []string) error {
	turns, err := readTranscript(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	summary, err := apiClient.Summarize(context.Background(), turns)
	if err != nil {
		return campaignError("summarize", err)
	}
	return printJSON(cmd.OutOrStdout(), map[string]string{"summary": summary})
}

// readTranscript loads turns from path ("-" for stdin).
func readTranscript(stdin io.Reader, path string) ([]models.Turn, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return parseTranscript(data)
}

func parseTranscript(data []byte) ([]models.Turn, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var turns []models.Turn
		if err := json.Unmarshal(data, &turns); err != nil {
			return nil, fmt.Errorf("parse transcript: %w", err)
		}
		return turns, nil
	}

	var payload struct {
		Transcript []models.Turn `json:"transcript"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return payload.Transcript, nil
}

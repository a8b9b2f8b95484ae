package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/raphaelgruber/closeout/internal/models"
)

// Sheets appends rows to tabs of a Google Sheets spreadsheet.
type Sheets struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
}

// Compile-time check that Sheets implements Appender.
var _ Appender = (*Sheets)(nil)

// NewSheets creates a Google Sheets appender. credentialsFile is a service account
// JSON key; when empty, application default credentials are used.
func NewSheets(ctx context.Context, spreadsheetID, credentialsFile string) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID required")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return NewSheetsWithOptions(ctx, spreadsheetID, opts...)
}

// NewSheetsWithOptions creates a Google Sheets appender with explicit client options.
func NewSheetsWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID required")
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Sheets{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
	}, nil
}

// Append writes the header row when the tab is empty, then appends row.
func (s *Sheets) Append(ctx context.Context, sheet string, headers []string, row models.Row) error {
	if err := s.ensureHeaders(ctx, sheet, headers); err != nil {
		return err
	}

	vr := &sheets.ValueRange{Values: [][]any{ordered(headers, row)}}
	_, err := s.values.Append(s.spreadsheetID, a1(sheet, "A1"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}

// a1 builds an A1 range on sheet, quoting the name so spaces and apostrophes survive.
func a1(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

func (s *Sheets) ensureHeaders(ctx context.Context, sheet string, headers []string) error {
	resp, err := s.values.Get(s.spreadsheetID, a1(sheet, "1:1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", sheet, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}

	slog.Info("writing sheet header", "sheet", sheet, "columns", len(headers))
	_, err = s.values.Update(s.spreadsheetID, a1(sheet, "A1"), &sheets.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", sheet, err)
	}
	return nil
}

package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/raphaelgruber/closeout/internal/models"
)

// CSV writes each sheet to <dir>/<sheet>.csv, adding the header line to new files.
// Appends are serialized so concurrent requests never interleave rows.
type CSV struct {
	dir string
	mu  sync.Mutex
}

// Compile-time check that CSV implements Appender.
var _ Appender = (*CSV)(nil)

// NewCSV creates a CSV appender rooted at dir, creating the directory if needed.
func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv dir: %w", err)
	}
	return &CSV{dir: dir}, nil
}

// Path returns the file a sheet is written to.
func (c *CSV) Path(sheet string) string {
	return filepath.Join(c.dir, sheet+".csv")
}

// Append writes row to the sheet's file.
func (c *CSV) Append(ctx context.Context, sheet string, headers []string, row models.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.Path(sheet), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", sheet, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", sheet, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(headers); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	values := ordered(headers, row)
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = cell(v)
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", sheet, err)
	}
	return nil
}

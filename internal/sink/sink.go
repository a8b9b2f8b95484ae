// Package sink appends records to tabular destinations in a fixed header order.
package sink

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/closeout/internal/models"
)

// Appender appends one row to a named sheet. Values are written in headers order;
// headers missing from the row and nil values are written empty, and row keys not
// listed in headers are ignored.
type Appender interface {
	Append(ctx context.Context, sheet string, headers []string, row models.Row) error
}

// ordered returns the row values in header order.
func ordered(headers []string, row models.Row) []any {
	values := make([]any, len(headers))
	for i, h := range headers {
		v, ok := row[h]
		if !ok || v == nil {
			values[i] = ""
			continue
		}
		values[i] = v
	}
	return values
}

// cell formats a value as CSV text.
func cell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	default:
		return fmt.Sprint(x)
	}
}

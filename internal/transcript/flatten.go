// Package transcript renders conversation transcripts as single-line text.
package transcript

import (
	"strings"

	"github.com/raphaelgruber/closeout/internal/models"
)

// Separator joins rendered turns.
const Separator = " | "

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Flatten renders turns as "ROLE: content" joined by Separator.
// Turns without content are skipped. Output is stable for a given input
// because it is embedded in prompts and persisted rows.
func Flatten(turns []models.Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		content := strings.TrimSpace(newlines.Replace(t.Content))
		if content == "" {
			continue
		}
		parts = append(parts, strings.ToUpper(string(t.Role))+": "+content)
	}
	return strings.Join(parts, Separator)
}

// HasContent reports whether at least one turn would survive flattening.
func HasContent(turns []models.Turn) bool {
	for _, t := range turns {
		if strings.TrimSpace(t.Content) != "" {
			return true
		}
	}
	return false
}

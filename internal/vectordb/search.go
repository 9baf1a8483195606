package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("--- Result %d (score: %.4f) ---\n", i+1, r.Score))

		if r.Document.Metadata.Title != "" {
			sb.WriteString(fmt.Sprintf("Title: %s\n", r.Document.Metadata.Title))
		}
		sb.WriteString(fmt.Sprintf("Source: %s (%s)\n", r.Document.Metadata.SourceID, r.Document.Metadata.SourceType))
		if r.Document.Metadata.Date != "" {
			sb.WriteString(fmt.Sprintf("Date: %s\n", r.Document.Metadata.Date))
		}
		if r.Document.Metadata.Category != "" {
			sb.WriteString(fmt.Sprintf("Category: %s\n", r.Document.Metadata.Category))
		}

		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

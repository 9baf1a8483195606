// Package ingest discovers corpus files, turns them into source items, and
// drives the full-build and refresh pipelines.
package ingest

import "github.com/vitalkb/vitalkb/internal/vectordb"

// SourceItem is one corpus document before chunking: a book chapter file, a
// newsletter issue, or a forum thread. Key is the stable identifier the
// content tracker hashes against.
type SourceItem struct {
	Key        string
	SourceType vectordb.SourceType
	Title      string
	Date       string
	Category   string
	Content    string
}

// Metadata builds the chunk metadata every chunk of this item inherits.
func (it SourceItem) Metadata() vectordb.Metadata {
	return vectordb.Metadata{
		SourceType: it.SourceType,
		SourceID:   it.Key,
		Title:      it.Title,
		Date:       it.Date,
		Category:   it.Category,
	}
}

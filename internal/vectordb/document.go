package vectordb

// SourceType categorizes where a document chunk originated.
type SourceType string

const (
	SourceBook       SourceType = "book"
	SourceNewsletter SourceType = "newsletter"
	SourceForum      SourceType = "forum"
)

// Metadata holds structured information about a document chunk.
// Well-known fields are typed; Extra carries anything a new source type
// needs without a schema change.
type Metadata struct {
	SourceType SourceType        `json:"source_type"`
	SourceID   string            `json:"source_id"`
	Title      string            `json:"title,omitempty"`
	Date       string            `json:"date,omitempty"`
	Category   string            `json:"category,omitempty"`
	ChunkIndex int               `json:"chunk_index"`
	Deleted    bool              `json:"deleted,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Field returns the metadata value for a filter key, checking well-known
// fields first and falling back to the Extra map.
func (m Metadata) Field(key string) (string, bool) {
	switch key {
	case "source_type":
		return string(m.SourceType), true
	case "source_id":
		return m.SourceID, true
	case "title":
		return m.Title, true
	case "date":
		return m.Date, true
	case "category":
		return m.Category, true
	}
	v, ok := m.Extra[key]
	return v, ok
}

// Matches reports whether every key in filter equals the corresponding
// metadata value (exact-match AND semantics).
func (m Metadata) Matches(filter map[string]string) bool {
	for key, want := range filter {
		got, ok := m.Field(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Document is the unit of storage and retrieval.
// Embedding is only populated during ingestion; once the vector has been
// written into the index the record is kept without it (the index is the
// source of truth for vector data).
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata"`
	Embedding []float32 `json:"-"`
}

// SearchResult pairs a document with its similarity score.
// Higher scores are more relevant.
type SearchResult struct {
	Document Document
	Score    float32
}

// Package chunker splits raw corpus text into overlapping retrieval units.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/vitalkb/vitalkb/internal/vectordb"
)

// DefaultMaxSize is the default chunk size in characters.
const DefaultMaxSize = 1000

// DefaultOverlap is the default trailing context shared between
// consecutive chunks, in characters.
const DefaultOverlap = 200

var (
	headingRe  = regexp.MustCompile(`(?m)^#{1,6} .*$`)
	sentenceRe = regexp.MustCompile(`[^.!?\n]+[.!?]+[\s]*|[^.!?\n]+\n?`)
)

// Chunk splits text into segments of at most maxSize characters, preferring
// section-heading boundaries for long-form content and sentence boundaries
// otherwise, falling back to hard cuts for pathological input. Consecutive
// chunks within a section share trailing context of at least overlap
// characters. Every chunk inherits a copy of meta plus its chunk index and
// a stable content-derived id. Empty or whitespace-only input yields no
// chunks.
func Chunk(text string, meta vectordb.Metadata, maxSize, overlap int) []vectordb.Document {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize / 4
	}

	var pieces []string
	for _, section := range splitSections(text) {
		pieces = append(pieces, splitSection(section, maxSize, overlap)...)
	}

	docs := make([]vectordb.Document, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		m := meta
		if meta.Extra != nil {
			m.Extra = make(map[string]string, len(meta.Extra))
			for k, v := range meta.Extra {
				m.Extra[k] = v
			}
		}
		idx := len(docs)
		m.ChunkIndex = idx
		docs = append(docs, vectordb.Document{
			ID:       chunkID(meta.SourceID, idx, piece),
			Content:  piece,
			Metadata: m,
		})
	}
	return docs
}

// splitSections cuts text at markdown headings so chapter and section
// boundaries never end up mid-chunk. Text without headings is a single
// section.
func splitSections(text string) []string {
	locs := headingRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var sections []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			sections = append(sections, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	sections = append(sections, text[prev:])
	return sections
}

// splitSection breaks one section into maxSize-bounded chunks at sentence
// boundaries, carrying at least overlap characters of trailing sentences
// into the next chunk.
func splitSection(section string, maxSize, overlap int) []string {
	if len(section) <= maxSize {
		return []string{section}
	}

	sentences := sentenceRe.FindAllString(section, -1)
	if len(sentences) == 0 {
		sentences = []string{section}
	}

	// A single sentence longer than maxSize gets hard character cuts.
	var units []string
	for _, s := range sentences {
		for len(s) > maxSize {
			units = append(units, s[:maxSize])
			s = s[maxSize-overlap:]
		}
		if s != "" {
			units = append(units, s)
		}
	}

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, ""))

		// Carry trailing sentences into the next chunk until the overlap
		// budget is covered.
		var carry []string
		carryLen := 0
		for i := len(current) - 1; i >= 0 && carryLen < overlap; i-- {
			carry = append([]string{current[i]}, carry...)
			carryLen += len(current[i])
		}
		// Never let the carried context alone fill the next chunk.
		if carryLen >= maxSize {
			carry, carryLen = nil, 0
		}
		current = carry
		currentLen = carryLen
	}

	for _, u := range units {
		if currentLen+len(u) > maxSize && len(current) > 0 {
			flush()
			// Drop the carried context when it would push this chunk
			// over the size bound.
			if currentLen+len(u) > maxSize {
				current, currentLen = nil, 0
			}
		}
		current = append(current, u)
		currentLen += len(u)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}

// chunkID derives a stable identifier from the source key, chunk index,
// and leading text, so re-chunking unchanged content yields the same ids.
func chunkID(sourceID string, index int, content string) string {
	lead := content
	if len(lead) > 64 {
		lead = lead[:64]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", sourceID, index, lead)))
	return hex.EncodeToString(sum[:16])
}

package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vitalkb/vitalkb/internal/vectordb"
)

func bookMeta() vectordb.Metadata {
	return vectordb.Metadata{
		SourceType: vectordb.SourceBook,
		SourceID:   "book/vitamins.md",
		Title:      "Vitamins",
	}
}

// sentences produces n numbered sentences of uniform length so chunk
// boundaries are easy to reason about.
func sentences(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "Sentence number %04d carries some filler words. ", i)
	}
	return sb.String()
}

func TestChunk_Empty(t *testing.T) {
	if docs := Chunk("", bookMeta(), 1000, 200); docs != nil {
		t.Errorf("empty input produced %d chunks", len(docs))
	}
	if docs := Chunk("   \n\t  ", bookMeta(), 1000, 200); docs != nil {
		t.Errorf("whitespace input produced %d chunks", len(docs))
	}
}

func TestChunk_ShortText(t *testing.T) {
	text := "Vitamin D regulates calcium absorption."
	docs := Chunk(text, bookMeta(), 1000, 200)
	if len(docs) != 1 {
		t.Fatalf("got %d chunks, want 1", len(docs))
	}
	if docs[0].Content != text {
		t.Errorf("content: got %q, want %q", docs[0].Content, text)
	}
	if docs[0].Metadata.ChunkIndex != 0 {
		t.Errorf("chunk index: got %d, want 0", docs[0].Metadata.ChunkIndex)
	}
	if docs[0].Metadata.SourceID != "book/vitamins.md" {
		t.Errorf("source id not inherited: %q", docs[0].Metadata.SourceID)
	}
	if docs[0].ID == "" {
		t.Error("chunk has no id")
	}
}

func TestChunk_SizeBound(t *testing.T) {
	const maxSize, overlap = 200, 50
	docs := Chunk(sentences(40), bookMeta(), maxSize, overlap)
	if len(docs) < 2 {
		t.Fatalf("got %d chunks, expected a multi-chunk split", len(docs))
	}
	for i, doc := range docs {
		if len(doc.Content) > maxSize {
			t.Errorf("chunk %d has %d chars, max is %d", i, len(doc.Content), maxSize)
		}
		if doc.Metadata.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, doc.Metadata.ChunkIndex)
		}
	}
}

func TestChunk_Coverage(t *testing.T) {
	text := sentences(40)
	docs := Chunk(text, bookMeta(), 200, 50)

	var all strings.Builder
	for _, doc := range docs {
		all.WriteString(doc.Content)
		all.WriteString(" ")
	}
	joined := all.String()
	for i := 0; i < 40; i++ {
		marker := fmt.Sprintf("Sentence number %04d", i)
		if !strings.Contains(joined, marker) {
			t.Errorf("sentence %d missing from chunk output", i)
		}
	}
}

func TestChunk_Overlap(t *testing.T) {
	docs := Chunk(sentences(40), bookMeta(), 200, 50)
	if len(docs) < 2 {
		t.Fatalf("got %d chunks, expected a multi-chunk split", len(docs))
	}
	// Consecutive chunks share trailing context: the head of each chunk
	// after the first is a sentence carried over from its predecessor.
	for i := 1; i < len(docs); i++ {
		head := docs[i].Content
		if len(head) > 30 {
			head = head[:30]
		}
		if !strings.Contains(docs[i-1].Content, head) {
			t.Errorf("chunk %d does not start with context from chunk %d", i, i-1)
		}
	}
}

func TestChunk_SplitsAtHeadings(t *testing.T) {
	text := "# Vitamin D\n\nRegulates calcium absorption.\n\n# Magnesium\n\nSupports muscle recovery.\n"
	docs := Chunk(text, bookMeta(), 1000, 200)
	if len(docs) != 2 {
		t.Fatalf("got %d chunks, want one per section", len(docs))
	}
	if !strings.HasPrefix(docs[0].Content, "# Vitamin D") {
		t.Errorf("first chunk: %q", docs[0].Content)
	}
	if !strings.HasPrefix(docs[1].Content, "# Magnesium") {
		t.Errorf("second chunk: %q", docs[1].Content)
	}
}

func TestChunk_HardCutsLongSentence(t *testing.T) {
	// No sentence boundaries at all: the chunker falls back to character
	// cuts and still honors the size bound.
	text := strings.Repeat("x", 2500)
	docs := Chunk(text, bookMeta(), 1000, 100)
	if len(docs) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(docs))
	}
	for i, doc := range docs {
		if len(doc.Content) > 1000 {
			t.Errorf("chunk %d has %d chars", i, len(doc.Content))
		}
	}
}

func TestChunk_StableIDs(t *testing.T) {
	text := sentences(40)
	first := Chunk(text, bookMeta(), 200, 50)
	second := Chunk(text, bookMeta(), 200, 50)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	seen := make(map[string]bool, len(first))
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d id not stable: %q vs %q", i, first[i].ID, second[i].ID)
		}
		if seen[first[i].ID] {
			t.Errorf("duplicate chunk id %q", first[i].ID)
		}
		seen[first[i].ID] = true
	}

	// A different source key yields different ids for identical content.
	otherMeta := bookMeta()
	otherMeta.SourceID = "book/minerals.md"
	other := Chunk(text, otherMeta, 200, 50)
	if other[0].ID == first[0].ID {
		t.Error("chunk ids collide across source keys")
	}
}

func TestChunk_CopiesExtraMetadata(t *testing.T) {
	meta := bookMeta()
	meta.Extra = map[string]string{"chapter": "7"}
	docs := Chunk(sentences(40), meta, 200, 50)
	if len(docs) < 2 {
		t.Fatalf("got %d chunks, expected a multi-chunk split", len(docs))
	}
	if docs[0].Metadata.Extra["chapter"] != "7" {
		t.Fatal("extra metadata not inherited")
	}
	docs[0].Metadata.Extra["chapter"] = "8"
	if docs[1].Metadata.Extra["chapter"] != "7" {
		t.Error("chunks share one Extra map")
	}
}

func TestChunk_DefaultsOnBadParams(t *testing.T) {
	docs := Chunk(sentences(80), bookMeta(), 0, -5)
	if len(docs) == 0 {
		t.Fatal("no chunks produced")
	}
	for i, doc := range docs {
		if len(doc.Content) > DefaultMaxSize {
			t.Errorf("chunk %d has %d chars, default max is %d", i, len(doc.Content), DefaultMaxSize)
		}
	}
}

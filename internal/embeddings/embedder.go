package embeddings

import (
	"context"
	"math"
	"unicode/utf8"
)

// Embedder defines the interface for generating text embeddings.
// Implementations must be deterministic for a fixed model version and must
// return L2-normalized vectors, so inner product equals cosine similarity.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// maxInputChars is a character-based proxy for embedding-model token
// limits. Over-long input is truncated rather than rejected.
const maxInputChars = 16000

// Truncate cuts text to the embedding input limit, backing up to a rune
// boundary so multibyte characters are never split.
func Truncate(text string) string {
	if len(text) <= maxInputChars {
		return text
	}
	cut := maxInputChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Normalize scales the vector to unit L2 length in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

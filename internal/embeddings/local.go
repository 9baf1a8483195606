package embeddings

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultLocalDimensions is the vector size of the local embedder.
const DefaultLocalDimensions = 384

// LocalEmbedder produces embeddings without any external model by hashing
// word tokens into a fixed number of buckets. Texts sharing vocabulary get
// similar vectors, which is enough for offline corpora and tests. It is
// fully deterministic: the same text always yields the same vector.
type LocalEmbedder struct {
	dims int
}

// NewLocalEmbedder creates a local hash embedder. dims defaults to
// DefaultLocalDimensions when non-positive.
func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = DefaultLocalDimensions
	}
	return &LocalEmbedder{dims: dims}
}

func (e *LocalEmbedder) Name() string    { return "local-hash" }
func (e *LocalEmbedder) Dimensions() int { return e.dims }

func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = e.vector(Truncate(text))
	}
	return results, nil
}

func (e *LocalEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dims)] += 1.0
	}
	return Normalize(vec)
}

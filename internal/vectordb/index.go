package vectordb

import (
	"fmt"
	"sort"
)

// Index types supported by the store.
const (
	IndexFlat = "flat"
	IndexIVF  = "ivf"
)

// Index is a similarity index over fixed-dimension vectors. Positions are
// assigned in insertion order and never reused; logical deletion is handled
// above the index by the store.
type Index interface {
	// Add appends vectors to the index in input order.
	Add(vectors [][]float32) error

	// Search returns up to k positions ordered by descending inner-product
	// similarity, together with their scores.
	Search(query []float32, k int) ([]int, []float32)

	// Len returns the number of vectors in the index.
	Len() int

	// Dim returns the vector dimension fixed at construction.
	Dim() int

	// Type returns the index type identifier.
	Type() string
}

// FlatIndex is an exact brute-force inner-product index. For corpora below
// a few hundred thousand vectors the exact scan wins on recall and is fast
// enough.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an empty exact index for dim-dimensional vectors.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

func (f *FlatIndex) Add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(v), f.dim)
		}
	}
	f.vectors = append(f.vectors, vectors...)
	return nil
}

func (f *FlatIndex) Search(query []float32, k int) ([]int, []float32) {
	scores := make([]float32, len(f.vectors))
	for i, v := range f.vectors {
		scores[i] = dot(v, query)
	}
	return topK(scores, nil, k)
}

func (f *FlatIndex) Len() int     { return len(f.vectors) }
func (f *FlatIndex) Dim() int     { return f.dim }
func (f *FlatIndex) Type() string { return IndexFlat }

func dot(a, b []float32) float32 {
	var sum float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// topK selects the k highest-scoring entries. positions maps local score
// indexes to global positions; when nil the score index is the position.
// Ties break on lower position so ordering is stable across calls.
func topK(scores []float32, positions []int, k int) ([]int, []float32) {
	n := len(scores)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		pa, pb := order[a], order[b]
		if positions != nil {
			pa, pb = positions[pa], positions[pb]
		}
		return pa < pb
	})
	if k > n {
		k = n
	}
	outPos := make([]int, k)
	outScores := make([]float32, k)
	for i := 0; i < k; i++ {
		j := order[i]
		if positions != nil {
			outPos[i] = positions[j]
		} else {
			outPos[i] = j
		}
		outScores[i] = scores[j]
	}
	return outPos, outScores
}

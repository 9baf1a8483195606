package vectordb

import "fmt"

// ivfTrainMultiple is how many vectors per cluster must exist before the
// inverted lists are trained. Until then searches fall back to an exact
// scan, so recall never degrades on a small corpus.
const ivfTrainMultiple = 4

// IVFIndex is an inverted-file approximate index: vectors are assigned to
// the nearest of nlist trained centroids and searches only scan the nprobe
// closest lists. Training is deferred until enough vectors exist; adds are
// never rejected.
type IVFIndex struct {
	dim    int
	nlist  int
	nprobe int

	trained   bool
	centroids [][]float32
	lists     [][]int

	// vectors holds every vector in insertion order; positions are global.
	vectors [][]float32
}

// NewIVFIndex creates an empty inverted-file index. nlist is the cluster
// count and nprobe the number of lists scanned per query.
func NewIVFIndex(dim, nlist, nprobe int) *IVFIndex {
	if nlist < 1 {
		nlist = 1
	}
	if nprobe < 1 {
		nprobe = 1
	}
	if nprobe > nlist {
		nprobe = nlist
	}
	return &IVFIndex{dim: dim, nlist: nlist, nprobe: nprobe}
}

func (ix *IVFIndex) Add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(v), ix.dim)
		}
	}

	start := len(ix.vectors)
	ix.vectors = append(ix.vectors, vectors...)

	if !ix.trained {
		if len(ix.vectors) >= ix.nlist*ivfTrainMultiple {
			ix.train()
		}
		return nil
	}

	for i, v := range vectors {
		list := ix.nearestCentroid(v)
		ix.lists[list] = append(ix.lists[list], start+i)
	}
	return nil
}

func (ix *IVFIndex) Search(query []float32, k int) ([]int, []float32) {
	if !ix.trained {
		scores := make([]float32, len(ix.vectors))
		for i, v := range ix.vectors {
			scores[i] = dot(v, query)
		}
		return topK(scores, nil, k)
	}

	centroidScores := make([]float32, len(ix.centroids))
	for i, c := range ix.centroids {
		centroidScores[i] = dot(c, query)
	}
	probeLists, _ := topK(centroidScores, nil, ix.nprobe)

	var positions []int
	for _, li := range probeLists {
		positions = append(positions, ix.lists[li]...)
	}
	scores := make([]float32, len(positions))
	for i, pos := range positions {
		scores[i] = dot(ix.vectors[pos], query)
	}
	return topK(scores, positions, k)
}

func (ix *IVFIndex) Len() int     { return len(ix.vectors) }
func (ix *IVFIndex) Dim() int     { return ix.dim }
func (ix *IVFIndex) Type() string { return IndexIVF }

// Trained reports whether the inverted lists have been built.
func (ix *IVFIndex) Trained() bool { return ix.trained }

// train runs a small deterministic k-means over the current vectors and
// assigns every vector to its nearest centroid. Initial centroids are
// evenly spaced samples, so the same corpus always trains the same way.
func (ix *IVFIndex) train() {
	n := len(ix.vectors)
	nlist := ix.nlist
	if nlist > n {
		nlist = n
	}

	centroids := make([][]float32, nlist)
	for i := range centroids {
		src := ix.vectors[i*n/nlist]
		c := make([]float32, ix.dim)
		copy(c, src)
		centroids[i] = c
	}

	assign := make([]int, n)
	const iterations = 10
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, v := range ix.vectors {
			best, bestScore := 0, float32(-1<<30)
			for ci, c := range centroids {
				if s := dot(v, c); s > bestScore {
					best, bestScore = ci, s
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, nlist)
		counts := make([]int, nlist)
		for i := range sums {
			sums[i] = make([]float64, ix.dim)
		}
		for i, v := range ix.vectors {
			ci := assign[i]
			counts[ci]++
			for d, x := range v {
				sums[ci][d] += float64(x)
			}
		}
		for ci := range centroids {
			if counts[ci] == 0 {
				continue // keep the previous centroid for empty clusters
			}
			for d := range centroids[ci] {
				centroids[ci][d] = float32(sums[ci][d] / float64(counts[ci]))
			}
		}
	}

	lists := make([][]int, nlist)
	for i := range ix.vectors {
		ci := assign[i]
		lists[ci] = append(lists[ci], i)
	}

	ix.centroids = centroids
	ix.lists = lists
	if ix.nprobe > nlist {
		ix.nprobe = nlist
	}
	ix.trained = true
}

func (ix *IVFIndex) nearestCentroid(v []float32) int {
	best, bestScore := 0, float32(-1<<30)
	for ci, c := range ix.centroids {
		if s := dot(v, c); s > bestScore {
			best, bestScore = ci, s
		}
	}
	return best
}

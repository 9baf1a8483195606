package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vitalkb/vitalkb/internal/embeddings"
)

// ErrDimensionMismatch is returned when a vector's dimension does not match
// the index. It is never coerced silently: padding or truncating vectors
// would corrupt search quality undetectably.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

const defaultSearchLimit = 10

// IndexConfig selects and tunes the similarity index backing a store.
type IndexConfig struct {
	Type        string
	IVFClusters int
	IVFProbes   int
}

// Stats summarizes the store for diagnostics.
type Stats struct {
	TotalDocuments  int
	ActiveDocuments int
	IndexSize       int
	Dimension       int
	IndexType       string
}

// Store owns a similarity index, the parallel slice of document records,
// and the id → position map. Position i in the index corresponds to
// records[i]; idToIdx always points at the latest position for an id.
//
// A single RWMutex serializes mutations; searches run concurrently with
// each other but never with a mutation.
type Store struct {
	mu       sync.RWMutex
	embedder embeddings.Embedder
	index    Index
	records  []Document
	idToIdx  map[string]int

	dir       string
	indexCfg  IndexConfig
	createdAt time.Time
}

// NewStore creates an empty store persisting into dir. The index dimension
// is fixed to the embedder's.
func NewStore(embedder embeddings.Embedder, dir string, cfg IndexConfig) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.Type == "" {
		cfg.Type = IndexFlat
	}
	idx, err := newIndex(cfg, embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	return &Store{
		embedder:  embedder,
		index:     idx,
		idToIdx:   make(map[string]int),
		dir:       dir,
		indexCfg:  cfg,
		createdAt: time.Now().UTC(),
	}, nil
}

func newIndex(cfg IndexConfig, dim int) (Index, error) {
	switch cfg.Type {
	case IndexFlat:
		return NewFlatIndex(dim), nil
	case IndexIVF:
		return NewIVFIndex(dim, cfg.IVFClusters, cfg.IVFProbes), nil
	default:
		return nil, fmt.Errorf("unknown index type %q", cfg.Type)
	}
}

// Dir returns the directory holding the persisted file pair.
func (s *Store) Dir() string { return s.dir }

// AddDocuments embeds the given documents (unless pre-embedded), appends
// them to the index, and persists the store. When an id already exists the
// old record is tombstoned and the id remapped to the new position, so an
// update is delete-then-re-add. Returns the number of documents added.
func (s *Store) AddDocuments(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	// Embed before taking the write lock; nothing is mutated yet.
	var missing []int
	var texts []string
	for i, doc := range docs {
		if doc.Embedding == nil {
			missing = append(missing, i)
			texts = append(texts, doc.Content)
		}
	}
	if len(texts) > 0 {
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embedding %d documents: %w", len(texts), err)
		}
		if len(vectors) != len(texts) {
			return 0, fmt.Errorf("embedder returned %d vectors, expected %d", len(vectors), len(texts))
		}
		for j, i := range missing {
			docs[i].Embedding = vectors[j]
		}
	}

	dim := s.index.Dim()
	vectors := make([][]float32, len(docs))
	for i, doc := range docs {
		if len(doc.Embedding) != dim {
			return 0, fmt.Errorf("document %s: %w: got %d, index has %d",
				doc.ID, ErrDimensionMismatch, len(doc.Embedding), dim)
		}
		vectors[i] = doc.Embedding
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Add(vectors); err != nil {
		return 0, err
	}

	base := len(s.records)
	for i, doc := range docs {
		if old, ok := s.idToIdx[doc.ID]; ok {
			s.records[old].Metadata.Deleted = true
		}
		doc.Embedding = nil // the index owns the vector now
		doc.Metadata.Deleted = false
		s.records = append(s.records, doc)
		s.idToIdx[doc.ID] = base + i
	}

	if err := s.saveLocked(); err != nil {
		return len(docs), fmt.Errorf("persisting store: %w", err)
	}
	return len(docs), nil
}

// Search embeds the query and returns up to k documents ordered by
// descending similarity. filter applies exact-match AND semantics over
// metadata keys and is applied before truncation to k. Deleted and stale
// records are never returned. An empty store yields no results and no
// error.
func (s *Store) Search(ctx context.Context, query string, k int, filter map[string]string) ([]SearchResult, error) {
	if k <= 0 {
		k = defaultSearchLimit
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	qvec := vectors[0]
	if len(qvec) != s.index.Dim() {
		return nil, fmt.Errorf("query: %w: got %d, index has %d", ErrDimensionMismatch, len(qvec), s.index.Dim())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.index.Len()
	if total == 0 {
		return nil, nil
	}

	// Over-fetch to compensate for post-filtering, widening until either k
	// results are accepted or the whole index has been considered.
	fetch := k * 4
	if fetch < k+10 {
		fetch = k + 10
	}
	for {
		if fetch > total {
			fetch = total
		}
		positions, scores := s.index.Search(qvec, fetch)

		results := make([]SearchResult, 0, k)
		for i, pos := range positions {
			rec := s.records[pos]
			if rec.Metadata.Deleted || s.idToIdx[rec.ID] != pos {
				continue
			}
			if filter != nil && !rec.Metadata.Matches(filter) {
				continue
			}
			results = append(results, SearchResult{Document: rec, Score: scores[i]})
			if len(results) == k {
				return results, nil
			}
		}
		if fetch >= total {
			return results, nil
		}
		fetch *= 4
	}
}

// DeleteDocument tombstones the document with the given id. The vector
// stays physically indexed (the index does not support in-place removal)
// but the id is excluded from all future searches. Returns false for an
// unknown id. Callers persist via Save after a batch of deletions.
func (s *Store) DeleteDocument(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.idToIdx[id]
	if !ok {
		return false
	}
	s.records[pos].Metadata.Deleted = true
	return true
}

// DeleteBySource tombstones every live document belonging to the given
// source key and returns how many were marked.
func (s *Store) DeleteBySource(sourceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for _, pos := range s.idToIdx {
		rec := &s.records[pos]
		if rec.Metadata.SourceID == sourceID && !rec.Metadata.Deleted {
			rec.Metadata.Deleted = true
			marked++
		}
	}
	return marked
}

// metadataFile is the JSON layout of metadata.json. It must round-trip
// exactly: external tooling reads this format.
type metadataFile struct {
	Documents []Document     `json:"documents"`
	IDToIdx   map[string]int `json:"id_to_idx"`
	Dimension int            `json:"dimension"`
	CreatedAt string         `json:"created_at"`
}

// Save persists the index and metadata as a consistent pair: both files are
// fully written to temporaries before either rename, so an interruption
// never leaves one of the two updated.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	indexData, err := encodeIndex(s.index)
	if err != nil {
		return err
	}
	meta := metadataFile{
		Documents: s.records,
		IDToIdx:   s.idToIdx,
		Dimension: s.index.Dim(),
		CreatedAt: s.createdAt.Format(time.RFC3339),
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	indexPath := filepath.Join(s.dir, IndexFileName)
	metaPath := filepath.Join(s.dir, MetadataFileName)

	indexTmp, err := writeTemp(indexPath, indexData)
	if err != nil {
		return err
	}
	metaTmp, err := writeTemp(metaPath, metaData)
	if err != nil {
		os.Remove(indexTmp)
		return err
	}
	if err := os.Rename(indexTmp, indexPath); err != nil {
		os.Remove(indexTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("rename index into place: %w", err)
	}
	if err := os.Rename(metaTmp, metaPath); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("rename metadata into place: %w", err)
	}
	return nil
}

// Load restores the store from its directory. Returns false with a nil
// error when no persisted pair exists (fresh-start bootstrapping). A
// half-present or undecodable pair is reported as an error; callers treat
// it as "no usable index", log it, and continue empty. A dimension
// mismatch with the configured embedder is fatal and wraps
// ErrDimensionMismatch.
func (s *Store) Load() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indexPath := filepath.Join(s.dir, IndexFileName)
	metaPath := filepath.Join(s.dir, MetadataFileName)

	indexData, indexErr := os.ReadFile(indexPath)
	metaData, metaErr := os.ReadFile(metaPath)

	if os.IsNotExist(indexErr) && os.IsNotExist(metaErr) {
		return false, nil
	}
	if indexErr != nil {
		return false, fmt.Errorf("metadata present but index unreadable: %w", indexErr)
	}
	if metaErr != nil {
		return false, fmt.Errorf("index present but metadata unreadable: %w", metaErr)
	}

	idx, err := decodeIndex(indexData)
	if err != nil {
		return false, fmt.Errorf("corrupted index file: %w", err)
	}
	var meta metadataFile
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return false, fmt.Errorf("corrupted metadata file: %w", err)
	}

	if idx.Dim() != s.embedder.Dimensions() {
		return false, fmt.Errorf("loaded index has dimension %d but embedder %q produces %d: %w",
			idx.Dim(), s.embedder.Name(), s.embedder.Dimensions(), ErrDimensionMismatch)
	}
	if len(meta.Documents) != idx.Len() {
		return false, fmt.Errorf("corrupted state: %d metadata records for %d indexed vectors",
			len(meta.Documents), idx.Len())
	}
	for id, pos := range meta.IDToIdx {
		if pos < 0 || pos >= len(meta.Documents) {
			return false, fmt.Errorf("corrupted state: id %q maps to position %d of %d records",
				id, pos, len(meta.Documents))
		}
	}

	s.index = idx
	s.records = meta.Documents
	s.idToIdx = meta.IDToIdx
	if s.idToIdx == nil {
		s.idToIdx = make(map[string]int)
	}
	if t, err := time.Parse(time.RFC3339, meta.CreatedAt); err == nil {
		s.createdAt = t
	}
	return true, nil
}

// Clear resets the store to empty and removes the persisted file pair.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := newIndex(s.indexCfg, s.embedder.Dimensions())
	if err != nil {
		return err
	}
	s.index = idx
	s.records = nil
	s.idToIdx = make(map[string]int)
	s.createdAt = time.Now().UTC()

	for _, name := range []string{IndexFileName, MetadataFileName} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
	}
	return nil
}

// Stats returns document counts and index parameters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	for id, pos := range s.idToIdx {
		if !s.records[pos].Metadata.Deleted && s.records[pos].ID == id {
			active++
		}
	}
	return Stats{
		TotalDocuments:  len(s.records),
		ActiveDocuments: active,
		IndexSize:       s.index.Len(),
		Dimension:       s.index.Dim(),
		IndexType:       s.index.Type(),
	}
}

// writeTemp writes data to a temporary file next to path and returns the
// temporary name; the caller renames it into place.
func writeTemp(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return name, nil
}

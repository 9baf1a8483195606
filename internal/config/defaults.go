package config

import "github.com/vitalkb/vitalkb/internal/vectordb"

// DefaultConfig returns a Config with sensible defaults: a local data
// directory, the exact flat index, and the offline local embedder so a
// fresh checkout works without any API key.
func DefaultConfig() *Config {
	return &Config{
		DataDir:   "data",
		BackupDir: "data/backups",
		Embedding: EmbeddingConfig{
			Provider:   ProviderLocal,
			Model:      "local-hash",
			Dimensions: 384,
		},
		Index: IndexSettings{
			Type:        vectordb.IndexFlat,
			IVFClusters: 100,
			IVFProbes:   8,
		},
		Chunk: ChunkSettings{
			MaxSize: 1000,
			Overlap: 200,
		},
		Tracker: TrackerSettings{
			GraceDays: 7,
		},
		Sources: []Source{
			{Type: "book", Dir: "corpus/books"},
			{Type: "newsletter", Dir: "corpus/newsletters"},
			{Type: "forum", Dir: "corpus/forum"},
		},
	}
}

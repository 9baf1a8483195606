package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vitalkb/vitalkb/internal/config"
	"github.com/vitalkb/vitalkb/internal/embeddings"
	"github.com/vitalkb/vitalkb/internal/ingest"
	"github.com/vitalkb/vitalkb/internal/progress"
	"github.com/vitalkb/vitalkb/internal/tracker"
	"github.com/vitalkb/vitalkb/internal/updater"
	"github.com/vitalkb/vitalkb/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `vitalkb init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// A misconfigured embedding backend is fatal here, at startup: silently
// swapping in a different model would corrupt the index.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.OpenAIKeyEnvVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is required for OpenAI embeddings", config.OpenAIKeyEnvVar)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.Embedding.Model)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.BaseURL), nil
	case config.ProviderLocal:
		return embeddings.NewLocalEmbedder(cfg.Embedding.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// openStore builds the store and loads any persisted state. A missing pair
// starts fresh silently; a corrupted pair starts fresh with a warning; a
// dimension mismatch with the configured embedder aborts.
func openStore(cfg *config.Config, embedder embeddings.Embedder) (*vectordb.Store, bool, error) {
	store, err := vectordb.NewStore(embedder, cfg.DataDir, vectordb.IndexConfig{
		Type:        cfg.Index.Type,
		IVFClusters: cfg.Index.IVFClusters,
		IVFProbes:   cfg.Index.IVFProbes,
	})
	if err != nil {
		return nil, false, fmt.Errorf("creating vector store: %w", err)
	}

	loaded, err := store.Load()
	if err != nil {
		if errors.Is(err, vectordb.ErrDimensionMismatch) {
			return nil, false, fmt.Errorf("loading vector store: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Warning: no usable index (%v), starting fresh\n", err)
	}
	return store, loaded, nil
}

func sourceConfigs(cfg *config.Config) []ingest.SourceConfig {
	out := make([]ingest.SourceConfig, len(cfg.Sources))
	for i, src := range cfg.Sources {
		out[i] = ingest.SourceConfig{
			Type:    vectordb.SourceType(src.Type),
			Dir:     src.Dir,
			Include: src.Include,
			Exclude: src.Exclude,
		}
	}
	return out
}

// newPipeline assembles the ingestion pipeline around an opened store.
func newPipeline(cfg *config.Config, store *vectordb.Store) (*ingest.Pipeline, error) {
	trk, err := tracker.Load(cfg.DataDir, time.Duration(cfg.Tracker.GraceDays)*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("loading content tracker: %w", err)
	}
	return &ingest.Pipeline{
		Store:    store,
		Tracker:  trk,
		Updater:  updater.New(store, cfg.BackupDir),
		MaxSize:  cfg.Chunk.MaxSize,
		Overlap:  cfg.Chunk.Overlap,
		Reporter: progress.NewReporter(),
	}, nil
}

// printWarnings reports loader warnings without failing the run.
func printWarnings(warns []string) {
	for _, w := range warns {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/vitalkb/vitalkb/internal/vectordb"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .vitalkb.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to vitalkb! Let's configure your knowledge base.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Embedding provider.
	providerPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{
			"openai - text-embedding-3 (requires OPENAI_API_KEY)",
			"ollama - local model server",
			"local  - offline hash embedder (no model needed)",
		},
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	providers := []EmbeddingProvider{ProviderOpenAI, ProviderOllama, ProviderLocal}
	cfg.Embedding.Provider = providers[providerIdx]

	switch cfg.Embedding.Provider {
	case ProviderOpenAI:
		cfg.Embedding.Model = "text-embedding-3-small"
		cfg.Embedding.Dimensions = 0 // model-reported
	case ProviderOllama:
		modelPrompt := promptui.Prompt{
			Label:   "Ollama embedding model",
			Default: "nomic-embed-text",
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("ollama model: %w", err)
		}
		cfg.Embedding.Model = model

		dimPrompt := promptui.Prompt{
			Label:   "Embedding dimensions for that model",
			Default: "768",
		}
		dimStr, err := dimPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("dimensions: %w", err)
		}
		dims, err := strconv.Atoi(strings.TrimSpace(dimStr))
		if err != nil || dims <= 0 {
			return nil, fmt.Errorf("dimensions must be a positive integer")
		}
		cfg.Embedding.Dimensions = dims
	case ProviderLocal:
		cfg.Embedding.Model = "local-hash"
		cfg.Embedding.Dimensions = 384
	}

	// 2. Index type.
	indexPrompt := promptui.Select{
		Label: "Select index type",
		Items: []string{
			"flat - exact search, best recall (recommended below ~500k chunks)",
			"ivf  - clustered approximate search for larger corpora",
		},
	}
	indexIdx, _, err := indexPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("index selection: %w", err)
	}
	if indexIdx == 1 {
		cfg.Index.Type = vectordb.IndexIVF
	}

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for the index and tracker state",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir
	cfg.BackupDir = dataDir + "/backups"

	if cfg.Embedding.Provider == ProviderOpenAI && os.Getenv(OpenAIKeyEnvVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running vitalkb index.\n", OpenAIKeyEnvVar)
	}

	configPath := ".vitalkb.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}

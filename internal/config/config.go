package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vitalkb/vitalkb/internal/vectordb"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (VITALKB_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables. Double underscore separates nesting
	// levels: VITALKB_DATA_DIR, VITALKB_EMBEDDING__PROVIDER.
	if err := k.Load(env.Provider("VITALKB_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "VITALKB_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized embedding provider values.
var validProviders = map[EmbeddingProvider]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
	ProviderLocal:  true,
}

// validIndexTypes is the set of recognized index type values.
var validIndexTypes = map[string]bool{
	vectordb.IndexFlat: true,
	vectordb.IndexIVF:  true,
}

// validSourceTypes is the set of recognized corpus source types.
var validSourceTypes = map[string]bool{
	string(vectordb.SourceBook):       true,
	string(vectordb.SourceNewsletter): true,
	string(vectordb.SourceForum):      true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if !validProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding provider %q: must be one of openai, ollama, local", c.Embedding.Provider)
	}
	if c.Embedding.Provider != ProviderOpenAI && c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive for provider %q", c.Embedding.Provider)
	}

	if !validIndexTypes[c.Index.Type] {
		return fmt.Errorf("invalid index type %q: must be flat or ivf", c.Index.Type)
	}
	if c.Index.Type == vectordb.IndexIVF {
		if c.Index.IVFClusters < 1 {
			return fmt.Errorf("index ivf_clusters must be at least 1")
		}
		if c.Index.IVFProbes < 1 {
			return fmt.Errorf("index ivf_probes must be at least 1")
		}
	}

	if c.Chunk.MaxSize <= 0 {
		return fmt.Errorf("chunk max_size must be positive")
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.MaxSize {
		return fmt.Errorf("chunk overlap must be non-negative and smaller than max_size")
	}

	if c.Tracker.GraceDays < 0 {
		return fmt.Errorf("tracker grace_days must be non-negative")
	}

	for i, src := range c.Sources {
		if !validSourceTypes[src.Type] {
			return fmt.Errorf("source %d: invalid type %q: must be book, newsletter or forum", i, src.Type)
		}
		if src.Dir == "" {
			return fmt.Errorf("source %d: dir is required", i)
		}
	}

	return nil
}

// OpenAIKeyEnvVar is the environment variable holding the OpenAI API key.
const OpenAIKeyEnvVar = "OPENAI_API_KEY"

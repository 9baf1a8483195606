package config

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

const (
	ProviderOpenAI EmbeddingProvider = "openai"
	ProviderOllama EmbeddingProvider = "ollama"
	ProviderLocal  EmbeddingProvider = "local"
)

// EmbeddingConfig selects the embedding model. Dimensions is required for
// providers that cannot report it themselves (ollama, local).
type EmbeddingConfig struct {
	Provider   EmbeddingProvider `yaml:"provider" koanf:"provider"`
	Model      string            `yaml:"model" koanf:"model"`
	Dimensions int               `yaml:"dimensions" koanf:"dimensions"`
	BaseURL    string            `yaml:"base_url" koanf:"base_url"`
}

// IndexSettings tunes the similarity index.
type IndexSettings struct {
	Type        string `yaml:"type" koanf:"type"`
	IVFClusters int    `yaml:"ivf_clusters" koanf:"ivf_clusters"`
	IVFProbes   int    `yaml:"ivf_probes" koanf:"ivf_probes"`
}

// ChunkSettings bounds chunk size and overlap, in characters.
type ChunkSettings struct {
	MaxSize int `yaml:"max_size" koanf:"max_size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// TrackerSettings controls change detection.
type TrackerSettings struct {
	GraceDays int `yaml:"grace_days" koanf:"grace_days"`
}

// Source describes one corpus directory.
type Source struct {
	Type    string   `yaml:"type" koanf:"type"`
	Dir     string   `yaml:"dir" koanf:"dir"`
	Include []string `yaml:"include" koanf:"include"`
	Exclude []string `yaml:"exclude" koanf:"exclude"`
}

// Config is the top-level configuration, corresponding to .vitalkb.yml.
type Config struct {
	DataDir   string          `yaml:"data_dir" koanf:"data_dir"`
	BackupDir string          `yaml:"backup_dir" koanf:"backup_dir"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Index     IndexSettings   `yaml:"index" koanf:"index"`
	Chunk     ChunkSettings   `yaml:"chunk" koanf:"chunk"`
	Tracker   TrackerSettings `yaml:"tracker" koanf:"tracker"`
	Sources   []Source        `yaml:"sources" koanf:"sources"`
}

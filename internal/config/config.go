package config

import (
	"path/filepath"

	"github.com/caarlos0/env/v10"

	"subsearch/internal/chunker"
	"subsearch/internal/domain"
	"subsearch/internal/retriever"
	"subsearch/internal/store"
)

type Config struct {
	DataDir    string `env:"DATA_DIR" envDefault:"./data"`
	CorpusDir  string `env:"CORPUS_DIR" envDefault:"./subtitles"`
	Collection string `env:"COLLECTION" envDefault:"subtitle_chunks"`

	ChunkWindow  int `env:"CHUNK_WINDOW" envDefault:"500"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" envDefault:"50"`

	Embedder         string `env:"EMBEDDER" envDefault:"ollama"`
	EmbedDimension   int    `env:"EMBED_DIMENSION" envDefault:"384"`
	EmbedConcurrency int    `env:"EMBED_CONCURRENCY" envDefault:"4"`
	OllamaURL        string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaEmbedModel string `env:"OLLAMA_EMBED_MODEL" envDefault:"all-minilm"`
	OpenAIKey        string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	OpenAIEmbedModel string `env:"OPENAI_EMBED_MODEL" envDefault:"text-embedding-3-small"`
	WhisperModel     string `env:"WHISPER_MODEL" envDefault:"whisper-1"`
	WhisperLanguage  string `env:"WHISPER_LANGUAGE" envDefault:"en"`

	TopK           int    `env:"TOP_K" envDefault:"5"`
	RankOrder      string `env:"RANK_ORDER" envDefault:"desc"`
	DistanceMetric string `env:"DISTANCE_METRIC" envDefault:"l2"`
	CleanMaxLen    int    `env:"CLEAN_MAX_LEN" envDefault:"300"`
	DenylistFile   string `env:"DENYLIST_FILE"`

	IDPolicy    string `env:"ID_POLICY" envDefault:"content"`
	UpsertBatch int    `env:"UPSERT_BATCH" envDefault:"1000"`
	DeleteBatch int    `env:"DELETE_BATCH" envDefault:"10000"`
	BackupFile  string `env:"BACKUP_FILE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

func Init(cfg interface{}) error {
	return env.Parse(cfg)
}

// Load parses the environment into a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := Init(cfg); err != nil {
		return nil, domain.NewConfigurationError("failed to parse environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting before any I/O happens.
func (c *Config) Validate() error {
	if err := c.Chunking().Validate(); err != nil {
		return err
	}
	if c.Collection == "" {
		return domain.NewConfigurationError("collection name is empty")
	}
	if c.DataDir == "" {
		return domain.NewConfigurationError("data dir is empty")
	}
	if c.EmbedConcurrency <= 0 {
		return domain.NewConfigurationError("embed concurrency must be positive, got %d", c.EmbedConcurrency)
	}
	if c.EmbedDimension < 0 {
		return domain.NewConfigurationError("embed dimension cannot be negative, got %d", c.EmbedDimension)
	}
	if c.TopK <= 0 {
		return domain.NewConfigurationError("top k must be positive, got %d", c.TopK)
	}
	if c.CleanMaxLen <= 0 {
		return domain.NewConfigurationError("clean max length must be positive, got %d", c.CleanMaxLen)
	}
	if c.UpsertBatch <= 0 || c.DeleteBatch <= 0 {
		return domain.NewConfigurationError("batch sizes must be positive, got upsert=%d delete=%d", c.UpsertBatch, c.DeleteBatch)
	}
	switch c.Embedder {
	case "ollama", "openai", "hash":
	default:
		return domain.NewConfigurationError("unknown embedder: %s", c.Embedder)
	}
	if _, err := c.Rank(); err != nil {
		return err
	}
	if _, err := c.Metric(); err != nil {
		return err
	}
	if _, err := c.IDs(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Chunking() chunker.Config {
	return chunker.Config{Window: c.ChunkWindow, Overlap: c.ChunkOverlap}
}

func (c *Config) Rank() (retriever.RankOrder, error) {
	return retriever.ParseRankOrder(c.RankOrder)
}

func (c *Config) Metric() (store.Metric, error) {
	return store.ParseMetric(c.DistanceMetric)
}

func (c *Config) IDs() (store.IDPolicy, error) {
	return store.ParseIDPolicy(c.IDPolicy)
}

func (c *Config) ManifestFile() string {
	return filepath.Join(c.DataDir, store.ManifestFile)
}

// Package embedding provides the text to vector collaborators.
package embedding

import (
	"context"
	"errors"
	"strings"

	"subsearch/internal/domain"
)

// DefaultDimension matches all-MiniLM-L6-v2 (all-minilm in Ollama).
const DefaultDimension = 384

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Name() string
	// Dimension is the vector length, or 0 while still unknown (remote
	// models report it after the first call).
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Settings selects and configures an embedder.
type Settings struct {
	Type      string // ollama | openai | hash
	Dimension int

	OllamaURL   string
	OllamaModel string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

var ErrEmptyText = errors.New("text cannot be empty")

// New builds the embedder named by s.Type. Construction failures are
// reported as EmbeddingUnavailable.
func New(s Settings) (Embedder, error) {
	switch strings.ToLower(s.Type) {
	case "ollama", "":
		return NewOllama(s.OllamaModel, s.OllamaURL), nil
	case "openai":
		if s.OpenAIKey == "" {
			return nil, domain.NewEmbeddingUnavailable(ErrNoAPIKey)
		}
		return NewOpenAI(OpenAIConfig{
			APIKey:     s.OpenAIKey,
			BaseURL:    s.OpenAIBaseURL,
			Model:      s.OpenAIModel,
			Dimensions: s.Dimension,
		}), nil
	case "hash":
		return NewHash(s.Dimension), nil
	default:
		return nil, domain.NewConfigurationError("unknown embedder: %s", s.Type)
	}
}

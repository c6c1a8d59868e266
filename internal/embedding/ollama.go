package embedding

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/philippgille/chromem-go"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "all-minilm"
)

// Ollama embeds text through a local Ollama server.
type Ollama struct {
	model     string
	fn        chromem.EmbeddingFunc
	dimension atomic.Int64
}

func NewOllama(model, baseURL string) *Ollama {
	if model == "" {
		model = DefaultOllamaModel
	}
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	ollamaEmbeddingURL := strings.TrimSuffix(baseURL, "/") + "/api"
	return &Ollama{
		model: model,
		fn:    chromem.NewEmbeddingFuncOllama(model, ollamaEmbeddingURL),
	}
}

func (o *Ollama) Name() string { return "ollama:" + o.model }

func (o *Ollama) Dimension() int { return int(o.dimension.Load()) }

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	vec, err := o.fn(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, errors.New("ollama returned an empty embedding")
	}
	o.dimension.CompareAndSwap(0, int64(len(vec)))
	return vec, nil
}

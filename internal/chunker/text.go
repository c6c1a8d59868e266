package chunker

import (
	"strings"

	"subsearch/internal/domain"
)

// TokenChunker режет текст на окна фиксированного размера с overlap
type TokenChunker struct {
	config Config
}

// New создаёт chunker, невалидный конфиг - ошибка конфигурации
func New(config Config) (*TokenChunker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TokenChunker{config: config}, nil
}

func (t *TokenChunker) Name() string {
	return "tokens"
}

// Split returns the chunk texts of text in order.
func (t *TokenChunker) Split(text string) []string {
	tokens := Tokenize(text)
	spans := t.spans(len(tokens))
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, strings.Join(tokens[s.start:s.end], " "))
	}
	return out
}

func (t *TokenChunker) Chunk(sourceID, text string) []domain.Chunk {
	tokens := Tokenize(text)
	spans := t.spans(len(tokens))
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, domain.Chunk{
			SourceID:   sourceID,
			Sequence:   i + 1,
			Text:       strings.Join(tokens[s.start:s.end], " "),
			TokenCount: s.end - s.start,
		})
	}
	return chunks
}

type span struct {
	start, end int
}

// spans: окно [start, start+window), шаг window-overlap, стоп когда окно дошло до конца
func (t *TokenChunker) spans(total int) []span {
	if total == 0 {
		return nil
	}
	out := make([]span, 0, ChunkCount(total, t.config))
	start := 0
	for start < total {
		end := start + t.config.Window
		if end >= total {
			out = append(out, span{start: start, end: total})
			break
		}
		out = append(out, span{start: start, end: end})
		start = end - t.config.Overlap
	}
	return out
}

package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Hash is a deterministic bag-of-words embedder using the hashing trick.
// It needs no model and no network, so indexing and querying agree as long
// as both sides use the same dimension.
type Hash struct {
	dimension int
}

func NewHash(dimension int) *Hash {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Hash{dimension: dimension}
}

func (h *Hash) Name() string { return "hash" }

func (h *Hash) Dimension() int { return h.dimension }

func (h *Hash) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := hashTokens(text)
	if len(tokens) == 0 {
		// пунктуация без слов (ascii-арт в .nfo) хешируется как есть
		tokens = strings.Fields(text)
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}
	vec := make([]float32, h.dimension)
	for _, tok := range tokens {
		f := fnv.New64a()
		_, _ = f.Write([]byte(tok))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dimension))
		// старший бит выбирает знак, чтобы коллизии гасили друг друга
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		// all collisions cancelled out; fall back to a fixed unit vector
		vec[0] = 1
		return vec, nil
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func hashTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Package retriever answers free-text queries against the chunk store.
package retriever

import (
	"context"
	"sort"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"subsearch/internal/domain"
	"subsearch/internal/embedding"
	"subsearch/internal/logger"
)

// RankOrder selects how hits are ordered by distance.
type RankOrder string

const (
	// RankDescending puts the largest distance first.
	RankDescending RankOrder = "desc"
	RankAscending  RankOrder = "asc"
)

func ParseRankOrder(s string) (RankOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending", "":
		return RankDescending, nil
	case "asc", "ascending":
		return RankAscending, nil
	default:
		return "", domain.NewConfigurationError("unknown rank order: %s", s)
	}
}

const DefaultTopK = 5

// Searcher is the read side of the chunk store.
type Searcher interface {
	Count(ctx context.Context, collection string) (int, error)
	Dimension(ctx context.Context, collection string) (int, error)
	Search(ctx context.Context, collection string, vec []float32, topK int) ([]domain.Hit, error)
}

type Options struct {
	Collection  string
	RankOrder   RankOrder
	DefaultTopK int
}

type Retriever struct {
	embedder embedding.Embedder
	store    Searcher
	opts     Options
	log      *charmlog.Logger
}

func New(emb embedding.Embedder, store Searcher, opts Options) *Retriever {
	if opts.RankOrder == "" {
		opts.RankOrder = RankDescending
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = DefaultTopK
	}
	return &Retriever{
		embedder: emb,
		store:    store,
		opts:     opts,
		log:      logger.With("component", "retriever"),
	}
}

// Retrieve embeds query and returns up to topK hits ranked by distance.
// topK <= 0 uses the configured default.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (domain.QueryResult, error) {
	result := domain.QueryResult{Query: query, Hits: []domain.Hit{}}
	if strings.TrimSpace(query) == "" {
		return result, nil
	}
	if topK <= 0 {
		topK = r.opts.DefaultTopK
	}

	count, err := r.store.Count(ctx, r.opts.Collection)
	if err != nil {
		return result, err
	}
	if count == 0 {
		r.log.Info("collection is empty", "collection", r.opts.Collection)
		return result, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return result, domain.NewEmbeddingUnavailable(err)
	}

	want, err := r.store.Dimension(ctx, r.opts.Collection)
	if err != nil {
		return result, err
	}
	if want > 0 && len(vec) != want {
		w := &domain.DimensionMismatchWarning{Got: len(vec), Want: want}
		r.log.Warn("query embedding resized", "got", w.Got, "want", w.Want)
		result.Warnings = append(result.Warnings, w)
		vec = Resize(vec, want)
	}
	if zeroNorm(vec) {
		r.log.Warn("query embedding has zero norm, nothing to search", "query", query)
		result.Warnings = append(result.Warnings, domain.ErrZeroQueryVector)
		return result, nil
	}

	hits, err := r.store.Search(ctx, r.opts.Collection, vec, min(topK, count))
	if err != nil {
		return result, err
	}
	Rank(hits, r.opts.RankOrder)
	result.Hits = hits
	r.log.Debug("query served", "hits", len(hits), "top_k", topK)
	return result, nil
}

// Rank sorts hits by distance in place. Ties keep their index order.
func Rank(hits []domain.Hit, order RankOrder) {
	sort.SliceStable(hits, func(i, j int) bool {
		if order == RankAscending {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Distance > hits[j].Distance
	})
}

func zeroNorm(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// Resize truncates vec, or repeats it cyclically, to n elements.
func Resize(vec []float32, n int) []float32 {
	out := make([]float32, n)
	if len(vec) == 0 {
		return out
	}
	for i := range out {
		out[i] = vec[i%len(vec)]
	}
	return out
}

package store

import (
	"context"
	"errors"

	charmlog "github.com/charmbracelet/log"

	"subsearch/internal/domain"
	"subsearch/internal/logger"
)

const (
	DefaultUpsertBatch = 1000
	DefaultDeleteBatch = 10000
)

// Options configures batching of index writes.
type Options struct {
	UpsertBatch int
	DeleteBatch int
}

// ChunkStore owns all mutation of the index. Writes are split into ordered
// batches and never retried: the first failing batch aborts the operation.
type ChunkStore struct {
	index       Index
	upsertBatch int
	deleteBatch int
	log         *charmlog.Logger
}

func NewChunkStore(index Index, opts Options) *ChunkStore {
	if opts.UpsertBatch <= 0 {
		opts.UpsertBatch = DefaultUpsertBatch
	}
	if opts.DeleteBatch <= 0 {
		opts.DeleteBatch = DefaultDeleteBatch
	}
	return &ChunkStore{
		index:       index,
		upsertBatch: opts.UpsertBatch,
		deleteBatch: opts.DeleteBatch,
		log:         logger.With("component", "store"),
	}
}

// Clear removes every chunk from the collection.
func (s *ChunkStore) Clear(ctx context.Context, collection string) error {
	ids, err := s.index.IDs(ctx, collection)
	if err != nil {
		return &domain.StoreWriteError{Op: "list", Collection: collection, Err: err}
	}
	if len(ids) == 0 {
		s.log.Info("collection already empty", "collection", collection)
		return nil
	}
	for start := 0; start < len(ids); start += s.deleteBatch {
		end := min(start+s.deleteBatch, len(ids))
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.index.Delete(ctx, collection, ids[start:end]); err != nil {
			return &domain.StoreWriteError{Op: "delete", Collection: collection, Start: start, End: end, Err: err}
		}
		s.log.Info("deleted batch", "collection", collection, "from", start, "to", end)
	}
	return nil
}

// Upsert writes items in order. On failure the returned StoreWriteError's
// Start is the number of items already committed.
func (s *ChunkStore) Upsert(ctx context.Context, collection string, items []domain.IndexedChunk) error {
	for start := 0; start < len(items); start += s.upsertBatch {
		end := min(start+s.upsertBatch, len(items))
		if err := ctx.Err(); err != nil {
			return &domain.StoreWriteError{Op: "add", Collection: collection, Start: start, End: end, Err: err}
		}
		batch := items[start:end]
		ids := make([]string, len(batch))
		texts := make([]string, len(batch))
		embeddings := make([][]float32, len(batch))
		for i, it := range batch {
			ids[i] = it.ID
			texts[i] = it.Chunk.Text
			embeddings[i] = it.Embedding
		}
		if err := s.index.Add(ctx, collection, ids, texts, embeddings); err != nil {
			return &domain.StoreWriteError{Op: "add", Collection: collection, Start: start, End: end, Err: err}
		}
		s.log.Debug("batch inserted", "collection", collection, "items", len(batch), "total", end)
	}
	return nil
}

func (s *ChunkStore) Count(ctx context.Context, collection string) (int, error) {
	return s.index.Count(ctx, collection)
}

func (s *ChunkStore) Dimension(ctx context.Context, collection string) (int, error) {
	return s.index.Dimension(ctx, collection)
}

// Search returns up to topK hits ordered by the index, nearest first.
// topK is clamped to the collection size; an empty collection yields no hits.
func (s *ChunkStore) Search(ctx context.Context, collection string, vec []float32, topK int) ([]domain.Hit, error) {
	n, err := s.index.Count(ctx, collection)
	if err != nil {
		return nil, err
	}
	if n == 0 || topK <= 0 {
		return nil, nil
	}
	return s.index.Query(ctx, collection, vec, min(topK, n))
}

type corpusRecorder interface {
	RecordCorpus(corpusPath string, files []FileInfo) error
}

var ErrNoCorpusRecord = errors.New("index does not record corpus files")

// RecordCorpus saves the indexed file list when the index supports it.
func (s *ChunkStore) RecordCorpus(corpusPath string, files []FileInfo) error {
	r, ok := s.index.(corpusRecorder)
	if !ok {
		return ErrNoCorpusRecord
	}
	return r.RecordCorpus(corpusPath, files)
}

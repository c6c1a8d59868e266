// Package indexer runs the offline path: read the corpus, normalize, chunk,
// embed and store every subtitle file.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"subsearch/internal/backup"
	"subsearch/internal/chunker"
	"subsearch/internal/domain"
	"subsearch/internal/embedding"
	"subsearch/internal/logger"
	"subsearch/internal/normalize"
	"subsearch/internal/store"
)

const DefaultConcurrency = 4

// Source yields the corpus documents. Unreadable files come back in the
// second slice and are skipped.
type Source interface {
	Documents(ctx context.Context) ([]domain.Document, []error, error)
}

// Store is the write side of the chunk store.
type Store interface {
	Clear(ctx context.Context, collection string) error
	Upsert(ctx context.Context, collection string, items []domain.IndexedChunk) error
	RecordCorpus(corpusPath string, files []store.FileInfo) error
}

type Options struct {
	Collection  string
	CorpusDir   string
	Concurrency int
	IDPolicy    store.IDPolicy
	BackupFile  string
}

// Report summarizes one indexing run.
type Report struct {
	FilesSeen    int
	FilesIndexed int
	FilesSkipped int
	Chunks       int
	Persisted    int
	BackupFile   string
	Skipped      []error
	Duration     time.Duration
}

type Indexer struct {
	source   Source
	chunker  chunker.Chunker
	embedder embedding.Embedder
	store    Store
	opts     Options
	log      *charmlog.Logger
}

func New(source Source, ch chunker.Chunker, emb embedding.Embedder, st Store, opts Options) *Indexer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.IDPolicy == "" {
		opts.IDPolicy = store.IDContent
	}
	return &Indexer{
		source:   source,
		chunker:  ch,
		embedder: emb,
		store:    st,
		opts:     opts,
		log:      logger.With("component", "indexer"),
	}
}

// Run rebuilds the collection from scratch. The report is returned even on
// failure and reflects what was committed before it.
func (ix *Indexer) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{}
	defer func() { report.Duration = time.Since(started) }()

	if err := ix.store.Clear(ctx, ix.opts.Collection); err != nil {
		return report, fmt.Errorf("failed to clear collection: %w", err)
	}

	docs, skipped, err := ix.source.Documents(ctx)
	if err != nil {
		return report, err
	}
	report.FilesSeen = len(docs) + len(skipped)
	report.FilesSkipped = len(skipped)
	report.Skipped = skipped
	for _, e := range skipped {
		ix.log.Warn("skipping file", "err", e)
	}

	items, files := ix.prepare(docs)
	report.FilesIndexed = len(docs)
	report.Chunks = len(items)
	ix.log.Info("corpus chunked", "files", len(docs), "chunks", len(items), "chunker", ix.chunker.Name())

	if err := ix.embed(ctx, items); err != nil {
		return report, err
	}

	if err := ix.store.Upsert(ctx, ix.opts.Collection, items); err != nil {
		var swe *domain.StoreWriteError
		if errors.As(err, &swe) {
			report.Persisted = swe.Start
		}
		return report, err
	}
	report.Persisted = len(items)

	if err := ix.store.RecordCorpus(ix.opts.CorpusDir, files); err != nil && !errors.Is(err, store.ErrNoCorpusRecord) {
		ix.log.Warn("failed to record corpus files", "err", err)
	}

	if ix.opts.BackupFile != "" {
		if err := backup.Write(ix.opts.BackupFile, backup.FromChunks(items)); err != nil {
			return report, err
		}
		report.BackupFile = ix.opts.BackupFile
		ix.log.Info("backup written", "path", ix.opts.BackupFile, "records", len(items))
	}
	return report, nil
}

// prepare normalizes and chunks docs and assigns IDs in document order.
func (ix *Indexer) prepare(docs []domain.Document) ([]domain.IndexedChunk, []store.FileInfo) {
	ids := ix.opts.IDPolicy.Assigner()
	var items []domain.IndexedChunk
	files := make([]store.FileInfo, 0, len(docs))
	for _, doc := range docs {
		chunks := ix.chunker.Chunk(doc.ID, normalize.Text(doc.Content))
		for _, c := range chunks {
			items = append(items, domain.IndexedChunk{ID: ids.Next(c), Chunk: c})
		}
		files = append(files, store.FileInfo{
			Path:         doc.ID,
			LastModified: doc.ModTime,
			Size:         doc.Size,
			Chunks:       len(chunks),
		})
		if len(chunks) == 0 {
			ix.log.Debug("no text after normalization", "file", doc.ID)
		}
	}
	return items, files
}

// embed fills in embeddings concurrently. Each result is written to its own
// slot, so order never depends on completion order.
func (ix *Indexer) embed(ctx context.Context, items []domain.IndexedChunk) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(ix.opts.Concurrency)
	for i := range items {
		i := i
		group.Go(func() error {
			vec, err := ix.embedder.Embed(groupCtx, items[i].Chunk.Text)
			if err != nil {
				return domain.NewEmbeddingUnavailable(fmt.Errorf("chunk %s: %w", items[i].ID, err))
			}
			items[i].Embedding = vec
			return nil
		})
	}
	return group.Wait()
}

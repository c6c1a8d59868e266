package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"

	"subsearch/internal/backup"
	"subsearch/internal/chunker"
	"subsearch/internal/cleaner"
	"subsearch/internal/config"
	"subsearch/internal/corpus"
	"subsearch/internal/embedding"
	"subsearch/internal/logger"
	"subsearch/internal/retriever"
	"subsearch/internal/store"
	"subsearch/internal/transcribe"
)

// App owns the long-lived service objects: one embedder and one chunk store
// handle shared by every operation.
type App struct {
	cfg         *config.Config
	index       store.Index
	chunks      *store.ChunkStore
	embedder    embedding.Embedder
	chunker     *chunker.TokenChunker
	retriever   *retriever.Retriever
	cleaner     *cleaner.Cleaner
	transcriber transcribe.Transcriber
	reader      *corpus.Reader
	httpClient  *http.Client
	in          io.Reader
	out         io.Writer
	log         *charmlog.Logger
}

// Option overrides a collaborator, mostly for tests.
type Option func(*App)

func WithIndex(idx store.Index) Option {
	return func(a *App) { a.index = idx }
}

func WithEmbedder(e embedding.Embedder) Option {
	return func(a *App) { a.embedder = e }
}

func WithTranscriber(t transcribe.Transcriber) Option {
	return func(a *App) { a.transcriber = t }
}

func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = in
		a.out = out
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *App) { a.httpClient = c }
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		cfg:        cfg,
		in:         os.Stdin,
		out:        os.Stdout,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		log:        logger.With("component", "app"),
	}
	for _, opt := range opts {
		opt(a)
	}

	var err error
	a.chunker, err = chunker.New(cfg.Chunking())
	if err != nil {
		return nil, err
	}

	denylist, err := cleaner.LoadDenylist(cfg.DenylistFile)
	if err != nil {
		return nil, err
	}
	a.cleaner = cleaner.New(denylist, cfg.CleanMaxLen)

	if a.embedder == nil {
		a.embedder, err = embedding.New(embedding.Settings{
			Type:          cfg.Embedder,
			Dimension:     cfg.EmbedDimension,
			OllamaURL:     cfg.OllamaURL,
			OllamaModel:   cfg.OllamaEmbedModel,
			OpenAIKey:     cfg.OpenAIKey,
			OpenAIBaseURL: cfg.OpenAIBaseURL,
			OpenAIModel:   cfg.OpenAIEmbedModel,
		})
		if err != nil {
			return nil, err
		}
	}

	if a.index == nil {
		metric, _ := cfg.Metric()
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		a.index, err = store.OpenChromem(cfg.DataDir, metric)
		if err != nil {
			return nil, err
		}
	}
	a.chunks = store.NewChunkStore(a.index, store.Options{
		UpsertBatch: cfg.UpsertBatch,
		DeleteBatch: cfg.DeleteBatch,
	})

	rank, _ := cfg.Rank()
	a.retriever = retriever.New(a.embedder, a.chunks, retriever.Options{
		Collection:  cfg.Collection,
		RankOrder:   rank,
		DefaultTopK: cfg.TopK,
	})

	if a.transcriber == nil {
		a.transcriber = transcribe.NewWhisper(transcribe.Config{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.WhisperModel,
		})
	}
	a.reader = corpus.NewReader(cfg.CorpusDir)

	a.log.Debug("app ready",
		"collection", cfg.Collection,
		"embedder", a.embedder.Name(),
		"data_dir", cfg.DataDir,
	)
	return a, nil
}

func (a *App) Count(ctx context.Context) (int, error) {
	return a.chunks.Count(ctx, a.cfg.Collection)
}

func (a *App) Clear(ctx context.Context) error {
	return a.chunks.Clear(ctx, a.cfg.Collection)
}

// Stats summarizes the corpus on disk. Unreadable files are returned alongside.
func (a *App) Stats(ctx context.Context, top int) (corpus.Summary, []error, error) {
	docs, skipped, err := a.reader.Documents(ctx)
	if err != nil {
		return corpus.Summary{}, nil, err
	}
	return corpus.Stats(docs, top), skipped, nil
}

// Restore replaces the collection with the contents of a backup file.
func (a *App) Restore(ctx context.Context, path string) (int, error) {
	records, err := backup.Read(path)
	if err != nil {
		return 0, err
	}
	if err := a.chunks.Clear(ctx, a.cfg.Collection); err != nil {
		return 0, err
	}
	n, err := backup.Restore(ctx, a.chunks, a.cfg.Collection, records)
	if err != nil {
		return 0, err
	}
	a.log.Info("backup restored", "path", path, "records", n)
	return n, nil
}

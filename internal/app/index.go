package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"subsearch/internal/domain"
	"subsearch/internal/indexer"
)

// Init checks that the configured Ollama server is up and has the embedding
// model, pulling it when missing. Other embedders need no preparation.
func (a *App) Init(ctx context.Context) error {
	if w := a.checkDimension(ctx); w != nil {
		a.log.Warn("embedder and collection disagree on dimension, queries will be resized",
			"embedder", a.embedder.Name(), "got", w.Got, "want", w.Want)
	}
	if a.cfg.Embedder != "ollama" {
		return nil
	}
	if err := ensureOllamaModel(ctx, a.httpClient, a.cfg.OllamaURL, a.cfg.OllamaEmbedModel); err != nil {
		return fmt.Errorf("ollama model check failed: %w", err)
	}
	return nil
}

// checkDimension compares the embedder's vector length with the stored one.
// Nothing is reported while either side is still unknown.
func (a *App) checkDimension(ctx context.Context) *domain.DimensionMismatchWarning {
	got := a.embedder.Dimension()
	if got == 0 {
		return nil
	}
	want, err := a.chunks.Dimension(ctx, a.cfg.Collection)
	if err != nil || want == 0 || want == got {
		return nil
	}
	return &domain.DimensionMismatchWarning{Got: got, Want: want}
}

// Index rebuilds the collection from the corpus directory.
func (a *App) Index(ctx context.Context) (*indexer.Report, error) {
	ids, _ := a.cfg.IDs()
	ix := indexer.New(a.reader, a.chunker, a.embedder, a.chunks, indexer.Options{
		Collection:  a.cfg.Collection,
		CorpusDir:   a.cfg.CorpusDir,
		Concurrency: a.cfg.EmbedConcurrency,
		IDPolicy:    ids,
		BackupFile:  a.cfg.BackupFile,
	})
	a.log.Info("indexing corpus", "dir", a.cfg.CorpusDir, "collection", a.cfg.Collection)
	report, err := ix.Run(ctx)
	if err != nil {
		return report, err
	}
	a.log.Info("indexing finished",
		"files", report.FilesIndexed,
		"skipped", report.FilesSkipped,
		"chunks", report.Chunks,
		"took", report.Duration,
	)
	return report, nil
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaPullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

func ensureOllamaModel(ctx context.Context, client *http.Client, baseURL, model string) error {
	baseURL = strings.TrimSuffix(baseURL, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not running or not reachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama is not running or not reachable at %s: status %d", baseURL, resp.StatusCode)
	}

	var tags ollamaTags
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode ollama tags: %w", err)
	}
	for _, m := range tags.Models {
		// ollama дописывает ":latest" к имени без тега
		if m.Name == model || strings.TrimSuffix(m.Name, ":latest") == model {
			return nil
		}
	}

	b, err := json.Marshal(ollamaPullRequest{Name: model, Stream: false})
	if err != nil {
		return err
	}
	pullReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/pull", bytes.NewReader(b))
	if err != nil {
		return err
	}
	pullReq.Header.Set("Content-Type", "application/json")
	pullResp, err := client.Do(pullReq)
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", model, err)
	}
	defer pullResp.Body.Close()
	if pullResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(pullResp.Body, 512))
		return fmt.Errorf("failed to pull model %s: status %d: %s", model, pullResp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

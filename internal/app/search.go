package app

import (
	"context"
	"errors"
	"time"

	"subsearch/internal/domain"
)

// SearchResult is one ranked hit prepared for display.
type SearchResult struct {
	Rank     int
	ID       string
	Display  string
	Text     string
	Distance float32
}

// QueryReport is everything shown for a single query.
type QueryReport struct {
	Query      string
	AudioFile  string
	Language   string
	Collection string
	RankOrder  string
	Results    []SearchResult
	Warnings   []string
	At         time.Time
}

// Query searches the collection for text. An unavailable embedder is
// reported as a warning with no results rather than an error.
func (a *App) Query(ctx context.Context, text string, topK int) (*QueryReport, error) {
	rank, _ := a.cfg.Rank()
	report := &QueryReport{
		Query:      text,
		Collection: a.cfg.Collection,
		RankOrder:  string(rank),
		Results:    []SearchResult{},
		At:         time.Now(),
	}

	res, err := a.retriever.Retrieve(ctx, text, topK)
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		a.log.Warn("query failed", "err", err)
		report.Warnings = append(report.Warnings, err.Error())
		return report, nil
	}
	if err != nil {
		return report, err
	}
	for _, w := range res.Warnings {
		report.Warnings = append(report.Warnings, w.Error())
	}
	for i, h := range res.Hits {
		report.Results = append(report.Results, SearchResult{
			Rank:     i + 1,
			ID:       h.ID,
			Display:  a.cleaner.Display(h.Text),
			Text:     a.cleaner.Clean(h.Text),
			Distance: h.Distance,
		})
	}
	return report, nil
}

// QueryAudio transcribes an audio file and searches with the transcript.
// An empty language uses WHISPER_LANGUAGE.
func (a *App) QueryAudio(ctx context.Context, path, language string, topK int) (*QueryReport, error) {
	if language == "" {
		language = a.cfg.WhisperLanguage
	}
	a.log.Info("transcribing audio", "file", path, "language", language)
	tr, err := a.transcriber.Transcribe(ctx, path, language)
	if err != nil {
		return nil, err
	}
	report, err := a.Query(ctx, tr.Text, topK)
	if report != nil {
		report.AudioFile = path
		report.Language = tr.Language
	}
	return report, err
}

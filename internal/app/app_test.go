package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsearch/internal/backup"
	"subsearch/internal/config"
	"subsearch/internal/embedding"
	"subsearch/internal/store"
	"subsearch/internal/transcribe"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s stubTranscriber) Transcribe(_ context.Context, _ string, lang string) (transcribe.Transcript, error) {
	return transcribe.Transcript{Text: s.text, Language: lang}, s.err
}

type brokenEmbedder struct{}

func (brokenEmbedder) Name() string   { return "broken" }
func (brokenEmbedder) Dimension() int { return 0 }
func (brokenEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("model failed to load")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.DataDir = t.TempDir()
	cfg.CorpusDir = t.TempDir()
	cfg.Embedder = "hash"
	cfg.EmbedDimension = 32
	cfg.ChunkWindow = 4
	cfg.ChunkOverlap = 1
	cfg.RankOrder = "asc"
	return cfg
}

func writeCorpus(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"titanic.srt": "1\n00:00:01,000 --> 00:00:03,000\nThe ship is sinking\n",
		"heat.srt":    "Release Name: Heat.1995\nDon't let yourself get attached\n",
		"t2.srt":      "Come with me if you want to live",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) (*App, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	opts = append([]Option{
		WithIndex(store.NewMemoryChromem(store.MetricL2)),
		WithIO(strings.NewReader(""), out),
		WithTranscriber(stubTranscriber{text: "come with me"}),
	}, opts...)
	a, err := New(cfg, opts...)
	require.NoError(t, err)
	return a, out
}

func TestApp_IndexAndQuery(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.CorpusDir)
	a, _ := newTestApp(t, cfg)
	ctx := context.Background()

	report, err := a.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.FilesIndexed)

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.Chunks, n)

	// "1 The ship is" is the first chunk of titanic.srt
	q, err := a.Query(ctx, "1 The ship is", 2)
	require.NoError(t, err)
	require.Len(t, q.Results, 2)
	assert.Equal(t, 1, q.Results[0].Rank)
	assert.Equal(t, "1 The ship is", q.Results[0].Display)
	assert.InDelta(t, 0.0, q.Results[0].Distance, 1e-4)
	assert.Empty(t, q.Warnings)
	assert.Equal(t, "asc", q.RankOrder)
}

func TestApp_QueryEmptyCollection(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))

	q, err := a.Query(context.Background(), "anything", 5)

	require.NoError(t, err)
	assert.Empty(t, q.Results)
	assert.NotNil(t, q.Results)
}

func TestApp_QueryEmbeddingUnavailable(t *testing.T) {
	cfg := testConfig(t)
	idx := store.NewMemoryChromem(store.MetricL2)
	require.NoError(t, idx.Add(context.Background(), cfg.Collection, []string{"a"}, []string{"x"}, [][]float32{{1, 0}}))
	a, _ := newTestApp(t, cfg, WithIndex(idx), WithEmbedder(brokenEmbedder{}))

	q, err := a.Query(context.Background(), "hello", 5)

	require.NoError(t, err)
	assert.Empty(t, q.Results)
	require.Len(t, q.Warnings, 1)
	assert.Contains(t, q.Warnings[0], "model failed to load")
}

func TestApp_QueryAudio(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.CorpusDir)
	a, _ := newTestApp(t, cfg)
	ctx := context.Background()
	_, err := a.Index(ctx)
	require.NoError(t, err)

	q, err := a.QueryAudio(ctx, "clip.wav", "", 1)

	require.NoError(t, err)
	assert.Equal(t, "come with me", q.Query)
	assert.Equal(t, "clip.wav", q.AudioFile)
	assert.Equal(t, "en", q.Language)
	assert.Len(t, q.Results, 1)

	a.transcriber = stubTranscriber{err: errors.New("whisper down")}
	_, err = a.QueryAudio(ctx, "clip.wav", "fr", 1)
	assert.ErrorContains(t, err, "whisper down")
}

func TestApp_Run(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.CorpusDir)
	audio := filepath.Join(t.TempDir(), "q.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	input := "The ship is sinking\n\n" + audio + "\n"
	out := &bytes.Buffer{}
	a, _ := newTestApp(t, cfg, WithIO(strings.NewReader(input), out))
	_, err := a.Index(context.Background())
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Query: The ship is sinking")
	assert.Contains(t, text, "Query: come with me")
	assert.Contains(t, text, audio)
	assert.Contains(t, text, "distance:")
}

func TestApp_RunSurvivesQueryFailure(t *testing.T) {
	cfg := testConfig(t)
	out := &bytes.Buffer{}
	audio := filepath.Join(t.TempDir(), "q.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))
	a, _ := newTestApp(t, cfg,
		WithIO(strings.NewReader(audio+"\nsecond query\n"), out),
		WithTranscriber(stubTranscriber{err: errors.New("whisper down")}),
	)

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "whisper down")
	assert.Contains(t, out.String(), "Query: second query")
	assert.Contains(t, out.String(), "No relevant subtitles found.")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	defer r.Close()

	a, _ := newTestApp(t, testConfig(t), WithIO(r, &bytes.Buffer{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, a.Run(ctx))
}

func TestApp_StatsAndRestore(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.CorpusDir)
	cfg.BackupFile = filepath.Join(t.TempDir(), "backup.json")
	a, _ := newTestApp(t, cfg)
	ctx := context.Background()

	summary, skipped, err := a.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, 3, summary.Files)
	require.Len(t, summary.Largest, 1)
	assert.Equal(t, "heat.srt", summary.Largest[0].ID)

	report, err := a.Index(ctx)
	require.NoError(t, err)
	records, err := backup.Read(cfg.BackupFile)
	require.NoError(t, err)
	assert.Len(t, records, report.Chunks)

	require.NoError(t, a.Clear(ctx))
	n, _ := a.Count(ctx)
	assert.Zero(t, n)

	restored, err := a.Restore(ctx, cfg.BackupFile)
	require.NoError(t, err)
	assert.Equal(t, report.Chunks, restored)
	n, _ = a.Count(ctx)
	assert.Equal(t, report.Chunks, n)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChunkOverlap = cfg.ChunkWindow

	_, err := New(cfg, WithIndex(store.NewMemoryChromem(store.MetricL2)))
	assert.Error(t, err)
}

func TestNew_PersistentIndex(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.CorpusDir)
	a, err := New(cfg, WithEmbedder(embedding.NewHash(16)))
	require.NoError(t, err)
	_, err = a.Index(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, cfg.ManifestFile())
}

func TestQueryReport_Save(t *testing.T) {
	r := &QueryReport{
		Query:      "the ship is sinking",
		Collection: "subtitle_chunks",
		RankOrder:  "desc",
		Warnings:   []string{"query embedding resized"},
		Results: []SearchResult{
			{Rank: 1, ID: "chunk_1", Display: "Movie: Titanic", Text: "the ship is sinking", Distance: 0.25},
		},
	}
	dir := t.TempDir()

	md := filepath.Join(dir, "report.md")
	require.NoError(t, r.Save(md))
	raw, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Subtitle search: the ship is sinking")
	assert.Contains(t, string(raw), "### 1. Movie: Titanic")
	assert.Contains(t, string(raw), "**Distance:** 0.2500")
	assert.Contains(t, string(raw), "- query embedding resized")

	page := filepath.Join(dir, "report.html")
	require.NoError(t, r.Save(page))
	raw, err = os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<h1>Subtitle search: the ship is sinking</h1>")
	assert.Contains(t, string(raw), "<h3>1. Movie: Titanic</h3>")
	assert.Contains(t, string(raw), "<blockquote>")
}

func TestEnsureOllamaModel(t *testing.T) {
	var pulls atomic.Int32
	var pulled atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]string{{"name": "all-minilm:latest"}},
			})
		case "/api/pull":
			pulls.Add(1)
			var req ollamaPullRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			pulled.Store(req.Name)
			if req.Name == "missing-model" {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	require.NoError(t, ensureOllamaModel(ctx, srv.Client(), srv.URL, "all-minilm"))
	assert.Zero(t, pulls.Load())

	require.NoError(t, ensureOllamaModel(ctx, srv.Client(), srv.URL+"/", "nomic-embed-text"))
	assert.Equal(t, int32(1), pulls.Load())
	assert.Equal(t, "nomic-embed-text", pulled.Load())

	err := ensureOllamaModel(ctx, srv.Client(), srv.URL, "missing-model")
	assert.ErrorContains(t, err, "status 404")
}

func TestEnsureOllamaModel_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := ensureOllamaModel(context.Background(), http.DefaultClient, url, "all-minilm")
	assert.ErrorContains(t, err, "not reachable")
}

func TestApp_CheckDimension(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.CorpusDir)
	idx := store.NewMemoryChromem(store.MetricL2)
	ctx := context.Background()

	indexing, _ := newTestApp(t, cfg, WithIndex(idx))
	assert.Nil(t, indexing.checkDimension(ctx), "empty collection has no dimension yet")
	_, err := indexing.Index(ctx)
	require.NoError(t, err)
	assert.Nil(t, indexing.checkDimension(ctx))

	querying, _ := newTestApp(t, cfg, WithIndex(idx), WithEmbedder(embedding.NewHash(8)))
	w := querying.checkDimension(ctx)
	require.NotNil(t, w)
	assert.Equal(t, 8, w.Got)
	assert.Equal(t, 32, w.Want)
	assert.NoError(t, querying.Init(ctx))
}

func TestApp_InitSkipsNonOllama(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))
	assert.NoError(t, a.Init(context.Background()))
}

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(args, "--env-file", "", "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI(t *testing.T) {
	corpusDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "jaws.srt"),
		[]byte("1\n00:00:01,000 --> 00:00:02,000\nYou're gonna need a bigger boat.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "casablanca.srt"),
		[]byte("Here's looking at you, kid."), 0o644))

	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CORPUS_DIR", corpusDir)
	t.Setenv("EMBEDDER", "hash")
	t.Setenv("EMBED_DIMENSION", "16")
	t.Setenv("CHUNK_WINDOW", "20")
	t.Setenv("CHUNK_OVERLAP", "2")

	out, err := execute(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Chunks:        2")

	out, err = execute(t, "count")
	require.NoError(t, err)
	assert.Contains(t, out, "subtitle_chunks: 2 chunks")

	report := filepath.Join(t.TempDir(), "report.html")
	out, err = execute(t, "query", "bigger", "boat", "-k", "1", "--output", report)
	require.NoError(t, err)
	assert.Contains(t, out, "Query: bigger boat")
	assert.FileExists(t, report)

	out, err = execute(t, "stats", "--top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Total files analyzed: 2")
	assert.Contains(t, out, "jaws.srt")

	out, err = execute(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared subtitle_chunks")

	out, err = execute(t, "count")
	require.NoError(t, err)
	assert.Contains(t, out, "subtitle_chunks: 0 chunks")
}

func TestCLI_QueryNeedsInput(t *testing.T) {
	_, err := execute(t, "query")
	assert.ErrorContains(t, err, "either query text or --audio is required")
}

func TestCLI_InvalidConfig(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CHUNK_OVERLAP", "600")

	_, err := execute(t, "count")
	assert.ErrorContains(t, err, "CONFIGURATION_ERROR")
	assert.Equal(t, 2, exitCode(err))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestCLI_QueryWithOllamaDown(t *testing.T) {
	corpusDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "jaws.srt"),
		[]byte("You're gonna need a bigger boat."), 0o644))
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CORPUS_DIR", corpusDir)
	t.Setenv("EMBEDDER", "hash")
	t.Setenv("EMBED_DIMENSION", "16")

	_, err := execute(t, "index")
	require.NoError(t, err)

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	t.Setenv("EMBEDDER", "ollama")
	t.Setenv("OLLAMA_URL", down.URL)

	out, err := execute(t, "query", "bigger", "boat")

	require.NoError(t, err)
	assert.Contains(t, out, "Query: bigger boat")
	assert.Contains(t, out, "EMBEDDING_UNAVAILABLE")
	assert.Contains(t, out, "No relevant subtitles found.")
}

package logger

import (
	"bytes"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, charmlog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, charmlog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, charmlog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, charmlog.InfoLevel, ParseLevel(""))
	assert.Equal(t, charmlog.InfoLevel, ParseLevel("verbose"))
}

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: "info", JSON: true, Output: &buf})
	t.Cleanup(func() { Setup(Config{}) })

	Get().Info("indexed", "chunks", 3)
	Get().Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"msg":"indexed"`)
	assert.Contains(t, out, `"chunks"`)
	assert.NotContains(t, out, "hidden")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Setup(Config{}) })

	With("collection", "subtitle_chunks").Warn("resized")

	assert.Contains(t, buf.String(), "collection=subtitle_chunks")
	assert.Contains(t, buf.String(), "resized")
}

// Package transcribe turns audio queries into text.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Transcript is the text recognised in an audio file.
type Transcript struct {
	Text     string
	Language string
}

// Transcriber converts an audio file to text. languageHint may be empty,
// in which case the model detects the language itself.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) (Transcript, error)
}

var ErrEmptyTranscript = errors.New("transcription returned no text")

// AudioExtensions lists the formats accepted as audio queries.
var AudioExtensions = []string{".wav", ".mp3", ".m4a", ".ogg", ".flac", ".webm"}

// IsAudioFile reports whether path has a supported audio extension.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range AudioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// AudioAPI is the slice of the OpenAI client the transcriber needs.
type AudioAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Config configures the Whisper endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Whisper transcribes audio with an OpenAI-compatible Whisper endpoint.
type Whisper struct {
	api   AudioAPI
	model string
}

func NewWhisper(cfg Config) *Whisper {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewWhisperWithAPI(openai.NewClientWithConfig(clientCfg), cfg.Model)
}

func NewWhisperWithAPI(api AudioAPI, model string) *Whisper {
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{api: api, model: model}
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath, languageHint string) (Transcript, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return Transcript{}, fmt.Errorf("audio file: %w", err)
	}
	if info.IsDir() {
		return Transcript{}, fmt.Errorf("audio file: %s is a directory", audioPath)
	}
	resp, err := w.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
		Language: languageHint,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return Transcript{}, fmt.Errorf("whisper transcription failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return Transcript{}, ErrEmptyTranscript
	}
	lang := resp.Language
	if lang == "" {
		lang = languageHint
	}
	return Transcript{Text: text, Language: lang}, nil
}

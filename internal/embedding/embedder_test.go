package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"subsearch/internal/domain"
)

type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestHash_Deterministic(t *testing.T) {
	h := NewHash(64)
	ctx := context.Background()

	a, err := h.Embed(ctx, "The ship is sinking")
	require.NoError(t, err)
	b, err := h.Embed(ctx, "the SHIP is sinking!")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHash_EmptyText(t *testing.T) {
	_, err := NewHash(0).Embed(context.Background(), " \n\t ")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Equal(t, DefaultDimension, NewHash(0).Dimension())
}

func TestHash_PunctuationOnly(t *testing.T) {
	h := NewHash(16)
	ctx := context.Background()

	dots, err := h.Embed(ctx, "........ ..... ... !!!")
	require.NoError(t, err)
	require.Len(t, dots, 16)
	var norm float64
	for _, v := range dots {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	again, err := h.Embed(ctx, "........ ..... ... !!!")
	require.NoError(t, err)
	assert.Equal(t, dots, again)
}

func TestOpenAI_Embed(t *testing.T) {
	api := new(MockEmbeddingAPI)
	emb := newOpenAIWithAPI(api, "text-embedding-3-small")
	ctx := context.Background()
	vec := []float32{0.1, 0.2, 0.3}

	api.On("CreateEmbeddings", ctx, "hello").Return(vec, nil)

	got, err := emb.Embed(ctx, "hello")

	require.NoError(t, err)
	assert.Equal(t, vec, got)
	assert.Equal(t, 3, emb.Dimension())
	assert.Equal(t, "openai:text-embedding-3-small", emb.Name())
	api.AssertExpectations(t)
}

func TestOpenAI_Embed_APIError(t *testing.T) {
	api := new(MockEmbeddingAPI)
	emb := newOpenAIWithAPI(api, "m")
	ctx := context.Background()

	api.On("CreateEmbeddings", ctx, "hello").Return(nil, errors.New("rate limited"))

	got, err := emb.Embed(ctx, "hello")

	assert.Nil(t, got)
	assert.EqualError(t, err, "rate limited")
	assert.Equal(t, 0, emb.Dimension())
}

func TestOpenAI_Embed_EmptyText(t *testing.T) {
	emb := newOpenAIWithAPI(new(MockEmbeddingAPI), "m")

	_, err := emb.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestNew(t *testing.T) {
	e, err := New(Settings{Type: "hash", Dimension: 16})
	require.NoError(t, err)
	assert.Equal(t, 16, e.Dimension())

	e, err = New(Settings{})
	require.NoError(t, err)
	assert.Equal(t, "ollama:"+DefaultOllamaModel, e.Name())

	_, err = New(Settings{Type: "openai"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = New(Settings{Type: "word2vec"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

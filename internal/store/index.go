// Package store holds the chunk index: a chromem-go backed vector index and
// the ChunkStore that owns every mutation of it.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"subsearch/internal/domain"
)

// Index is the vector index collaborator. Distances are smaller for closer
// vectors.
type Index interface {
	Add(ctx context.Context, collection string, ids, texts []string, embeddings [][]float32) error
	Delete(ctx context.Context, collection string, ids []string) error
	Query(ctx context.Context, collection string, embedding []float32, topK int) ([]domain.Hit, error)
	Count(ctx context.Context, collection string) (int, error)
	IDs(ctx context.Context, collection string) ([]string, error)
	// Dimension is 0 for an empty or unknown collection.
	Dimension(ctx context.Context, collection string) (int, error)
}

// Metric converts chromem's cosine similarity to a distance.
type Metric string

const (
	// MetricL2 is the squared euclidean distance of unit vectors, 2-2s.
	MetricL2     Metric = "l2"
	MetricCosine Metric = "cosine"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricL2, "":
		return MetricL2, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", domain.NewConfigurationError("unknown distance metric: %s", s)
	}
}

func (m Metric) distance(similarity float32) float32 {
	if m == MetricCosine {
		return 1 - similarity
	}
	return 2 - 2*similarity
}

var errNoEmbeddingFunc = errors.New("collection stores precomputed embeddings only")

// precomputed keeps chromem from falling back to its default OpenAI
// embedding function; every document and query carries its own vector.
func precomputed(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// ChromemIndex implements Index over a chromem-go database. chromem cannot
// enumerate document IDs, so they are tracked in a manifest next to the
// database.
type ChromemIndex struct {
	db       *chromem.DB
	manifest *Manifest
	metric   Metric
	mu       sync.Mutex
}

// OpenChromem opens (or creates) a persistent index under dataDir.
func OpenChromem(dataDir string, metric Metric) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(filepath.Join(dataDir, "chroma"), false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}
	m, err := LoadManifest(filepath.Join(dataDir, ManifestFile))
	if err != nil {
		return nil, err
	}
	return &ChromemIndex{db: db, manifest: m, metric: metric}, nil
}

// NewMemoryChromem builds a non-persistent index.
func NewMemoryChromem(metric Metric) *ChromemIndex {
	return &ChromemIndex{db: chromem.NewDB(), manifest: NewManifest(""), metric: metric}
}

func (c *ChromemIndex) collection(name string) (*chromem.Collection, error) {
	coll, err := c.db.GetOrCreateCollection(name, nil, precomputed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", name, err)
	}
	return coll, nil
}

func (c *ChromemIndex) Add(ctx context.Context, collection string, ids, texts []string, embeddings [][]float32) error {
	if len(ids) != len(texts) || len(ids) != len(embeddings) {
		return fmt.Errorf("add: %d ids, %d texts, %d embeddings", len(ids), len(texts), len(embeddings))
	}
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dim := c.manifest.Dimension(collection)
	docs := make([]chromem.Document, len(ids))
	for i := range ids {
		if dim == 0 {
			dim = len(embeddings[i])
		}
		if len(embeddings[i]) != dim {
			return fmt.Errorf("embedding %q has %d dimensions, collection has %d", ids[i], len(embeddings[i]), dim)
		}
		docs[i] = chromem.Document{ID: ids[i], Content: texts[i], Embedding: embeddings[i]}
	}

	coll, err := c.collection(collection)
	if err != nil {
		return err
	}
	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return err
	}
	c.manifest.Add(collection, ids, dim)
	return c.manifest.Save()
}

func (c *ChromemIndex) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	coll, err := c.collection(collection)
	if err != nil {
		return err
	}
	if err := coll.Delete(ctx, nil, nil, ids...); err != nil {
		return err
	}
	c.manifest.Remove(collection, ids)
	return c.manifest.Save()
}

func (c *ChromemIndex) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]domain.Hit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	coll := c.db.GetCollection(collection, precomputed)
	if coll == nil || coll.Count() == 0 || topK <= 0 {
		return nil, nil
	}
	if topK > coll.Count() {
		topK = coll.Count()
	}
	if zeroVector(embedding) {
		return nil, domain.ErrZeroQueryVector
	}
	results, err := coll.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	hits := make([]domain.Hit, len(results))
	for i, r := range results {
		hits[i] = domain.Hit{ID: r.ID, Text: r.Content, Distance: c.metric.distance(r.Similarity)}
	}
	return hits, nil
}

// zeroVector reports a vector whose cosine similarity to anything is NaN.
func zeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func (c *ChromemIndex) Count(_ context.Context, collection string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	coll := c.db.GetCollection(collection, precomputed)
	if coll == nil {
		return 0, nil
	}
	return coll.Count(), nil
}

func (c *ChromemIndex) IDs(_ context.Context, collection string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manifest.IDs(collection), nil
}

func (c *ChromemIndex) Dimension(_ context.Context, collection string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manifest.Dimension(collection), nil
}

// RecordCorpus stores the files of the last indexing run in the manifest.
func (c *ChromemIndex) RecordCorpus(corpusPath string, files []FileInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.manifest.CorpusPath = corpusPath
	c.manifest.Files = make(map[string]FileInfo, len(files))
	for _, f := range files {
		c.manifest.Files[f.Path] = f
	}
	return c.manifest.Save()
}

// Corpus returns the corpus path and files recorded by the last run.
func (c *ChromemIndex) Corpus() (string, []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := make([]FileInfo, 0, len(c.manifest.Files))
	for _, f := range c.manifest.Files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return c.manifest.CorpusPath, files
}

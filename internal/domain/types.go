package domain

import "time"

// Document is a raw subtitle file read from the corpus.
type Document struct {
	ID      string // file name, unique within a corpus directory
	Path    string
	Content string
	Size    int64
	ModTime time.Time
}

// Chunk is a contiguous token window of a normalized document.
type Chunk struct {
	SourceID   string
	Sequence   int // 1-based position inside the source document
	Text       string
	TokenCount int
}

// IndexedChunk is a chunk ready for the vector index.
type IndexedChunk struct {
	ID        string
	Chunk     Chunk
	Embedding []float32
}

// Hit is one (text, distance) pair returned by a similarity search.
type Hit struct {
	ID       string
	Text     string
	Distance float32
}

// QueryResult holds the ranked hits of one query together with any
// non-fatal warnings raised while serving it.
type QueryResult struct {
	Query    string
	Hits     []Hit
	Warnings []error
}

// Empty reports whether the query produced no hits.
func (r QueryResult) Empty() bool {
	return len(r.Hits) == 0
}

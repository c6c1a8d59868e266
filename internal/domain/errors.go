package domain

import (
	"errors"
	"fmt"
)

// Error codes of the pipeline error taxonomy.
const (
	ErrCodeConfiguration     = "CONFIGURATION_ERROR"
	ErrCodeCorpusRead        = "CORPUS_READ_ERROR"
	ErrCodeEmbedding         = "EMBEDDING_UNAVAILABLE"
	ErrCodeStoreWrite        = "STORE_WRITE_ERROR"
	ErrCodeDimensionMismatch = "DIMENSION_MISMATCH"
	ErrCodeZeroQuery         = "ZERO_QUERY_VECTOR"
)

// PipelineError is a coded error of the indexing or query pipeline.
type PipelineError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is matches any PipelineError with the same code, so sentinels below can be
// used with errors.Is regardless of message or cause.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrConfiguration        = &PipelineError{Code: ErrCodeConfiguration, Message: "invalid configuration"}
	ErrCorpusRead           = &PipelineError{Code: ErrCodeCorpusRead, Message: "corpus file unreadable"}
	ErrEmbeddingUnavailable = &PipelineError{Code: ErrCodeEmbedding, Message: "embedding unavailable"}
	ErrStoreWrite           = &PipelineError{Code: ErrCodeStoreWrite, Message: "store write failed"}
	ErrDimensionMismatch    = &PipelineError{Code: ErrCodeDimensionMismatch, Message: "embedding dimension mismatch"}
	// ErrZeroQueryVector: a query vector without direction has no distance
	// to anything, so nothing is searched.
	ErrZeroQueryVector = &PipelineError{Code: ErrCodeZeroQuery, Message: "query embedding has zero norm"}
)

// NewConfigurationError reports an invalid setting. It is fatal and raised
// before any I/O happens.
func NewConfigurationError(format string, args ...any) error {
	return &PipelineError{Code: ErrCodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// NewCorpusReadError wraps a per-file read failure. Callers skip the file.
func NewCorpusReadError(path string, err error) error {
	return &PipelineError{Code: ErrCodeCorpusRead, Message: "read " + path, Err: err}
}

// NewEmbeddingUnavailable wraps an embedder failure.
func NewEmbeddingUnavailable(err error) error {
	return &PipelineError{Code: ErrCodeEmbedding, Message: "embedder failed", Err: err}
}

// StoreWriteError reports the batch that failed during an add or delete.
// Start and End are offsets into the submitted sequence, End exclusive.
type StoreWriteError struct {
	Op         string
	Collection string
	Start      int
	End        int
	Err        error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("[%s] %s batch [%d, %d) in collection %q: %v",
		ErrCodeStoreWrite, e.Op, e.Start, e.End, e.Collection, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

func (e *StoreWriteError) Is(target error) bool {
	return target == ErrStoreWrite
}

// DimensionMismatchWarning is a non-fatal event: the query vector was resized
// to the stored dimensionality before searching.
type DimensionMismatchWarning struct {
	Got  int
	Want int
}

func (w *DimensionMismatchWarning) Error() string {
	return fmt.Sprintf("[%s] query embedding has %d dimensions, collection has %d; resized",
		ErrCodeDimensionMismatch, w.Got, w.Want)
}

func (w *DimensionMismatchWarning) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

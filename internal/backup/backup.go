// Package backup writes and restores the JSON copy of an indexing run.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"subsearch/internal/domain"
)

// Record is one indexed chunk in the backup file.
type Record struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// FromChunks converts indexed chunks to backup records, keeping order.
func FromChunks(items []domain.IndexedChunk) []Record {
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = Record{ID: it.ID, Text: it.Chunk.Text, Embedding: it.Embedding}
	}
	return out
}

// Write stores records as a JSON array. The file is replaced atomically.
func Write(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create backup dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	var records []Record
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode backup %s: %w", path, err)
	}
	return records, nil
}

// Upserter is the write side of the chunk store.
type Upserter interface {
	Upsert(ctx context.Context, collection string, items []domain.IndexedChunk) error
}

// Restore re-inserts records into collection in file order and returns how
// many were submitted.
func Restore(ctx context.Context, store Upserter, collection string, records []Record) (int, error) {
	items := make([]domain.IndexedChunk, 0, len(records))
	for i, r := range records {
		if r.ID == "" || len(r.Embedding) == 0 {
			return 0, fmt.Errorf("backup record %d is incomplete", i)
		}
		items = append(items, domain.IndexedChunk{
			ID:        r.ID,
			Chunk:     domain.Chunk{Text: r.Text},
			Embedding: r.Embedding,
		})
	}
	if err := store.Upsert(ctx, collection, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

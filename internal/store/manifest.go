package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const ManifestFile = "manifest.json"

// Manifest records what the index holds: the ordered chunk IDs and vector
// size of each collection, and the corpus files of the last indexing run.
type Manifest struct {
	Collections map[string]*CollectionInfo `json:"collections"`
	Files       map[string]FileInfo        `json:"files"`
	CorpusPath  string                     `json:"corpus_path"`

	path string
	pos  map[string]map[string]int
}

type CollectionInfo struct {
	IDs       []string  `json:"ids"`
	Dimension int       `json:"dimension"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FileInfo struct {
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
	Chunks       int       `json:"chunks"`
}

// NewManifest returns an empty manifest. An empty path keeps it in memory.
func NewManifest(path string) *Manifest {
	return &Manifest{
		Collections: make(map[string]*CollectionInfo),
		Files:       make(map[string]FileInfo),
		path:        path,
		pos:         make(map[string]map[string]int),
	}
}

// LoadManifest reads the manifest at path; a missing file yields an empty one.
func LoadManifest(path string) (*Manifest, error) {
	m := NewManifest(path)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return m, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	if m.Collections == nil {
		m.Collections = make(map[string]*CollectionInfo)
	}
	if m.Files == nil {
		m.Files = make(map[string]FileInfo)
	}
	return m, nil
}

func (m *Manifest) Save() error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

func (m *Manifest) index(collection string) map[string]int {
	if p, ok := m.pos[collection]; ok {
		return p
	}
	p := make(map[string]int)
	if info, ok := m.Collections[collection]; ok {
		for i, id := range info.IDs {
			p[id] = i
		}
	}
	m.pos[collection] = p
	return p
}

// Add appends ids not yet present, keeping insertion order.
func (m *Manifest) Add(collection string, ids []string, dimension int) {
	info, ok := m.Collections[collection]
	if !ok {
		info = &CollectionInfo{}
		m.Collections[collection] = info
	}
	p := m.index(collection)
	for _, id := range ids {
		if _, seen := p[id]; seen {
			continue
		}
		p[id] = len(info.IDs)
		info.IDs = append(info.IDs, id)
	}
	if info.Dimension == 0 {
		info.Dimension = dimension
	}
	info.UpdatedAt = time.Now()
}

func (m *Manifest) Remove(collection string, ids []string) {
	info, ok := m.Collections[collection]
	if !ok {
		return
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := info.IDs[:0]
	for _, id := range info.IDs {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	info.IDs = kept
	if len(info.IDs) == 0 {
		// пустая коллекция может принять вектора другой размерности
		info.Dimension = 0
	}
	info.UpdatedAt = time.Now()
	delete(m.pos, collection)
}

func (m *Manifest) IDs(collection string) []string {
	info, ok := m.Collections[collection]
	if !ok {
		return nil
	}
	out := make([]string, len(info.IDs))
	copy(out, info.IDs)
	return out
}

func (m *Manifest) Dimension(collection string) int {
	if info, ok := m.Collections[collection]; ok {
		return info.Dimension
	}
	return 0
}

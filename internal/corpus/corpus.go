// Package corpus reads subtitle files from a directory tree.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"subsearch/internal/chunker"
	"subsearch/internal/domain"
	"subsearch/internal/normalize"
)

// DefaultExtensions are the subtitle formats picked up from the corpus.
var DefaultExtensions = []string{".srt", ".vtt", ".ass", ".nfo"}

type Reader struct {
	Dir        string
	Extensions []string
}

func NewReader(dir string) *Reader {
	return &Reader{Dir: dir, Extensions: DefaultExtensions}
}

func (r *Reader) accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range r.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Paths lists the subtitle files under Dir, sorted by relative path.
func (r *Reader) Paths() ([]string, error) {
	info, err := os.Stat(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus directory: %s is not a directory", r.Dir)
	}

	var paths []string
	err = filepath.WalkDir(r.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// нечитаемый подкаталог пропускаем, корень уже проверен
			if d != nil && d.IsDir() && path != r.Dir {
				return fs.SkipDir
			}
			return err
		}
		if d.Type().IsRegular() && r.accepts(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Documents reads every subtitle file. Invalid UTF-8 is dropped. A file that
// cannot be read is reported in the second return value and skipped; only an
// unusable corpus directory is fatal.
func (r *Reader) Documents(ctx context.Context) ([]domain.Document, []error, error) {
	paths, err := r.Paths()
	if err != nil {
		return nil, nil, err
	}
	docs := make([]domain.Document, 0, len(paths))
	var skipped []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return docs, skipped, err
		}
		doc, err := r.read(path)
		if err != nil {
			skipped = append(skipped, domain.NewCorpusReadError(path, err))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped, nil
}

func (r *Reader) read(path string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	id, err := filepath.Rel(r.Dir, path)
	if err != nil {
		id = filepath.Base(path)
	}
	return domain.Document{
		ID:      filepath.ToSlash(id),
		Path:    path,
		Content: strings.ToValidUTF8(string(data), ""),
		Size:    int64(len(data)),
		ModTime: info.ModTime(),
	}, nil
}

// FileStat is the normalized token count of one file.
type FileStat struct {
	ID     string
	Tokens int
}

type Summary struct {
	Files   int
	Tokens  int
	Average int
	Largest []FileStat
}

// Stats counts normalized tokens per document and keeps the top largest.
func Stats(docs []domain.Document, top int) Summary {
	if len(docs) == 0 {
		return Summary{}
	}
	stats := make([]FileStat, len(docs))
	var total int
	for i, d := range docs {
		n := len(chunker.Tokenize(normalize.Text(d.Content)))
		stats[i] = FileStat{ID: d.ID, Tokens: n}
		total += n
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Tokens > stats[j].Tokens })
	if top >= 0 && top < len(stats) {
		stats = stats[:top]
	}
	return Summary{Files: len(docs), Tokens: total, Average: total / len(docs), Largest: stats}
}

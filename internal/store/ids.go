package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"subsearch/internal/domain"
)

// IDPolicy decides how chunk identifiers are derived.
type IDPolicy string

const (
	// IDContent derives the ID from source and sequence, so re-indexing the
	// same corpus yields the same IDs.
	IDContent IDPolicy = "content"
	// IDCounter numbers chunks chunk_1, chunk_2, ... within one run.
	IDCounter IDPolicy = "counter"
)

func ParseIDPolicy(s string) (IDPolicy, error) {
	switch IDPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case IDContent, "":
		return IDContent, nil
	case IDCounter:
		return IDCounter, nil
	default:
		return "", domain.NewConfigurationError("unknown id policy: %s", s)
	}
}

// IDAssigner hands out IDs for one indexing run. Not safe for concurrent use;
// IDs are assigned in document order before embedding starts.
type IDAssigner struct {
	policy IDPolicy
	n      int
}

func (p IDPolicy) Assigner() *IDAssigner {
	return &IDAssigner{policy: p}
}

func (a *IDAssigner) Next(c domain.Chunk) string {
	a.n++
	if a.policy == IDCounter {
		return fmt.Sprintf("chunk_%d", a.n)
	}
	return ContentID(c.SourceID, c.Sequence)
}

// ContentID is chunk_ followed by the first 16 hex digits of
// sha256(sourceID:sequence).
func ContentID(sourceID string, sequence int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", sourceID, sequence)))
	return "chunk_" + hex.EncodeToString(sum[:])[:16]
}

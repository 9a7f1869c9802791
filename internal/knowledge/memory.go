package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"brandguardian/internal/textutil"
)

// MemoryStore keeps documents in process and optionally persists them to a
// JSON snapshot. Queries with a vector rank by cosine similarity; queries
// without one rank by TF-IDF weighted term overlap.
type MemoryStore struct {
	mu       sync.RWMutex
	path     string
	docs     []Document
	position map[string]int
}

type memorySnapshot struct {
	Documents []Document `json:"documents"`
}

// NewMemoryStore returns an empty store that is never persisted.
func NewMemoryStore(docs ...Document) *MemoryStore {
	s := &MemoryStore{position: make(map[string]int)}
	s.put(docs)
	return s
}

// OpenMemoryStore loads the snapshot at path when it exists. Upserts rewrite it.
func OpenMemoryStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{path: path, position: make(map[string]int)}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read knowledge snapshot: %w", err)
	}
	var snap memorySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode knowledge snapshot %s: %w", path, err)
	}
	s.put(snap.Documents)
	return s, nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Upsert inserts or replaces documents by ID and rewrites the snapshot.
func (s *MemoryStore) Upsert(_ context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(docs)
	return s.persist()
}

func (s *MemoryStore) put(docs []Document) {
	for _, doc := range docs {
		if idx, ok := s.position[doc.ID]; ok {
			s.docs[idx] = doc
			continue
		}
		s.position[doc.ID] = len(s.docs)
		s.docs = append(s.docs, doc)
	}
}

func (s *MemoryStore) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(memorySnapshot{Documents: s.docs})
	if err != nil {
		return fmt.Errorf("encode knowledge snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write knowledge snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace knowledge snapshot: %w", err)
	}
	return nil
}

// Search ranks documents against the query. Documents scoring zero are omitted.
func (s *MemoryStore) Search(_ context.Context, query Query) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Match
	if len(query.Vector) > 0 {
		for _, doc := range s.docs {
			if score := textutil.VectorCosine(query.Vector, doc.Vector); score > 0 {
				matches = append(matches, Match{Document: doc, Score: score})
			}
		}
	} else {
		matches = s.lexicalMatches(query.Text)
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if query.TopK > 0 && len(matches) > query.TopK {
		matches = matches[:query.TopK]
	}
	if matches == nil {
		matches = []Match{}
	}
	return matches, nil
}

func (s *MemoryStore) lexicalMatches(text string) []Match {
	df := textutil.NewDocumentFrequencies()
	vectors := make([]*textutil.TermVector, len(s.docs))
	for i, doc := range s.docs {
		vectors[i] = textutil.NewTermVector(doc.Content)
		df.Add(vectors[i])
	}
	idf := df.IDF()
	query := textutil.NewTermVector(text).Weighted(idf)
	var matches []Match
	for i, doc := range s.docs {
		if score := query.Cosine(vectors[i].Weighted(idf)); score > 0 {
			matches = append(matches, Match{Document: doc, Score: score})
		}
	}
	return matches
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

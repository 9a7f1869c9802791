package knowledge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"brandguardian/internal/services"
)

type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

type failingStore struct{ err error }

func (f failingStore) Search(context.Context, Query) ([]Match, error) { return nil, f.err }
func (f failingStore) Upsert(context.Context, []Document) error      { return f.err }
func (f failingStore) Close() error                                   { return nil }

func TestRetrieveRanksByVector(t *testing.T) {
	store := NewMemoryStore(
		Document{ID: "1", Content: "Disclose paid partnerships.", Vector: []float32{0, 1, 0}},
		Document{ID: "2", Content: "No unverified medical claims.", Vector: []float32{1, 0, 0}},
		Document{ID: "3", Content: "Show prices including tax.", Vector: []float32{0.7, 0.7, 0}},
		Document{ID: "4", Content: "Unrelated.", Vector: []float32{0, 0, -1}},
	)
	embedder := &stubEmbedder{vectors: map[string][]float32{"cures all diseases": {1, 0.1, 0}}}
	retriever := NewRetriever(embedder, store, 0, nil)

	passages, err := retriever.Retrieve(context.Background(), "cures all diseases", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	want := []string{"No unverified medical claims.", "Show prices including tax.", "Disclose paid partnerships."}
	if len(passages) != len(want) {
		t.Fatalf("expected %d passages, got %q", len(want), passages)
	}
	for i := range want {
		if passages[i] != want[i] {
			t.Fatalf("passage %d = %q, want %q", i, passages[i], want[i])
		}
	}
	if retriever.TopK() != DefaultTopK {
		t.Fatalf("expected default top k %d, got %d", DefaultTopK, retriever.TopK())
	}
}

func TestRetrieveEmptyIndexIsNotAnError(t *testing.T) {
	retriever := NewRetriever(&stubEmbedder{}, NewMemoryStore(), 3, nil)
	passages, err := retriever.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if passages == nil || len(passages) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", passages)
	}
}

func TestRetrieveWrapsFailures(t *testing.T) {
	storeErr := errors.New("search unavailable")
	_, err := NewRetriever(&stubEmbedder{}, failingStore{err: storeErr}, 3, nil).Retrieve(context.Background(), "q", 3)
	if !errors.Is(err, services.ErrRetrieval) || !errors.Is(err, storeErr) {
		t.Fatalf("expected retrieval error wrapping cause, got %v", err)
	}
	if services.Kind(err) != services.KindRetrieval {
		t.Fatalf("unexpected kind %q", services.Kind(err))
	}

	embedErr := errors.New("embedding endpoint down")
	_, err = NewRetriever(&stubEmbedder{err: embedErr}, NewMemoryStore(), 3, nil).Retrieve(context.Background(), "q", 3)
	if !errors.Is(err, services.ErrRetrieval) || !errors.Is(err, embedErr) {
		t.Fatalf("expected retrieval error wrapping embed failure, got %v", err)
	}
}

func TestRetrieveLexicalWithoutEmbedder(t *testing.T) {
	store := NewMemoryStore(
		Document{ID: "1", Content: "Paid partnerships must be disclosed clearly."},
		Document{ID: "2", Content: "Advertisements must not make unverified medical claims about curing diseases."},
	)
	passages, err := NewRetriever(nil, store, 1, nil).Retrieve(context.Background(), "This product cures all diseases", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(passages) != 1 || passages[0] != "Advertisements must not make unverified medical claims about curing diseases." {
		t.Fatalf("unexpected passages %q", passages)
	}
}

func TestRetrieverWithoutStore(t *testing.T) {
	var r *Retriever
	if _, err := r.Retrieve(context.Background(), "q", 3); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

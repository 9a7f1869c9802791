package knowledge

import (
	"context"
	"log/slog"
	"strings"

	"brandguardian/internal/logging"
	"brandguardian/internal/services"
)

// DefaultTopK is the number of passages returned when the caller passes k <= 0.
const DefaultTopK = 3

// Retriever returns the rule passages most relevant to a query.
type Retriever struct {
	embedder Embedder
	store    Store
	topK     int
	logger   *slog.Logger
}

// NewRetriever constructs a retriever. embedder may be nil for stores that
// rank lexically.
func NewRetriever(embedder Embedder, store Store, topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
		logger:   logging.NewComponentLogger(logger, "retriever"),
	}
}

// TopK returns the default result size.
func (r *Retriever) TopK() int { return r.topK }

// Retrieve returns up to k passages ordered by similarity. No matches yields an
// empty slice and a nil error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	matches, err := r.RetrieveMatches(ctx, query, k)
	if err != nil {
		return nil, err
	}
	passages := make([]string, 0, len(matches))
	for _, match := range matches {
		passages = append(passages, match.Content)
	}
	return passages, nil
}

// RetrieveMatches is Retrieve with scores and sources attached.
func (r *Retriever) RetrieveMatches(ctx context.Context, query string, k int) ([]Match, error) {
	if r == nil || r.store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "knowledge", "retrieve", "knowledge store not configured", nil)
	}
	if k <= 0 {
		k = r.topK
	}
	q := Query{Text: query, TopK: k}
	if r.embedder != nil {
		vector, err := r.embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil, services.Wrap(services.ErrRetrieval, "knowledge", "embed query", "unable to embed query", err)
		}
		q.Vector = vector
	}
	matches, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, services.Wrap(services.ErrRetrieval, "knowledge", "search", "vector search failed", err)
	}
	if len(matches) > k {
		matches = matches[:k]
	}
	out := make([]Match, 0, len(matches))
	for _, match := range matches {
		if strings.TrimSpace(match.Content) == "" {
			continue
		}
		out = append(out, match)
	}
	logging.WithContext(ctx, r.logger).Debug("rules retrieved",
		logging.Int("requested", k),
		logging.Int("returned", len(out)),
	)
	return out, nil
}

// Close releases the underlying store.
func (r *Retriever) Close() error {
	if r == nil || r.store == nil {
		return nil
	}
	return r.store.Close()
}

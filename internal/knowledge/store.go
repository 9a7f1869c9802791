package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"brandguardian/internal/config"
	"brandguardian/internal/services"
)

// Document is one indexed rule passage.
type Document struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	Source  string    `json:"source,omitempty"`
	Vector  []float32 `json:"vector,omitempty"`
}

// Match is a Document returned by a similarity query.
type Match struct {
	Document
	Score float64
}

// Query describes one similarity search. Vector may be nil when no embedder
// is configured; stores that cannot rank lexically reject such queries.
type Query struct {
	Text   string
	Vector []float32
	TopK   int
}

// Store persists rule passages and answers similarity queries.
type Store interface {
	Search(ctx context.Context, query Query) ([]Match, error)
	Upsert(ctx context.Context, docs []Document) error
	Close() error
}

// IndexEnsurer is implemented by stores whose index must exist before
// documents are written. dimensions is the embedding width.
type IndexEnsurer interface {
	EnsureIndex(ctx context.Context, dimensions int) error
}

// Embedder produces dense vectors for text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// OpenStore constructs the backend selected by cfg.Search.Backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "knowledge", "open store", "configuration unavailable", nil)
	}
	search := cfg.Search
	switch strings.ToLower(strings.TrimSpace(search.Backend)) {
	case config.BackendAzure:
		return NewAzureStore(AzureConfig{
			Endpoint:      search.Azure.Endpoint,
			APIKey:        search.Azure.APIKey,
			IndexName:     search.Azure.IndexName,
			APIVersion:    search.Azure.APIVersion,
			VectorField:   search.Azure.VectorField,
			ContentField:  search.Azure.ContentField,
			MetadataField: search.Azure.MetadataField,
		}, nil), nil
	case config.BackendPGVector:
		return OpenPGVectorStore(ctx, search.PGVector.DSN, search.PGVector.Table, cfg.Embedding.Dimensions, logger)
	case config.BackendMilvus:
		return OpenMilvusStore(ctx, MilvusConfig{
			Address:    search.Milvus.Address,
			Username:   search.Milvus.Username,
			Password:   search.Milvus.Password,
			APIKey:     search.Milvus.APIKey,
			Collection: search.Milvus.Collection,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case config.BackendMemory:
		return OpenMemoryStore(search.Memory.SnapshotPath)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "knowledge", "open store",
			fmt.Sprintf("unknown search backend %q", search.Backend), nil)
	}
}

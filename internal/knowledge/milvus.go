package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	defaultMilvusCollection = "brand_rules"
	milvusContentMaxLength  = 8192
	milvusIDMaxLength       = 64
	milvusSourceMaxLength   = 1024
)

// milvusClient is the subset of client.Client the store uses.
type milvusClient interface {
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, opts ...client.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error
	LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error
	Upsert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error)
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	Close() error
}

// MilvusConfig describes a Milvus or Zilliz Cloud collection.
type MilvusConfig struct {
	Address    string
	Username   string
	Password   string
	APIKey     string
	Collection string
	Dimensions int
}

// MilvusStore stores rule passages in a Milvus collection.
type MilvusStore struct {
	client     milvusClient
	collection string
	dim        int
}

// OpenMilvusStore connects and ensures the collection, index, and load state.
func OpenMilvusStore(ctx context.Context, cfg MilvusConfig) (*MilvusStore, error) {
	mc, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}
	store, err := newMilvusStore(ctx, mc, cfg.Collection, cfg.Dimensions)
	if err != nil {
		_ = mc.Close()
		return nil, err
	}
	return store, nil
}

func newMilvusStore(ctx context.Context, mc milvusClient, collection string, dim int) (*MilvusStore, error) {
	if strings.TrimSpace(collection) == "" {
		collection = defaultMilvusCollection
	}
	s := &MilvusStore{client: mc, collection: collection, dim: dim}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MilvusStore) schema() *entity.Schema {
	return entity.NewSchema().
		WithName(s.collection).
		WithDescription("brand compliance rule passages").
		WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusIDMaxLength).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName("content").WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusContentMaxLength)).
		WithField(entity.NewField().WithName("source").WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusSourceMaxLength)).
		WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))
}

func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("milvus has collection: %w", err)
	}
	if !has {
		if err := s.client.CreateCollection(ctx, s.schema(), 2); err != nil {
			return fmt.Errorf("milvus create collection: %w", err)
		}
		idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
		if err != nil {
			return fmt.Errorf("milvus hnsw index: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.collection, "vector", idx, false); err != nil {
			return fmt.Errorf("milvus create index: %w", err)
		}
	}
	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("milvus load collection: %w", err)
	}
	return nil
}

// Search runs an HNSW cosine query.
func (s *MilvusStore) Search(ctx context.Context, query Query) ([]Match, error) {
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("milvus search requires a query embedding")
	}
	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("milvus search param: %w", err)
	}
	results, err := s.client.Search(ctx, s.collection, nil, "", []string{"id", "content", "source"},
		[]entity.Vector{entity.FloatVector(query.Vector)}, "vector", entity.COSINE, query.TopK, sp)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}
	matches := []Match{}
	for _, result := range results {
		columns := make(map[string]entity.Column, len(result.Fields))
		for _, column := range result.Fields {
			columns[column.Name()] = column
		}
		for i := 0; i < result.ResultCount; i++ {
			match := Match{Document: Document{
				ID:      varCharAt(columns["id"], i),
				Content: varCharAt(columns["content"], i),
				Source:  varCharAt(columns["source"], i),
			}}
			if i < len(result.Scores) {
				match.Score = float64(result.Scores[i])
			}
			matches = append(matches, match)
		}
	}
	return matches, nil
}

func varCharAt(column entity.Column, i int) string {
	c, ok := column.(*entity.ColumnVarChar)
	if !ok {
		return ""
	}
	data := c.Data()
	if i < len(data) {
		return data[i]
	}
	return ""
}

// Upsert writes documents keyed by ID.
func (s *MilvusStore) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(docs))
	contents := make([]string, 0, len(docs))
	sources := make([]string, 0, len(docs))
	vectors := make([][]float32, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Vector) != s.dim {
			return fmt.Errorf("milvus upsert %s: vector has %d dimensions, collection expects %d", doc.ID, len(doc.Vector), s.dim)
		}
		ids = append(ids, doc.ID)
		contents = append(contents, truncateUTF8(doc.Content, milvusContentMaxLength))
		sources = append(sources, truncateUTF8(doc.Source, milvusSourceMaxLength))
		vectors = append(vectors, doc.Vector)
	}
	_, err := s.client.Upsert(ctx, s.collection, "",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnVarChar("source", sources),
		entity.NewColumnFloatVector("vector", s.dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("milvus upsert: %w", err)
	}
	return nil
}

// Close releases the client connection.
func (s *MilvusStore) Close() error {
	return s.client.Close()
}

// truncateUTF8 cuts value to at most limit bytes on a rune boundary.
func truncateUTF8(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := 0
	for i := range value {
		if i > limit {
			break
		}
		cut = i
	}
	return value[:cut]
}

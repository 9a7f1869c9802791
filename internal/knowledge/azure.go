package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAzureAPIVersion    = "2024-07-01"
	defaultAzureVectorField   = "content_vector"
	defaultAzureContentField  = "content"
	defaultAzureMetadataField = "metadata"
	azureErrorBodyLimit       = 4096

	azureHNSWAlgorithm = "default"
	azureHNSWProfile   = "myHnswProfile"
)

// AzureConfig describes an Azure AI Search index. The field names default to
// the layout id, content, content_vector, metadata.
type AzureConfig struct {
	Endpoint      string
	APIKey        string
	IndexName     string
	APIVersion    string
	VectorField   string
	ContentField  string
	MetadataField string
}

// AzureStore queries an Azure AI Search index over its REST API.
type AzureStore struct {
	cfg        AzureConfig
	httpClient *http.Client
}

// AzureStatusError is returned for non-2xx responses from the search service.
type AzureStatusError struct {
	Operation  string
	StatusCode int
	Detail     string
}

func (e *AzureStatusError) Error() string {
	return fmt.Sprintf("azure search %s: status %d: %s", e.Operation, e.StatusCode, e.Detail)
}

// NewAzureStore constructs an Azure AI Search store. A nil client uses a 60s timeout.
func NewAzureStore(cfg AzureConfig, client *http.Client) *AzureStore {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAzureAPIVersion
	}
	if cfg.VectorField == "" {
		cfg.VectorField = defaultAzureVectorField
	}
	if cfg.ContentField == "" {
		cfg.ContentField = defaultAzureContentField
	}
	if cfg.MetadataField == "" {
		cfg.MetadataField = defaultAzureMetadataField
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &AzureStore{cfg: cfg, httpClient: client}
}

type azureVectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

type azureSearchRequest struct {
	Search        string             `json:"search,omitempty"`
	VectorQueries []azureVectorQuery `json:"vectorQueries,omitempty"`
	Select        string             `json:"select"`
	Top           int                `json:"top"`
}

type azureSearchResponse struct {
	Value []map[string]any `json:"value"`
}

// Search runs a vector query, or a full-text query when no vector is supplied.
func (s *AzureStore) Search(ctx context.Context, query Query) ([]Match, error) {
	req := azureSearchRequest{
		Select: strings.Join([]string{"id", s.cfg.ContentField, s.cfg.MetadataField}, ","),
		Top:    query.TopK,
	}
	if len(query.Vector) > 0 {
		req.VectorQueries = []azureVectorQuery{{
			Kind:   "vector",
			Vector: query.Vector,
			Fields: s.cfg.VectorField,
			K:      query.TopK,
		}}
	} else {
		req.Search = query.Text
	}
	var resp azureSearchResponse
	if err := s.do(ctx, "search", http.MethodPost, s.docsURL("search"), req, &resp); err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(resp.Value))
	for _, hit := range resp.Value {
		doc := Document{
			ID:      stringField(hit, "id"),
			Content: stringField(hit, s.cfg.ContentField),
			Source:  metadataSource(hit[s.cfg.MetadataField]),
		}
		score, _ := hit["@search.score"].(float64)
		matches = append(matches, Match{Document: doc, Score: score})
	}
	return matches, nil
}

// Upsert merges documents into the index. Metadata is written as a JSON
// object string carrying the source file name.
func (s *AzureStore) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	actions := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		metadata, err := json.Marshal(map[string]string{"source": doc.Source})
		if err != nil {
			return fmt.Errorf("azure search: encode metadata: %w", err)
		}
		action := map[string]any{
			"@search.action":    "mergeOrUpload",
			"id":                doc.ID,
			s.cfg.ContentField:  doc.Content,
			s.cfg.MetadataField: string(metadata),
		}
		if len(doc.Vector) > 0 {
			action[s.cfg.VectorField] = doc.Vector
		}
		actions = append(actions, action)
	}
	return s.do(ctx, "index", http.MethodPost, s.docsURL("index"), map[string]any{"value": actions}, nil)
}

// EnsureIndex creates the index when the service does not have it. An
// existing index is left untouched.
func (s *AzureStore) EnsureIndex(ctx context.Context, dimensions int) error {
	err := s.do(ctx, "get index", http.MethodGet, s.indexURL(), nil, nil)
	if err == nil {
		return nil
	}
	var statusErr *AzureStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		return err
	}
	if dimensions <= 0 {
		return fmt.Errorf("azure search: index %q does not exist and no embedding dimensions are known to create it", s.cfg.IndexName)
	}
	return s.do(ctx, "create index", http.MethodPut, s.indexURL(), s.indexDefinition(dimensions), nil)
}

func (s *AzureStore) indexDefinition(dimensions int) map[string]any {
	return map[string]any{
		"name": s.cfg.IndexName,
		"fields": []map[string]any{
			{"name": "id", "type": "Edm.String", "key": true, "filterable": true},
			{"name": s.cfg.ContentField, "type": "Edm.String", "searchable": true},
			{
				"name":                s.cfg.VectorField,
				"type":                "Collection(Edm.Single)",
				"searchable":          true,
				"dimensions":          dimensions,
				"vectorSearchProfile": azureHNSWProfile,
			},
			{"name": s.cfg.MetadataField, "type": "Edm.String", "searchable": true},
		},
		"vectorSearch": map[string]any{
			"algorithms": []map[string]any{{"name": azureHNSWAlgorithm, "kind": "hnsw"}},
			"profiles":   []map[string]any{{"name": azureHNSWProfile, "algorithm": azureHNSWAlgorithm}},
		},
	}
}

// Close implements Store.
func (s *AzureStore) Close() error { return nil }

func (s *AzureStore) indexURL() string {
	return fmt.Sprintf("%s/indexes/%s?api-version=%s",
		s.cfg.Endpoint, url.PathEscape(s.cfg.IndexName), url.QueryEscape(s.cfg.APIVersion))
}

func (s *AzureStore) docsURL(operation string) string {
	return fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s",
		s.cfg.Endpoint, url.PathEscape(s.cfg.IndexName), operation, url.QueryEscape(s.cfg.APIVersion))
}

func (s *AzureStore) do(ctx context.Context, operation, method, endpoint string, body any, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("azure search: encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("azure search: new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("api-key", s.cfg.APIKey)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("azure search %s: %w", operation, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, azureErrorBodyLimit))
		return &AzureStatusError{Operation: operation, StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(detail))}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("azure search %s: decode response: %w", operation, err)
	}
	return nil
}

// metadataSource reads "source" from a metadata value stored either as a
// JSON object string or as an inline object.
func metadataSource(value any) string {
	switch v := value.(type) {
	case string:
		var meta map[string]any
		if err := json.Unmarshal([]byte(v), &meta); err != nil {
			return ""
		}
		return stringField(meta, "source")
	case map[string]any:
		return stringField(v, "source")
	default:
		return ""
	}
}

func stringField(values map[string]any, key string) string {
	value, _ := values[key].(string)
	return value
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingConfig captures the settings for an OpenAI-compatible embeddings endpoint.
type EmbeddingConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Dimensions     int
	TimeoutSeconds int
}

// Embedder turns text into vectors.
type Embedder struct {
	cfg EmbeddingConfig
	api *openai.Client
	settings
}

// NewEmbedder constructs an embeddings client.
func NewEmbedder(cfg EmbeddingConfig, opts ...Option) *Embedder {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Model = strings.TrimSpace(cfg.Model)
	s := newSettings(cfg.TimeoutSeconds, opts)
	return &Embedder{
		cfg:      cfg,
		api:      newAPI(cfg.APIKey, cfg.BaseURL, s.httpClient),
		settings: s,
	}
}

// Dimensions returns the configured vector size, or 0 when unknown.
func (e *Embedder) Dimensions() int {
	return e.cfg.Dimensions
}

// Embed returns one vector per input, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.cfg.APIKey == "" {
		return nil, errors.New("llm embed: api key required")
	}
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.cfg.Model),
	}
	if e.cfg.Dimensions > 0 {
		req.Dimensions = e.cfg.Dimensions
	}

	attempts := e.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := e.api.CreateEmbeddings(ctx, req)
		if err == nil {
			return orderEmbeddings(resp, len(texts))
		}
		delay, retry := e.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return nil, fmt.Errorf("llm embed: %w", err)
		}
		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("llm embed: failed after %d attempts: %w", attempts, lastErr)
}

// EmbedQuery embeds a single string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func orderEmbeddings(resp openai.EmbeddingResponse, want int) ([][]float32, error) {
	if len(resp.Data) != want {
		return nil, fmt.Errorf("llm embed: expected %d vectors, got %d", want, len(resp.Data))
	}
	data := slices.Clone(resp.Data)
	slices.SortFunc(data, func(a, b openai.Embedding) int { return a.Index - b.Index })
	out := make([][]float32, len(data))
	for i, item := range data {
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("llm embed: empty vector at index %d", item.Index)
		}
		out[i] = item.Embedding
	}
	return out, nil
}

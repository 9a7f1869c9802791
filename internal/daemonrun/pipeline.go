package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"brandguardian/internal/compliance"
	"brandguardian/internal/config"
	"brandguardian/internal/extraction"
	"brandguardian/internal/knowledge"
	"brandguardian/internal/preflight"
	"brandguardian/internal/services/downloader"
	"brandguardian/internal/services/llm"
	"brandguardian/internal/services/videoindexer"
	"brandguardian/internal/stage"
	"brandguardian/internal/workflow"
)

// Pipeline holds the stage handlers and the resources they share.
type Pipeline struct {
	Stages   workflow.StageSet
	Store    knowledge.Store
	Embedder *llm.Embedder
}

// Close releases the knowledge store.
func (p *Pipeline) Close() error {
	if p == nil || p.Store == nil {
		return nil
	}
	return p.Store.Close()
}

// NewEmbedder builds the embeddings client described by cfg.
func NewEmbedder(cfg *config.Config) *llm.Embedder {
	return llm.NewEmbedder(llm.EmbeddingConfig{
		APIKey:         cfg.Embedding.APIKey,
		BaseURL:        cfg.Embedding.BaseURL,
		Model:          cfg.Embedding.Model,
		Dimensions:     cfg.Embedding.Dimensions,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(cfg.LLM.RetryMaxAttempts))
}

// NewVideoIndexer builds the Video Indexer client described by cfg.
func NewVideoIndexer(cfg *config.Config, logger *slog.Logger) *videoindexer.Client {
	vi := cfg.VideoIndexer
	return videoindexer.NewClient(videoindexer.Config{
		AccountID:      vi.AccountID,
		Location:       vi.Location,
		AccountName:    vi.AccountName,
		SubscriptionID: vi.SubscriptionID,
		ResourceGroup:  vi.ResourceGroup,
		TenantID:       vi.TenantID,
		ClientID:       vi.ClientID,
		ClientSecret:   vi.ClientSecret,
		AccessToken:    vi.AccessToken,
		APIBaseURL:     vi.APIBaseURL,
		ARMBaseURL:     vi.ARMBaseURL,
		LoginBaseURL:   vi.LoginBaseURL,
		Privacy:        vi.Privacy,
		IndexingPreset: vi.IndexingPreset,
		Language:       vi.Language,
		PollInterval:   cfg.PollInterval(),
		RequestTimeout: time.Duration(vi.RequestTimeoutSeconds) * time.Second,
	}, videoindexer.WithLogger(logger))
}

// NewJudge builds the audit judge backed by the configured chat model.
func NewJudge(cfg *config.Config, logger *slog.Logger) *compliance.Judge {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		JSONMode:       cfg.LLM.JSONMode,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(cfg.LLM.RetryMaxAttempts))
	return compliance.NewJudge(client, logger)
}

// BuildPipeline constructs the extraction and audit stages from cfg.
func BuildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	store, err := knowledge.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}

	fetcher := downloader.New(downloader.Config{
		YtDlpBinary: cfg.Download.YtDlpBinary,
		Format:      cfg.Download.Format,
		Timeout:     time.Duration(cfg.Download.TimeoutSeconds) * time.Second,
	}, downloader.WithLogger(logger))
	client := extraction.NewClient(fetcher, NewVideoIndexer(cfg, logger), cfg.Paths.TempDir, cfg.Workflow.Platform, logger)

	embedder := NewEmbedder(cfg)
	retriever := knowledge.NewRetriever(embedder, store, cfg.Search.TopK, logger)

	return &Pipeline{
		Stages: workflow.StageSet{
			Extraction: extraction.NewStage(client, logger,
				extraction.WithHealthCheck(stage.Probe(extraction.StageName, func(context.Context) (bool, string) {
					return fromSummary(preflight.VideoIndexerSummary(cfg.VideoIndexer))
				})),
			),
			Audit: compliance.NewStage(retriever, NewJudge(cfg, logger), cfg.Search.TopK, logger,
				compliance.WithHealthCheck(stage.Probe(compliance.StageName, func(context.Context) (bool, string) {
					if judge := preflight.JudgeSummary(cfg.LLM); !judge.Passed {
						return false, "judge API key missing"
					}
					return fromSummary(preflight.KnowledgeSummary(cfg.Search))
				})),
			),
		},
		Store:    store,
		Embedder: embedder,
	}, nil
}

func fromSummary(r preflight.Result) (bool, string) {
	return r.Passed, r.Detail
}

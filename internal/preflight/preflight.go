package preflight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"brandguardian/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Check is one named readiness probe.
type Check struct {
	Name string
	Run  func(context.Context) Result
}

// Plan lists the checks that apply to cfg in display order. Backend checks
// follow the configured search backend.
func Plan(cfg *config.Config) []Check {
	if cfg == nil {
		return nil
	}
	checks := []Check{
		{Name: "Temp directory", Run: func(context.Context) Result {
			return CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir)
		}},
		{Name: "State directory", Run: func(context.Context) Result {
			return CheckDirectoryAccess("State directory", cfg.Paths.StateDir)
		}},
		{Name: "Video Indexer API", Run: func(ctx context.Context) Result {
			return CheckEndpoint(ctx, "Video Indexer API", cfg.VideoIndexer.APIBaseURL)
		}},
	}

	switch cfg.Search.Backend {
	case config.BackendAzure:
		checks = append(checks, Check{Name: "Azure AI Search", Run: func(ctx context.Context) Result {
			return CheckEndpoint(ctx, "Azure AI Search", cfg.Search.Azure.Endpoint)
		}})
	case config.BackendPGVector:
		checks = append(checks, Check{Name: "PostgreSQL", Run: func(ctx context.Context) Result {
			return CheckPostgres(ctx, "PostgreSQL", cfg.Search.PGVector.DSN)
		}})
	case config.BackendMilvus:
		checks = append(checks, Check{Name: "Milvus", Run: func(ctx context.Context) Result {
			return CheckTCP(ctx, "Milvus", cfg.Search.Milvus.Address)
		}})
	}

	return append(checks, Check{Name: "Compliance LLM", Run: func(ctx context.Context) Result {
		return CheckLLM(ctx, "Compliance LLM", cfg.LLM)
	}})
}

// RunAll executes Plan(cfg) concurrently. Results keep plan order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	checks := Plan(cfg)
	results := make([]Result, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			results[i] = check.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

package preflight

import (
	"fmt"
	"strings"

	"brandguardian/internal/config"
)

// Summaries describes the configured integrations without contacting them.
func Summaries(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		VideoIndexerSummary(cfg.VideoIndexer),
		KnowledgeSummary(cfg.Search),
		JudgeSummary(cfg.LLM),
		historySummary(cfg.History),
		notificationsSummary(cfg.Notifications),
	}
}

// VideoIndexerSummary checks that an account and a credential are configured.
func VideoIndexerSummary(vi config.VideoIndexer) Result {
	const name = "Video Indexer"
	if vi.AccountID == "" || vi.Location == "" {
		return Result{Name: name, Detail: "Missing account id or location"}
	}
	auth := "service principal"
	if vi.AccessToken != "" {
		auth = "static access token"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("account %s in %s (%s)", vi.AccountID, vi.Location, auth)}
}

// KnowledgeSummary checks the settings the selected search backend needs.
func KnowledgeSummary(search config.Search) Result {
	const name = "Knowledge base"
	switch search.Backend {
	case config.BackendAzure:
		if search.Azure.Endpoint == "" || search.Azure.IndexName == "" {
			return Result{Name: name, Detail: "azure: missing endpoint or index"}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("azure index %s at %s", search.Azure.IndexName, search.Azure.Endpoint)}
	case config.BackendPGVector:
		if search.PGVector.DSN == "" {
			return Result{Name: name, Detail: "pgvector: missing dsn"}
		}
		return Result{Name: name, Passed: true, Detail: "pgvector table " + search.PGVector.Table}
	case config.BackendMilvus:
		return Result{Name: name, Passed: search.Milvus.Address != "", Detail: fmt.Sprintf("milvus collection %s at %s", search.Milvus.Collection, search.Milvus.Address)}
	case config.BackendMemory:
		return Result{Name: name, Passed: true, Detail: "memory snapshot " + search.Memory.SnapshotPath}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unsupported backend %q", search.Backend)}
	}
}

// JudgeSummary checks that the judge model has a key.
func JudgeSummary(l config.LLM) Result {
	return Result{Name: "Judge model", Passed: strings.TrimSpace(l.APIKey) != "", Detail: fmt.Sprintf("%s via %s", l.Model, l.BaseURL)}
}

func historySummary(h config.History) Result {
	if !h.Enabled {
		return Result{Name: "History", Passed: true, Detail: "Disabled"}
	}
	return Result{Name: "History", Passed: true, Detail: h.DatabasePath}
}

func notificationsSummary(n config.Notifications) Result {
	topic := strings.TrimSpace(n.NtfyTopic)
	if topic == "" {
		return Result{Name: "Notifications", Passed: true, Detail: "Disabled"}
	}
	return Result{Name: "Notifications", Passed: true, Detail: "ntfy " + topic}
}

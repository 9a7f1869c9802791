package config

import (
	"errors"
	"fmt"
	"strings"

	"brandguardian/internal/services"
)

// Validate ensures the configuration is usable. Every missing credential for the
// selected backends is reported in one error wrapping services.ErrConfiguration.
func (c *Config) Validate() error {
	var missing []string
	missing = append(missing, c.missingVideoIndexer()...)
	missing = append(missing, c.missingSearch()...)
	missing = append(missing, c.missingModels()...)
	if len(missing) > 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			fmt.Sprintf("missing required settings: %s (set the matching environment variables or edit %s, create with 'brandguardian config init')",
				strings.Join(missing, ", "), defaultPath), nil)
	}
	if err := c.validateRanges(); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
	}
	return nil
}

func (c *Config) missingVideoIndexer() []string {
	vi := c.VideoIndexer
	var missing []string
	if vi.AccountID == "" {
		missing = append(missing, "video_indexer.account_id (AZURE_VI_ACCOUNT_ID)")
	}
	if vi.Location == "" {
		missing = append(missing, "video_indexer.location (AZURE_VI_LOCATION)")
	}
	if vi.AccessToken != "" {
		return missing
	}
	required := []struct {
		value string
		name  string
	}{
		{vi.AccountName, "video_indexer.account_name (AZURE_VI_NAME)"},
		{vi.SubscriptionID, "video_indexer.subscription_id (AZURE_SUBSCRIPTION_ID)"},
		{vi.ResourceGroup, "video_indexer.resource_group (AZURE_RESOURCE_GROUP)"},
		{vi.TenantID, "video_indexer.tenant_id (AZURE_TENANT_ID)"},
		{vi.ClientID, "video_indexer.client_id (AZURE_CLIENT_ID)"},
		{vi.ClientSecret, "video_indexer.client_secret (AZURE_CLIENT_SECRET)"},
	}
	for _, field := range required {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

func (c *Config) missingSearch() []string {
	var missing []string
	switch c.Search.Backend {
	case BackendAzure:
		if c.Search.Azure.Endpoint == "" {
			missing = append(missing, "search.azure.endpoint (AZURE_SEARCH_ENDPOINT)")
		}
		if c.Search.Azure.APIKey == "" {
			missing = append(missing, "search.azure.api_key (AZURE_SEARCH_API_KEY)")
		}
		if c.Search.Azure.IndexName == "" {
			missing = append(missing, "search.azure.index_name (AZURE_SEARCH_INDEX_NAME)")
		}
	case BackendPGVector:
		if c.Search.PGVector.DSN == "" {
			missing = append(missing, "search.pgvector.dsn (DATABASE_URL)")
		}
	case BackendMilvus:
		if c.Search.Milvus.Address == "" {
			missing = append(missing, "search.milvus.address (MILVUS_ADDR)")
		}
	case BackendMemory:
	default:
		missing = append(missing, fmt.Sprintf("search.backend (unsupported value %q)", c.Search.Backend))
	}
	return missing
}

func (c *Config) missingModels() []string {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "llm.api_key (HUGGINGFACEHUB_API_TOKEN)")
	}
	if c.LLM.Model == "" {
		missing = append(missing, "llm.model")
	}
	if c.Embedding.Model == "" {
		missing = append(missing, "embedding.model")
	}
	return missing
}

func (c *Config) validateRanges() error {
	if err := ensurePositiveMap(map[string]int{
		"video_indexer.poll_interval_seconds":   c.VideoIndexer.PollIntervalSeconds,
		"video_indexer.request_timeout_seconds": c.VideoIndexer.RequestTimeoutSeconds,
		"download.timeout_seconds":              c.Download.TimeoutSeconds,
		"search.top_k":                          c.Search.TopK,
		"embedding.batch_size":                  c.Embedding.BatchSize,
		"llm.max_tokens":                        c.LLM.MaxTokens,
		"llm.timeout_seconds":                   c.LLM.TimeoutSeconds,
		"llm.retry_max_attempts":                c.LLM.RetryMaxAttempts,
		"server.max_upload_mb":                  c.Server.MaxUploadMB,
		"notifications.request_timeout":         c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.Paths.StaleTempHours < 0 {
		return errors.New("paths.stale_temp_hours must not be negative")
	}
	if c.Embedding.Dimensions < 0 {
		return errors.New("embedding.dimensions must not be negative")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

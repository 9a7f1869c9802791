package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"brandguardian/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeVideoIndexer()
	c.normalizeDownload()
	if err := c.normalizeSearch(); err != nil {
		return err
	}
	c.normalizeModels()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	c.Workflow.Platform = strings.TrimSpace(c.Workflow.Platform)
	c.Workflow.SampleVideoURL = strings.TrimSpace(c.Workflow.SampleVideoURL)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = filepath.Join(os.TempDir(), "brandguardian")
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	c.Server.ServiceName = strings.TrimSpace(c.Server.ServiceName)
	if c.Server.ServiceName == "" {
		c.Server.ServiceName = defaultServiceName
	}
	origins := c.Server.CORSOrigins[:0]
	for _, origin := range c.Server.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.Server.CORSOrigins = origins
	c.Server.LockPath = strings.TrimSpace(c.Server.LockPath)
	if c.Server.LockPath == "" {
		c.Server.LockPath = filepath.Join(c.Paths.StateDir, "brandguardiand.lock")
	}
	envFallback(&c.Server.APIToken, "BRANDGUARDIAN_API_TOKEN")
}

func (c *Config) normalizeVideoIndexer() {
	vi := &c.VideoIndexer
	envFallback(&vi.AccountID, "AZURE_VI_ACCOUNT_ID")
	envFallback(&vi.Location, "AZURE_VI_LOCATION")
	envFallback(&vi.AccountName, "AZURE_VI_NAME")
	envFallback(&vi.SubscriptionID, "AZURE_SUBSCRIPTION_ID")
	envFallback(&vi.ResourceGroup, "AZURE_RESOURCE_GROUP")
	envFallback(&vi.TenantID, "AZURE_TENANT_ID")
	envFallback(&vi.ClientID, "AZURE_CLIENT_ID")
	envFallback(&vi.ClientSecret, "AZURE_CLIENT_SECRET")
	envFallback(&vi.AccessToken, "AZURE_VI_ACCESS_TOKEN")
	vi.APIBaseURL = strings.TrimRight(defaultString(vi.APIBaseURL, defaultVideoIndexerAPIBaseURL), "/")
	vi.ARMBaseURL = strings.TrimRight(defaultString(vi.ARMBaseURL, defaultARMBaseURL), "/")
	vi.LoginBaseURL = strings.TrimRight(defaultString(vi.LoginBaseURL, defaultLoginBaseURL), "/")
	vi.Privacy = defaultString(vi.Privacy, defaultVideoIndexerPrivacy)
	vi.IndexingPreset = defaultString(vi.IndexingPreset, defaultIndexingPreset)
	vi.Language = language.ForIndexer(vi.Language)
}

func (c *Config) normalizeDownload() {
	c.Download.YtDlpBinary = defaultString(c.Download.YtDlpBinary, defaultYtDlpBinary)
	c.Download.Format = defaultString(c.Download.Format, defaultDownloadFormat)
}

func (c *Config) normalizeSearch() error {
	s := &c.Search
	s.Backend = strings.ToLower(defaultString(s.Backend, defaultSearchBackend))
	envFallback(&s.Azure.Endpoint, "AZURE_SEARCH_ENDPOINT")
	envFallback(&s.Azure.APIKey, "AZURE_SEARCH_API_KEY")
	envFallback(&s.Azure.IndexName, "AZURE_SEARCH_INDEX_NAME")
	s.Azure.Endpoint = strings.TrimRight(s.Azure.Endpoint, "/")
	s.Azure.APIVersion = defaultString(s.Azure.APIVersion, defaultAzureSearchAPIVersion)
	s.Azure.VectorField = defaultString(s.Azure.VectorField, defaultAzureVectorField)
	s.Azure.ContentField = defaultString(s.Azure.ContentField, defaultAzureContentField)
	s.Azure.MetadataField = defaultString(s.Azure.MetadataField, defaultAzureMetadataField)
	envFallback(&s.PGVector.DSN, "DATABASE_URL")
	s.PGVector.Table = defaultString(s.PGVector.Table, defaultRuleTable)
	envFallback(&s.Milvus.Address, "MILVUS_ADDR")
	s.Milvus.Address = defaultString(s.Milvus.Address, defaultMilvusAddress)
	s.Milvus.Collection = defaultString(s.Milvus.Collection, defaultRuleTable)
	if strings.TrimSpace(s.Memory.SnapshotPath) == "" {
		s.Memory.SnapshotPath = filepath.Join(c.Paths.StateDir, "knowledge.json")
	}
	var err error
	if s.Memory.SnapshotPath, err = expandPath(s.Memory.SnapshotPath); err != nil {
		return fmt.Errorf("search.memory.snapshot_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeModels() {
	envFallback(&c.LLM.APIKey, "HUGGINGFACEHUB_API_TOKEN", "HF_TOKEN", "OPENAI_API_KEY")
	c.LLM.BaseURL = strings.TrimRight(defaultString(c.LLM.BaseURL, defaultLLMBaseURL), "/")
	c.LLM.Model = defaultString(c.LLM.Model, defaultLLMModel)

	c.Embedding.BaseURL = strings.TrimRight(defaultString(c.Embedding.BaseURL, c.LLM.BaseURL), "/")
	c.Embedding.APIKey = defaultString(c.Embedding.APIKey, c.LLM.APIKey)
	c.Embedding.Model = defaultString(c.Embedding.Model, defaultEmbeddingModel)
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.DatabasePath) == "" {
		c.History.DatabasePath = filepath.Join(c.Paths.StateDir, "history.db")
	}
	var err error
	if c.History.DatabasePath, err = expandPath(c.History.DatabasePath); err != nil {
		return fmt.Errorf("history.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	envFallback(&c.Notifications.NtfyTopic, "BRANDGUARDIAN_NTFY_TOPIC")
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(defaultString(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(defaultString(c.Logging.Level, defaultLogLevel))
}

// envFallback trims *field and fills it from the first non-empty variable.
func envFallback(field *string, keys ...string) {
	*field = strings.TrimSpace(*field)
	if *field != "" {
		return
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			*field = strings.TrimSpace(value)
			return
		}
	}
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

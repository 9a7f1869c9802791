package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	TempDir  string `toml:"temp_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`

	// StaleTempHours is the age after which leftover session files in
	// TempDir are removed at server start. Zero disables the sweep.
	StaleTempHours int `toml:"stale_temp_hours"`
}

// Server contains configuration for the HTTP API process.
type Server struct {
	Bind        string   `toml:"bind"`
	ServiceName string   `toml:"service_name"`
	MaxUploadMB int      `toml:"max_upload_mb"`
	CORSOrigins []string `toml:"cors_origins"`
	LockPath    string   `toml:"lock_path"`
	APIToken    string   `toml:"api_token"`
}

// VideoIndexer contains configuration for the Azure Video Indexer account.
//
// AccessToken short-circuits the ARM token exchange when an account token is
// issued out of band. Otherwise the service principal credentials are used to
// obtain an ARM token which is exchanged for an account token.
type VideoIndexer struct {
	AccountID             string `toml:"account_id"`
	Location              string `toml:"location"`
	AccountName           string `toml:"account_name"`
	SubscriptionID        string `toml:"subscription_id"`
	ResourceGroup         string `toml:"resource_group"`
	TenantID              string `toml:"tenant_id"`
	ClientID              string `toml:"client_id"`
	ClientSecret          string `toml:"client_secret"`
	AccessToken           string `toml:"access_token"`
	APIBaseURL            string `toml:"api_base_url"`
	ARMBaseURL            string `toml:"arm_base_url"`
	LoginBaseURL          string `toml:"login_base_url"`
	Privacy               string `toml:"privacy"`
	IndexingPreset        string `toml:"indexing_preset"`
	Language              string `toml:"language"`
	PollIntervalSeconds   int    `toml:"poll_interval_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Download contains configuration for acquiring remote videos.
type Download struct {
	YtDlpBinary    string `toml:"yt_dlp_binary"`
	Format         string `toml:"format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AzureSearch contains configuration for the Azure AI Search vector backend.
type AzureSearch struct {
	Endpoint      string `toml:"endpoint"`
	APIKey        string `toml:"api_key"`
	IndexName     string `toml:"index_name"`
	APIVersion    string `toml:"api_version"`
	VectorField   string `toml:"vector_field"`
	ContentField  string `toml:"content_field"`
	MetadataField string `toml:"metadata_field"`
}

// PGVector contains configuration for the Postgres pgvector backend.
type PGVector struct {
	DSN   string `toml:"dsn"`
	Table string `toml:"table"`
}

// Milvus contains configuration for the Milvus backend.
type Milvus struct {
	Address    string `toml:"address"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
}

// MemoryStore contains configuration for the in-process backend.
type MemoryStore struct {
	SnapshotPath string `toml:"snapshot_path"`
}

// Search selects and configures the knowledge base backend.
type Search struct {
	Backend  string      `toml:"backend"`
	TopK     int         `toml:"top_k"`
	Azure    AzureSearch `toml:"azure"`
	PGVector PGVector    `toml:"pgvector"`
	Milvus   Milvus      `toml:"milvus"`
	Memory   MemoryStore `toml:"memory"`
}

// Embedding contains configuration for the embedding endpoint.
type Embedding struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	BatchSize  int    `toml:"batch_size"`
}

// LLM contains configuration for the compliance judge model.
type LLM struct {
	BaseURL          string  `toml:"base_url"`
	APIKey           string  `toml:"api_key"`
	Model            string  `toml:"model"`
	Temperature      float64 `toml:"temperature"`
	MaxTokens        int     `toml:"max_tokens"`
	JSONMode         bool    `toml:"json_mode"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
	RetryMaxAttempts int     `toml:"retry_max_attempts"`
}

// History contains configuration for the local audit ledger.
type History struct {
	Enabled      bool   `toml:"enabled"`
	DatabasePath string `toml:"database_path"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	AuditLogs     bool   `toml:"audit_logs"`
	RetentionDays int    `toml:"retention_days"`
}

// Workflow contains audit-level settings.
type Workflow struct {
	Platform       string `toml:"platform"`
	SampleVideoURL string `toml:"sample_video_url"`
}

// Config encapsulates all configuration values for Brand Guardian.
//
// Configuration sections by subsystem:
//   - Paths: temp, log, and state directories
//   - Server: HTTP API bind address and upload limits
//   - VideoIndexer: Azure Video Indexer account and credentials
//   - Download: yt-dlp settings for remote videos
//   - Search: knowledge base backend selection
//   - Embedding: embedding endpoint used for retrieval and indexing
//   - LLM: compliance judge model
//   - History: optional local ledger of finished audits
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
//   - Workflow: audit metadata defaults
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	VideoIndexer  VideoIndexer  `toml:"video_indexer"`
	Download      Download      `toml:"download"`
	Search        Search        `toml:"search"`
	Embedding     Embedding     `toml:"embedding"`
	LLM           LLM           `toml:"llm"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Workflow      Workflow      `toml:"workflow"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := Parse(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolvedPath, exists, err
	}
	return cfg, resolvedPath, exists, nil
}

// Parse reads and normalizes a configuration file without validating it.
func Parse(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("brandguardian.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the temp, log, and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.TempDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PollInterval returns the Video Indexer polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.VideoIndexer.PollIntervalSeconds) * time.Second
}

// MaxUploadBytes returns the largest accepted upload body in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

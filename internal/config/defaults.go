package config

const (
	defaultConfigPath             = "~/.config/brandguardian/config.toml"
	defaultLogDir                 = "~/.local/share/brandguardian/logs"
	defaultStateDir               = "~/.local/share/brandguardian"
	defaultServerBind             = "127.0.0.1:8000"
	defaultServiceName            = "Brand Guardian AI"
	defaultMaxUploadMB            = 500
	defaultStaleTempHours         = 24
	defaultVideoIndexerAPIBaseURL = "https://api.videoindexer.ai"
	defaultARMBaseURL             = "https://management.azure.com"
	defaultLoginBaseURL           = "https://login.microsoftonline.com"
	defaultVideoIndexerPrivacy    = "Private"
	defaultIndexingPreset         = "Default"
	defaultPollIntervalSeconds    = 30
	defaultRequestTimeoutSeconds  = 120
	defaultYtDlpBinary            = "yt-dlp"
	defaultDownloadFormat         = "best"
	defaultDownloadTimeoutSeconds = 900
	defaultSearchBackend          = BackendAzure
	defaultTopK                   = 3
	defaultAzureSearchAPIVersion  = "2024-07-01"
	defaultAzureVectorField       = "content_vector"
	defaultAzureContentField      = "content"
	defaultAzureMetadataField     = "metadata"
	defaultRuleTable              = "brand_rules"
	defaultMilvusAddress          = "localhost:19530"
	defaultLLMBaseURL             = "https://router.huggingface.co/v1"
	defaultLLMModel               = "Qwen/Qwen2.5-14B-Instruct"
	defaultLLMMaxTokens           = 2000
	defaultLLMTimeoutSeconds      = 120
	defaultLLMRetryMaxAttempts    = 5
	defaultEmbeddingModel         = "sentence-transformers/all-MiniLM-L6-v2"
	defaultEmbeddingDimensions    = 384
	defaultEmbeddingBatchSize     = 32
	defaultNotifyRequestTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
	defaultPlatform               = "youtube"
	defaultSampleVideoURL         = "https://youtu.be/xTpv9lc_qMw"
)

// Search backend identifiers.
const (
	BackendAzure    = "azure"
	BackendPGVector = "pgvector"
	BackendMilvus   = "milvus"
	BackendMemory   = "memory"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:         defaultLogDir,
			StateDir:       defaultStateDir,
			StaleTempHours: defaultStaleTempHours,
		},
		Server: Server{
			Bind:        defaultServerBind,
			ServiceName: defaultServiceName,
			MaxUploadMB: defaultMaxUploadMB,
			CORSOrigins: []string{"*"},
		},
		VideoIndexer: VideoIndexer{
			APIBaseURL:            defaultVideoIndexerAPIBaseURL,
			ARMBaseURL:            defaultARMBaseURL,
			LoginBaseURL:          defaultLoginBaseURL,
			Privacy:               defaultVideoIndexerPrivacy,
			IndexingPreset:        defaultIndexingPreset,
			PollIntervalSeconds:   defaultPollIntervalSeconds,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Download: Download{
			YtDlpBinary:    defaultYtDlpBinary,
			Format:         defaultDownloadFormat,
			TimeoutSeconds: defaultDownloadTimeoutSeconds,
		},
		Search: Search{
			Backend: defaultSearchBackend,
			TopK:    defaultTopK,
			Azure: AzureSearch{
				APIVersion:    defaultAzureSearchAPIVersion,
				VectorField:   defaultAzureVectorField,
				ContentField:  defaultAzureContentField,
				MetadataField: defaultAzureMetadataField,
			},
			PGVector: PGVector{Table: defaultRuleTable},
			Milvus: Milvus{
				Address:    defaultMilvusAddress,
				Collection: defaultRuleTable,
			},
		},
		Embedding: Embedding{
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
			BatchSize:  defaultEmbeddingBatchSize,
		},
		LLM: LLM{
			BaseURL:          defaultLLMBaseURL,
			Model:            defaultLLMModel,
			Temperature:      0,
			MaxTokens:        defaultLLMMaxTokens,
			TimeoutSeconds:   defaultLLMTimeoutSeconds,
			RetryMaxAttempts: defaultLLMRetryMaxAttempts,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			AuditLogs:     true,
			RetentionDays: defaultLogRetentionDays,
		},
		Workflow: Workflow{
			Platform:       defaultPlatform,
			SampleVideoURL: defaultSampleVideoURL,
		},
	}
}

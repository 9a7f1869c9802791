package extraction

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"brandguardian/internal/fileutil"
	"brandguardian/internal/language"
	"brandguardian/internal/logging"
	"brandguardian/internal/services"
	"brandguardian/internal/services/downloader"
	"brandguardian/internal/services/videoindexer"
)

// Fetcher resolves a reference to local media.
type Fetcher interface {
	Fetch(ctx context.Context, reference, dest string) (downloader.Result, error)
}

// Indexer submits media to the indexing service and waits for insights.
type Indexer interface {
	Upload(ctx context.Context, path, name string) (string, error)
	WaitForIndex(ctx context.Context, videoID string) (videoindexer.IndexResult, error)
}

// Result is the normalized output of one extraction.
type Result struct {
	Transcript string
	OCRText    []string
	Metadata   map[string]any
	// IndexID is the identifier the indexing service assigned to the upload.
	IndexID string
}

// Client runs the extraction sequence for one reference at a time.
type Client struct {
	fetcher  Fetcher
	indexer  Indexer
	tempDir  string
	platform string
	logger   *slog.Logger
}

// NewClient constructs an extraction client. Remote media is staged under tempDir.
func NewClient(fetcher Fetcher, indexer Indexer, tempDir, platform string, logger *slog.Logger) *Client {
	return &Client{
		fetcher:  fetcher,
		indexer:  indexer,
		tempDir:  tempDir,
		platform: platform,
		logger:   logging.NewComponentLogger(logger, "extraction"),
	}
}

// MediaPath returns the staging path used for reference within the session on ctx.
func (c *Client) MediaPath(ctx context.Context, reference string) string {
	sessionID, _ := services.SessionIDFromContext(ctx)
	videoID, ok := services.VideoIDFromContext(ctx)
	if !ok {
		videoID = "vid"
	}
	if sessionID == "" {
		sessionID = time.Now().UTC().Format("20060102T150405.000000000")
	}
	return fileutil.SessionMediaPath(c.tempDir, videoID, sessionID, fileutil.MediaExtension(reference))
}

// FetchAndTranscribe downloads reference when remote, uploads it, waits for
// indexing, and normalizes the insights. Media downloaded here is removed as
// soon as the upload completes and on every error path.
func (c *Client) FetchAndTranscribe(ctx context.Context, reference string) (Result, error) {
	if c == nil || c.fetcher == nil || c.indexer == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "extraction", "init", "extraction client is not configured", nil)
	}
	logger := logging.WithContext(ctx, c.logger)

	media, err := c.fetcher.Fetch(ctx, reference, c.MediaPath(ctx, reference))
	if err != nil {
		return Result{}, services.Wrap(services.ErrExtraction, "extraction", "download", "unable to acquire video", err)
	}
	defer func() {
		if err := media.Remove(); err != nil {
			logger.Warn("failed to remove staged media",
				logging.Error(err),
				logging.String("path", media.Path),
				logging.String(logging.FieldEventType, "media_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "remove the file from the temp directory manually"),
			)
		}
	}()

	indexID, err := c.indexer.Upload(ctx, media.Path, uploadName(ctx, media.Path))
	if err != nil {
		return Result{}, services.Wrap(services.ErrExtraction, "extraction", "upload", "video upload failed", err)
	}
	if err := media.Remove(); err != nil {
		logger.Debug("staged media removal deferred", logging.Error(err))
	}
	logger.Info("video submitted for indexing", logging.String("index_id", indexID))

	index, err := c.indexer.WaitForIndex(ctx, indexID)
	if err != nil {
		message := "indexing did not complete"
		switch {
		case errors.Is(err, videoindexer.ErrQuarantined):
			message = "video rejected by content policy"
		case errors.Is(err, videoindexer.ErrIndexingFailed):
			message = "indexing service reported failure"
		}
		return Result{}, services.Wrap(services.ErrExtraction, "extraction", "index", message, err)
	}

	result := Normalize(index, c.platform)
	result.IndexID = indexID
	logger.Info("extraction complete",
		logging.Int("transcript_chars", len(result.Transcript)),
		logging.Int("ocr_lines", len(result.OCRText)),
	)
	return result, nil
}

// Normalize converts index insights into a Result.
func Normalize(index videoindexer.IndexResult, platform string) Result {
	metadata := map[string]any{
		"duration": index.Duration(),
		"platform": platform,
	}
	if lang := index.SourceLanguage(); lang != "" {
		metadata["language"] = lang
		metadata["language_name"] = language.DisplayName(lang)
	}
	return Result{
		Transcript: index.Transcript(),
		OCRText:    index.OCRLines(),
		Metadata:   metadata,
	}
}

func uploadName(ctx context.Context, path string) string {
	if videoID, ok := services.VideoIDFromContext(ctx); ok {
		return videoID
	}
	return filepath.Base(path)
}

package videoindexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"brandguardian/internal/logging"
)

const (
	armAPIVersion        = "2024-01-01"
	accountTokenLifetime = 50 * time.Minute
	defaultPollInterval  = 30 * time.Second
	defaultTimeout       = 120 * time.Second
	errorBodyLimit       = 4096

	// uploadResponseTimeout bounds the wait for response headers once the
	// whole upload body has been sent.
	uploadResponseTimeout = 10 * time.Minute
)

// Index states reported by the service.
const (
	StateProcessed   = "Processed"
	StateProcessing  = "Processing"
	StateUploaded    = "Uploaded"
	StateFailed      = "Failed"
	StateQuarantined = "Quarantined"
)

var (
	// ErrIndexingFailed reports that the service could not index the video.
	ErrIndexingFailed = errors.New("video indexing failed")
	// ErrQuarantined reports a content-policy rejection.
	ErrQuarantined = errors.New("video quarantined (copyright or content policy violation)")
)

// Config describes the Video Indexer account and credentials.
type Config struct {
	AccountID      string
	Location       string
	AccountName    string
	SubscriptionID string
	ResourceGroup  string
	TenantID       string
	ClientID       string
	ClientSecret   string
	// AccessToken, when set, is used as the account token and no exchange happens.
	AccessToken    string
	APIBaseURL     string
	ARMBaseURL     string
	LoginBaseURL   string
	Privacy        string
	IndexingPreset string
	// Language is "auto" or a BCP 47 tag; empty omits the parameter.
	Language       string
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// Sleeper waits between polls. It must return early with ctx.Err() when ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client wraps the Video Indexer upload and index endpoints.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	uploadClient *http.Client
	armTokens    oauth2.TokenSource
	sleeper      Sleeper
	logger       *slog.Logger
	now          func() time.Time

	mu           sync.Mutex
	accountToken string
	tokenExpiry  time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Uploads reuse its
// transport without the overall timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
			upload := *client
			upload.Timeout = 0
			c.uploadClient = &upload
		}
	}
}

// WithARMTokenSource overrides how Azure Resource Manager tokens are obtained.
func WithARMTokenSource(source oauth2.TokenSource) Option {
	return func(c *Client) {
		c.armTokens = source
	}
}

// WithSleeper overrides how the poll loop waits (useful for tests).
func WithSleeper(sleeper Sleeper) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a Video Indexer client.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.ARMBaseURL = strings.TrimRight(cfg.ARMBaseURL, "/")
	cfg.LoginBaseURL = strings.TrimRight(cfg.LoginBaseURL, "/")
	c := &Client{
		cfg:        cfg,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		uploadClient: newUploadClient(),
		sleeper:      sleepContext,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "videoindexer")
	if c.armTokens == nil && cfg.AccessToken == "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", cfg.LoginBaseURL, url.PathEscape(cfg.TenantID)),
			Scopes:       []string{cfg.ARMBaseURL + "/.default"},
		}
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		c.armTokens = cc.TokenSource(tokenCtx)
	}
	return c
}

// newUploadClient has no overall timeout: sending a large video can take far
// longer than any metadata call. The caller's context still cancels it.
func newUploadClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = uploadResponseTimeout
	return &http.Client{Transport: transport}
}

// PollInterval returns the configured wait between index polls.
func (c *Client) PollInterval() time.Duration {
	return c.cfg.PollInterval
}

// Upload streams the file at path to the service and returns the service's video ID.
func (c *Client) Upload(ctx context.Context, path, name string) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	query := url.Values{}
	query.Set("accessToken", token)
	query.Set("name", name)
	query.Set("privacy", c.cfg.Privacy)
	query.Set("indexingPreset", c.cfg.IndexingPreset)
	if c.cfg.Language != "" {
		query.Set("language", c.cfg.Language)
	}
	endpoint := c.accountURL("Videos") + "?" + query.Encode()

	body, contentType := multipartFile(file, filepath.Base(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("upload: new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var payload struct {
		ID string `json:"id"`
	}
	if err := c.send(c.uploadClient, req, &payload); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if strings.TrimSpace(payload.ID) == "" {
		return "", errors.New("upload: response did not include a video id")
	}
	c.logger.Info("video uploaded", logging.String("azure_video_id", payload.ID), logging.String("name", name))
	return payload.ID, nil
}

// multipartFile streams file as the "file" form field without buffering it in memory.
func multipartFile(file io.Reader, filename string) (io.Reader, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()
	return pr, writer.FormDataContentType()
}

// Index fetches the current index document for videoID.
func (c *Client) Index(ctx context.Context, videoID string) (IndexResult, error) {
	var result IndexResult
	token, err := c.token(ctx)
	if err != nil {
		return result, err
	}
	query := url.Values{}
	query.Set("accessToken", token)
	endpoint := c.accountURL("Videos", videoID, "Index") + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return result, fmt.Errorf("index: new request: %w", err)
	}
	if err := c.doJSON(req, &result); err != nil {
		return result, fmt.Errorf("index: %w", err)
	}
	return result, nil
}

// WaitForIndex polls until the video is processed. It waits one poll interval
// between non-terminal responses and has no attempt limit; ctx bounds it.
func (c *Client) WaitForIndex(ctx context.Context, videoID string) (IndexResult, error) {
	c.logger.Info("waiting for indexing", logging.String("azure_video_id", videoID), logging.Duration("poll_interval", c.cfg.PollInterval))
	sampler := logging.NewProgressSampler(25)
	for {
		result, err := c.Index(ctx, videoID)
		if err != nil {
			return IndexResult{}, err
		}
		switch result.State {
		case StateProcessed:
			c.logger.Info("indexing complete", logging.String("azure_video_id", videoID))
			return result, nil
		case StateFailed:
			return IndexResult{}, fmt.Errorf("%w: video %s", ErrIndexingFailed, videoID)
		case StateQuarantined:
			return IndexResult{}, fmt.Errorf("%w: video %s", ErrQuarantined, videoID)
		}
		if percent, ok := sampler.Observe(result.Progress()); ok {
			c.logger.Info("indexing in progress",
				logging.String("azure_video_id", videoID),
				logging.String("state", result.State),
				logging.Int("progress_percent", percent),
			)
		} else {
			c.logger.Debug("indexing in progress",
				logging.String("azure_video_id", videoID),
				logging.String("state", result.State),
				logging.String("progress", result.Progress()),
			)
		}
		if err := c.sleeper(ctx, c.cfg.PollInterval); err != nil {
			return IndexResult{}, err
		}
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.cfg.AccessToken != "" {
		return c.cfg.AccessToken, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accountToken != "" && c.now().Before(c.tokenExpiry) {
		return c.accountToken, nil
	}
	armToken, err := c.armTokens.Token()
	if err != nil {
		return "", fmt.Errorf("arm token: %w", err)
	}
	accountToken, err := c.exchangeToken(ctx, armToken.AccessToken)
	if err != nil {
		return "", err
	}
	c.accountToken = accountToken
	c.tokenExpiry = c.now().Add(accountTokenLifetime)
	return accountToken, nil
}

func (c *Client) exchangeToken(ctx context.Context, armToken string) (string, error) {
	endpoint := fmt.Sprintf("%s/subscriptions/%s/resourceGroups/%s/providers/Microsoft.VideoIndexer/accounts/%s/generateAccessToken?api-version=%s",
		c.cfg.ARMBaseURL,
		url.PathEscape(c.cfg.SubscriptionID),
		url.PathEscape(c.cfg.ResourceGroup),
		url.PathEscape(c.cfg.AccountName),
		armAPIVersion,
	)
	body, err := json.Marshal(map[string]string{"permissionType": "Contributor", "scope": "Account"})
	if err != nil {
		return "", fmt.Errorf("account token: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("account token: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+armToken)
	req.Header.Set("Content-Type", "application/json")
	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.doJSON(req, &payload); err != nil {
		return "", fmt.Errorf("account token: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("account token: response did not include accessToken")
	}
	return payload.AccessToken, nil
}

func (c *Client) accountURL(parts ...string) string {
	segments := []string{
		c.cfg.APIBaseURL,
		url.PathEscape(c.cfg.Location),
		"Accounts",
		url.PathEscape(c.cfg.AccountID),
	}
	for _, part := range parts {
		segments = append(segments, url.PathEscape(part))
	}
	return strings.Join(segments, "/")
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

func (c *Client) doJSON(req *http.Request, target any) error {
	return c.send(c.httpClient, req, target)
}

func (c *Client) send(client *http.Client, req *http.Request, target any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

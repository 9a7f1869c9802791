package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"brandguardian/internal/api"
)

var ErrAPIUnavailable = errors.New("audit API unavailable")

// StatusError is returned for non-2xx responses. Detail carries the server's
// error message when the body decodes as api.ErrorResponse.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("audit API returned status %d", e.Code)
	}
	return fmt.Sprintf("audit API returned status %d: %s", e.Code, e.Detail)
}

type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// New returns a client for the server bound at bind. A wildcard host is
// rewritten to loopback. An empty bind yields a nil client.
func New(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	switch base.Hostname() {
	case "", "0.0.0.0", "::":
		port := base.Port()
		base.Host = "127.0.0.1"
		if port != "" {
			base.Host = net.JoinHostPort("127.0.0.1", port)
		}
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		// No timeout: an audit request blocks until indexing finishes. Callers
		// bound probes with their context.
		http:  &http.Client{},
		token: strings.TrimSpace(token),
	}, nil
}

// BaseURL returns the resolved server address.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.base.String()
}

func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var payload api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, "", &payload)
	return payload, err
}

func (c *Client) Status(ctx context.Context) (api.ServerStatus, error) {
	var payload api.ServerStatus
	err := c.do(ctx, http.MethodGet, "/status", nil, "", &payload)
	return payload, err
}

// SubmitURL runs an audit on a remote video.
func (c *Client) SubmitURL(ctx context.Context, videoURL string) (api.AuditResponse, error) {
	body, err := json.Marshal(api.AuditRequest{VideoURL: videoURL})
	if err != nil {
		return api.AuditResponse{}, err
	}
	var payload api.AuditResponse
	err = c.do(ctx, http.MethodPost, "/audit", bytes.NewReader(body), "application/json", &payload)
	return payload, err
}

// SubmitFile uploads a local video as the multipart "file" field and runs an
// audit on it. The file is streamed rather than buffered.
func (c *Client) SubmitFile(ctx context.Context, path string) (api.AuditResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return api.AuditResponse{}, err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var payload api.AuditResponse
	err = c.do(ctx, http.MethodPost, "/audit", pr, mw.FormDataContentType(), &payload)
	// Unblock the writer if the request ended before the body was consumed.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	return payload, err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		statusErr := &StatusError{Code: resp.StatusCode}
		var detail api.ErrorResponse
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&detail) == nil {
			statusErr.Detail = detail.Detail
		}
		return statusErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsAPIUnavailable reports whether err means no server answered.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}

// Package jina implements the content-extraction contract against the
// Jina Reader API, which returns a cleaned markdown rendering of a page
// together with detected metadata.
package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
	"github.com/Asterovim/jina-reader-crawler/internal/repository"
)

const (
	// DefaultBaseURL is the global Jina Reader endpoint.
	DefaultBaseURL = "https://r.jina.ai/"
	// EUBaseURL is the EU-compliant endpoint. It does not return the
	// language metadata field.
	EUBaseURL = "https://eu-r-beta.jina.ai/"

	// upstreamTimeout is the render budget requested from the Reader
	// engine itself, independent of our transport timeout.
	upstreamTimeout = "30"
)

// Options configures a Reader client.
type Options struct {
	BaseURL         string // defaults to DefaultBaseURL
	APIKey          string
	RemoveSelector  string // CSS selector of elements to strip
	WaitForSelector string // CSS selector to wait for before rendering
	NoCache         bool
}

// Client calls the Jina Reader API. It implements
// repository.ExtractorRepository.
type Client struct {
	httpClient *http.Client
	opts       Options
}

// NewClient creates a Reader client. The per-request deadline is
// carried by the caller's context, not by the transport.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{},
		opts:       opts,
	}
}

// readerResponse mirrors the Reader JSON API payload.
type readerResponse struct {
	Warning string `json:"warning"`
	Data    struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Content     string `json:"content"`
		Language    string `json:"lang"`
	} `json:"data"`
}

// Extract fetches the markdown rendering of a page. Failures map onto
// the repository sentinel taxonomy: transport timeouts and connection
// errors are retriable, 429/5xx are retriable, other 4xx and malformed
// payloads are terminal.
func (c *Client) Extract(ctx context.Context, pageURL string) (*entity.Document, error) {
	resp, err := c.do(ctx, pageURL, c.opts.NoCache)
	if err != nil {
		return nil, err
	}

	// A cached snapshot can be stale; refetch once bypassing the cache.
	if !c.opts.NoCache && isCachedSnapshot(resp.Warning) {
		slog.Warn("cached snapshot detected, refetching without cache", "url", pageURL)
		resp, err = c.do(ctx, pageURL, true)
		if err != nil {
			return nil, err
		}
		if isCachedSnapshot(resp.Warning) {
			return nil, fmt.Errorf("%w: cached snapshot persisted after refetch", repository.ErrBadResponse)
		}
	}

	if resp.Data.Content == "" {
		return nil, repository.ErrEmptyContent
	}

	sourceURL := resp.Data.URL
	if sourceURL == "" {
		sourceURL = pageURL
	}

	return &entity.Document{
		Title:       resp.Data.Title,
		SourceURL:   sourceURL,
		Markdown:    resp.Data.Content,
		Description: resp.Data.Description,
		Language:    resp.Data.Language,
		FetchedAt:   time.Now(),
	}, nil
}

// do performs one Reader API call and classifies the response.
func (c *Client) do(ctx context.Context, pageURL string, noCache bool) (*readerResponse, error) {
	payload, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", repository.ErrBadResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", repository.ErrBadResponse, err)
	}
	c.setHeaders(req, noCache)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", repository.ErrFetchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrConnection, err)
	}
	defer httpResp.Body.Close()

	if err := classifyStatus(httpResp.StatusCode); err != nil {
		io.Copy(io.Discard, httpResp.Body)
		return nil, err
	}

	var resp readerResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", repository.ErrBadResponse, err)
	}
	return &resp, nil
}

func (c *Client) setHeaders(req *http.Request, noCache bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Engine", "browser")
	req.Header.Set("X-Retain-Images", "false")
	req.Header.Set("X-Timeout", upstreamTimeout)

	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}
	if c.opts.RemoveSelector != "" {
		req.Header.Set("X-Remove-Selector", c.opts.RemoveSelector)
	}
	if c.opts.WaitForSelector != "" {
		req.Header.Set("X-Wait-For-Selector", c.opts.WaitForSelector)
	}
	if noCache {
		req.Header.Set("X-No-Cache", "true")
	}
}

// classifyStatus maps HTTP status codes onto the sentinel taxonomy.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 400:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d", repository.ErrServerBusy, status)
	default:
		return fmt.Errorf("%w: status %d", repository.ErrContentRestricted, status)
	}
}

func isCachedSnapshot(warning string) bool {
	return strings.Contains(strings.ToLower(warning), "cached snapshot")
}

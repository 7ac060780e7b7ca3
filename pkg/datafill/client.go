// Package datafill is the Go side of the design-tool plugin: it fetches the
// public dataset map from the API and fills placeholder text nodes with
// random values from it.
package datafill

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 15 * time.Second

	publicPath = "/datasets/public"
	userAgent  = "datafill-go/1.0"
	// maxErrorBody bounds how much of an error response ends up in the error.
	maxErrorBody = 512
)

// Dataset is one entry of the public map.
type Dataset struct {
	Description string   `json:"description"`
	Data        []string `json:"data"`
}

// Datasets is the public map keyed by lowercase dataset name.
type Datasets map[string]Dataset

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("datafill: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("datafill: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the datafill API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for request logs. The default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the API rooted at baseURL, including the
// version prefix, e.g. "https://api.example.com/api/v1".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPublic downloads the public dataset map.
func (c *Client) FetchPublic(ctx context.Context) (Datasets, error) {
	reqURL, err := url.JoinPath(c.baseURL, publicPath)
	if err != nil {
		return nil, fmt.Errorf("datafill: build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("datafill: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("url", reqURL).Msg("fetch datasets failed")
		return nil, fmt.Errorf("datafill: request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("fetched datasets")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out Datasets
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("datafill: decode datasets: %w", err)
	}
	if out == nil {
		out = Datasets{}
	}
	c.log.Info().Int("datasets", len(out)).Msg("datasets loaded")
	return out, nil
}

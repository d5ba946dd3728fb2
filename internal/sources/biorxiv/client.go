// Package biorxiv queries the bioRxiv/medRxiv details API for the
// publication link the preprint server itself maintains. When the server
// already knows the journal DOI of a preprint, no matching is needed.
package biorxiv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/helixir/preprint-resolver/internal/domain"
	"github.com/helixir/preprint-resolver/internal/sources"
)

const (
	// DefaultBaseURL is the default bioRxiv API base URL. The same host
	// serves both bioRxiv and medRxiv details.
	DefaultBaseURL = "https://api.biorxiv.org"

	// DefaultRateLimit is the default rate limit (1 request per second).
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the bioRxiv/medRxiv details client.
type Config struct {
	// BaseURL is the bioRxiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client queries the bioRxiv/medRxiv details endpoint.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// New creates a new details client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: cfg.UserAgent,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new details client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// PublishedDOI asks the given preprint server for the journal DOI it has
// recorded for the preprint. server is the lowercase server name
// ("biorxiv" or "medrxiv"). Returns domain.ErrNotFound when the server
// has no publication link for the DOI, including when the published
// field holds the literal "NA".
func (c *Client) PublishedDOI(ctx context.Context, server, doi string) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/details/" + url.PathEscape(server) + "/" + doi

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewExternalAPIError(server, 0, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return "", domain.NewExternalAPIError(server, resp.StatusCode, string(body), nil)
	}

	var details DetailsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&details); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(details.Collection) == 0 {
		return "", domain.NewNotFoundError("preprint", doi)
	}

	// Version records all carry the same published field; the first is enough.
	published := strings.TrimSpace(details.Collection[0].Published)
	if published == "" || published == "NA" {
		return "", domain.NewNotFoundError("publication link", doi)
	}

	return published, nil
}

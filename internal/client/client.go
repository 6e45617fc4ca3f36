package client

import (
	"github.com/fivetwenty-io/ghextract/internal/http"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// Client implements the ghapi.Client interface.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	maxPages   int
	logger     ghapi.Logger
}

var _ ghapi.Client = (*Client)(nil)

// createHTTPClientOptions builds HTTP client options from a defaulted config.
func createHTTPClientOptions(config *ghapi.Config) []http.Option {
	httpOpts := []http.Option{
		http.WithUserAgent(config.UserAgent),
		http.WithAPIVersion(config.APIVersion),
		http.WithRetryConfig(config.MaxRetries, config.MinRetryWait, config.MaxRetryWait),
		http.WithTimeout(config.HTTPTimeout),
		http.WithRateLimit(config.RequestRateLimit),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.Admitter != nil {
		httpOpts = append(httpOpts, http.WithAdmitter(config.Admitter))
	}

	return httpOpts
}

// New validates config and creates a client. config is not modified.
func New(config *ghapi.Config, extra ...http.Option) (*Client, error) {
	if config == nil {
		return nil, ghapi.NewConfigurationError("config is required")
	}

	err := config.Validate()
	if err != nil {
		return nil, err
	}

	cfg := config.ApplyDefaults()

	baseURL, err := cfg.ResolveBaseURL()
	if err != nil {
		return nil, err
	}

	httpOpts := append(createHTTPClientOptions(&cfg), extra...)

	client := &Client{
		httpClient: http.NewClient(baseURL, cfg.AuthToken, httpOpts...),
		baseURL:    baseURL,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		logger:     cfg.Logger,
	}

	client.info("GitHub client configured", map[string]interface{}{
		"base_url":         baseURL,
		"page_size":        cfg.PageSize,
		"max_retries":      cfg.MaxRetries,
		"rate_limit":       cfg.RequestRateLimit,
		"shared_admission": cfg.Admitter != nil,
	})

	return client, nil
}

// BaseURL returns the resolved API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close implements ghapi.Client.Close.
func (c *Client) Close() {
	c.httpClient.Close()
}

func (c *Client) info(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, fields)
	}
}

func (c *Client) warn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}

func (c *Client) debug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

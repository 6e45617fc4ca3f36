package ghapi

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v80/github"

	"github.com/fivetwenty-io/ghextract/internal/constants"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Admitter decides whether one more request may be sent now. Implementations
// must be safe for concurrent use and must not block.
type Admitter interface {
	Admit(ctx context.Context) (bool, error)
}

// Config represents client configuration for building a client.
//
// # Endpoint
//
// Either BaseURL or GitHubHostname must be set. BaseURL is used verbatim
// (a missing scheme defaults to https). GitHubHostname is expanded: "github.com"
// and "api.github.com" map to the public API, any other host is treated as a
// GitHub Enterprise Server and gets the "/api/v3" prefix.
//
// # Retries
//
// MaxRetries counts retries after the first attempt. Zero selects the default
// (20); a negative value disables retries. Backoff is randomized exponential
// starting at MinRetryWait and capped at MaxRetryWait.
//
// # Rate limiting
//
// RequestRateLimit bounds requests per trailing minute for this client. A
// shared Admitter (for example a Redis-backed window) replaces the in-process
// window when set.
type Config struct {
	// Required fields
	// AuthToken: sent as "Authorization: Bearer <token>".
	AuthToken string
	// GitHubHostname: host of the GitHub instance, e.g. "github.example.com".
	GitHubHostname string
	// BaseURL: full API base URL; takes precedence over GitHubHostname.
	BaseURL string
	// UserAgent: sent as the User-Agent header. GitHub rejects requests without one.
	UserAgent string

	// Optional configurations
	// PageSize: items per page (per_page), 1..100.
	PageSize int
	// MaxRetries: retries after the first attempt.
	MaxRetries int
	// MinRetryWait: base backoff delay.
	MinRetryWait time.Duration
	// MaxRetryWait: cap of a single backoff delay.
	MaxRetryWait time.Duration
	// RequestRateLimit: admitted requests per trailing minute.
	RequestRateLimit int
	// HTTPTimeout: timeout of a single attempt.
	HTTPTimeout time.Duration
	// MaxPages: page ceiling after which a listing stops with a warning.
	MaxPages int
	// APIVersion: value of the X-GitHub-Api-Version header.
	APIVersion string
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// Admitter: optional shared admission controller.
	Admitter Admitter
}

// ApplyDefaults returns a copy of the config with zero values replaced by
// defaults. The receiver is not modified.
func (c Config) ApplyDefaults() Config {
	if c.PageSize == 0 {
		c.PageSize = constants.DefaultPageSize
	}

	if c.MaxRetries == 0 {
		c.MaxRetries = constants.DefaultRetryMax
	} else if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}

	if c.MinRetryWait == 0 {
		c.MinRetryWait = constants.DefaultRetryWaitMin
	}

	if c.MaxRetryWait == 0 {
		c.MaxRetryWait = constants.DefaultRetryWaitMax
	}

	if c.RequestRateLimit == 0 {
		c.RequestRateLimit = constants.DefaultRequestRateLimit
	}

	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	if c.MaxPages == 0 {
		c.MaxPages = constants.DefaultMaxPages
	}

	if c.APIVersion == "" {
		c.APIVersion = constants.DefaultAPIVersion
	}

	return c
}

// Validate checks the configuration once, at construction time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AuthToken) == "" {
		return NewConfigurationError("auth token is required")
	}

	if strings.TrimSpace(c.UserAgent) == "" {
		return NewConfigurationError("user agent is required")
	}

	if strings.TrimSpace(c.BaseURL) == "" && strings.TrimSpace(c.GitHubHostname) == "" {
		return NewConfigurationError("base URL or GitHub hostname is required")
	}

	if c.PageSize < 0 || c.PageSize > constants.MaxPageSize {
		return NewConfigurationError("page size must be between 1 and %d, got %d", constants.MaxPageSize, c.PageSize)
	}

	if c.RequestRateLimit < 0 {
		return NewConfigurationError("request rate limit must be positive, got %d", c.RequestRateLimit)
	}

	if c.MinRetryWait < 0 || c.MaxRetryWait < 0 {
		return NewConfigurationError("retry waits must not be negative")
	}

	if c.MaxPages < 0 {
		return NewConfigurationError("max pages must not be negative, got %d", c.MaxPages)
	}

	_, err := c.ResolveBaseURL()

	return err
}

// ResolveBaseURL returns the API base URL without a trailing slash.
func (c *Config) ResolveBaseURL() (string, error) {
	if base := strings.TrimSpace(c.BaseURL); base != "" {
		return normalizeEndpoint(base)
	}

	host := strings.TrimSuffix(strings.TrimSpace(c.GitHubHostname), "/")
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")

	if host == constants.PublicHost || host == constants.PublicAPIHost {
		return "https://" + constants.PublicAPIHost, nil
	}

	endpoint := "https://" + host

	enterprise, err := github.NewClient(nil).WithEnterpriseURLs(endpoint, endpoint)
	if err != nil {
		return "", WrapConfigurationError(err, "invalid GitHub hostname %q", c.GitHubHostname)
	}

	return strings.TrimSuffix(enterprise.BaseURL.String(), "/"), nil
}

func normalizeEndpoint(raw string) (string, error) {
	endpoint := strings.TrimSuffix(raw, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", WrapConfigurationError(err, "invalid base URL %q", raw)
	}

	if parsed.Host == "" {
		return "", WrapConfigurationError(ErrNoHost, "invalid base URL %q", raw)
	}

	return endpoint, nil
}

// Package http implements the GitHub REST transport: authenticated GET
// requests with moving-window admission, status classification, and
// randomized exponential retry.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/ghextract/internal/constants"
	"github.com/fivetwenty-io/ghextract/internal/ratelimit"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
	headerLink          = "Link"
)

// Client is a retrying GET client for one API base URL.
type Client struct {
	baseURL      string
	token        string
	userAgent    string
	apiVersion   string
	logger       ghapi.Logger
	debug        bool
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	timeout      time.Duration
	rateLimit    int
	admitter     ghapi.Admitter
	base         http.RoundTripper

	retryClient *retryablehttp.Client
}

// Request is a GET request relative to the base URL. Path may also be an
// absolute URL, as found in Link headers.
type Request struct {
	Path    string
	Query   url.Values
	Headers map[string]string
}

// Response is a completed response with its body fully read.
type Response struct {
	StatusCode int
	URL        string
	Headers    http.Header
	Body       []byte
	Links      map[string]string
}

// Next returns the rel="next" link, if any.
func (r *Response) Next() (string, bool) {
	next, ok := r.Links["next"]

	return next, ok && next != ""
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger ghapi.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response at debug level.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAPIVersion sets the X-GitHub-Api-Version header.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithRetryConfig sets the number of retries after the first attempt and the
// backoff bounds.
func WithRetryConfig(maxRetries int, minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.retryMax = maxRetries
		c.retryWaitMin = minWait
		c.retryWaitMax = maxWait
	}
}

// WithRateLimit sets the per-minute limit of the in-process admission window.
// Ignored when WithAdmitter is given.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		c.rateLimit = perMinute
	}
}

// WithAdmitter replaces the in-process admission window.
func WithAdmitter(admitter ghapi.Admitter) Option {
	return func(c *Client) {
		c.admitter = admitter
	}
}

// WithTimeout sets the timeout of a single attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient uses the transport of httpClient beneath the auth and
// admission layers.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil && httpClient.Transport != nil {
			c.base = httpClient.Transport
		}

		if httpClient != nil && httpClient.Timeout > 0 {
			c.timeout = httpClient.Timeout
		}
	}
}

// NewClient creates a new client. token may be empty, in which case no
// Authorization header is sent; callers needing one validate beforehand.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		token:        token,
		apiVersion:   constants.DefaultAPIVersion,
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
		timeout:      constants.DefaultHTTPTimeout,
		rateLimit:    constants.DefaultRequestRateLimit,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.admitter == nil {
		c.admitter = ratelimit.NewMovingWindow(c.rateLimit, constants.RateLimitWindow)
	}

	if c.base == nil {
		c.base = cleanhttp.DefaultPooledTransport()
	}

	c.retryClient = c.newRetryClient()

	return c
}

func (c *Client) newRetryClient() *retryablehttp.Client {
	var transport http.RoundTripper = c.base

	if c.token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	transport = newAdmissionTransport(transport, c.admitter, c.logger)

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}
	rc.RetryMax = max(c.retryMax, 0)
	rc.RetryWaitMin = c.retryWaitMin
	rc.RetryWaitMax = c.retryWaitMax
	rc.CheckRetry = checkRetry
	rc.Backoff = RandomExponentialBackoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.RequestLogHook = c.logRetry
	rc.Logger = nil

	if c.logger != nil && c.debug {
		rc.Logger = &leveledLogger{logger: c.logger}
	}

	return rc
}

func (c *Client) logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if c.logger == nil || attempt == 0 {
		return
	}

	c.logger.Warn("Retrying request", map[string]interface{}{
		"url":     req.URL.String(),
		"attempt": attempt,
		"max":     c.retryClient.RetryMax,
	})
}

// Get performs a GET on path with query.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Path: path, Query: query})
}

// GetURL performs a GET on an absolute URL, such as a Link header target.
func (c *Client) GetURL(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, &Request{Path: rawURL})
}

// Do executes the request through the retry loop. Non-2xx outcomes return
// the Response alongside a *ghapi.Error so callers can inspect both.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", constants.MediaTypeGitHubJSON)
	httpReq.Header.Set(constants.HeaderAPIVersion, c.apiVersion)

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": http.MethodGet,
			"url":    fullURL,
		})
	}

	start := time.Now()

	httpResp, err := c.retryClient.Do(httpReq)

	var resp *Response

	if httpResp != nil {
		resp, err = c.readResponse(httpResp, fullURL, err)
	}

	if c.debug && c.logger != nil && resp != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   resp.StatusCode,
			"url":      fullURL,
			"duration": time.Since(start).String(),
		})
	}

	if err != nil {
		return resp, c.wrapError(err, fullURL)
	}

	return resp, nil
}

func (c *Client) readResponse(httpResp *http.Response, fullURL string, doErr error) (*Response, error) {
	defer func() {
		_ = httpResp.Body.Close()
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil && doErr == nil {
		doErr = &ghapi.Error{
			Kind:       ghapi.KindTransient,
			Retryable:  true,
			StatusCode: httpResp.StatusCode,
			URL:        fullURL,
			Err:        fmt.Errorf("reading response body: %w", err),
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		URL:        fullURL,
		Headers:    httpResp.Header,
		Body:       body,
		Links:      ParseLinkHeader(httpResp.Header.Get(headerLink)),
	}

	if httpResp.Request != nil {
		resp.URL = httpResp.Request.URL.String()
	}

	return resp, doErr
}

// wrapError ensures every failure leaving the client is a *ghapi.Error,
// except context cancellation which is returned as is.
func (c *Client) wrapError(err error, fullURL string) error {
	var apiErr *ghapi.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("GET %s: %w", fullURL, err)
	}

	wrapped := networkError(err)
	if wrapped.URL == "" {
		wrapped.URL = fullURL
	}

	return wrapped
}

func (c *Client) buildURL(req *Request) (string, error) {
	raw := req.Path
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = c.baseURL + "/" + strings.TrimPrefix(raw, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", raw, err)
	}

	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			q[k] = vs
		}

		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	if closer, ok := c.base.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}

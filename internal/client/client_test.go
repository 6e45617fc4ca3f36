package client_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/ghextract/internal/client"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

func (l *mockLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *mockLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *mockLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *mockLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *mockLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func (l *mockLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string

	for _, e := range l.entries {
		if e.level == "warn" {
			out = append(out, e.msg)
		}
	}

	return out
}

func testConfig(baseURL string, logger ghapi.Logger) *ghapi.Config {
	return &ghapi.Config{
		AuthToken:    "test-token",
		BaseURL:      baseURL,
		UserAgent:    "ghextract-test",
		MaxRetries:   -1,
		MinRetryWait: time.Millisecond,
		MaxRetryWait: 5 * time.Millisecond,
		Logger:       logger,
	}
}

func newTestClient(t *testing.T, baseURL string, mutate func(*ghapi.Config)) (*client.Client, *mockLogger) {
	t.Helper()

	logger := &mockLogger{}
	cfg := testConfig(baseURL, logger)

	if mutate != nil {
		mutate(cfg)
	}

	c, err := client.New(cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return c, logger
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*ghapi.Config)
		errMsg string
	}{
		{name: "missing token", mutate: func(c *ghapi.Config) { c.AuthToken = "" }, errMsg: "token"},
		{name: "missing user agent", mutate: func(c *ghapi.Config) { c.UserAgent = "" }, errMsg: "user agent"},
		{name: "page size too large", mutate: func(c *ghapi.Config) { c.PageSize = 500 }, errMsg: "page size"},
		{name: "negative rate limit", mutate: func(c *ghapi.Config) { c.RequestRateLimit = -1 }, errMsg: "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig("https://ghe.example.com/api/v3", nil)
			tt.mutate(cfg)

			_, err := client.New(cfg)
			require.Error(t, err)
			require.ErrorIs(t, err, ghapi.ErrConfiguration)
			assert.Contains(t, strings.ToLower(err.Error()), tt.errMsg)
		})
	}

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := client.New(nil)
		require.ErrorIs(t, err, ghapi.ErrConfiguration)
	})

	t.Run("hostname resolves to enterprise base", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig("", nil)
		cfg.GitHubHostname = "ghe.example.com"

		c, err := client.New(cfg)
		require.NoError(t, err)
		defer c.Close()

		assert.Equal(t, "https://ghe.example.com/api/v3", c.BaseURL())
	})

	t.Run("config is not modified", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig("https://ghe.example.com/api/v3", nil)

		c, err := client.New(cfg)
		require.NoError(t, err)
		defer c.Close()

		assert.Zero(t, cfg.PageSize)
		assert.Equal(t, -1, cfg.MaxRetries)
	})

	t.Run("logs configuration", func(t *testing.T) {
		t.Parallel()

		c, logger := newTestClient(t, "https://ghe.example.com/api/v3", nil)
		assert.Equal(t, "https://ghe.example.com/api/v3", c.BaseURL())

		logger.mu.Lock()
		defer logger.mu.Unlock()

		require.NotEmpty(t, logger.entries)
		assert.Equal(t, "GitHub client configured", logger.entries[0].msg)
		assert.Equal(t, 100, logger.entries[0].fields["page_size"])
	})
}

func TestFetchOneAndLookupOne(t *testing.T) {
	t.Parallel()

	server := newRouter(t, map[string]routeHandler{
		"/orgs/octo-org":  jsonBody(`{"login":"octo-org","id":1}`),
		"/orgs/broken":    rawBody("<html>oops</html>"),
		"/orgs/forbidden": status(403, `{"message":"Resource not accessible by integration"}`),
	})

	c, _ := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	t.Run("fetch existing", func(t *testing.T) {
		t.Parallel()

		body, err := c.FetchOne(ctx, "orgs/octo-org")
		require.NoError(t, err)
		assert.JSONEq(t, `{"login":"octo-org","id":1}`, string(body))
	})

	t.Run("fetch missing is an error", func(t *testing.T) {
		t.Parallel()

		_, err := c.FetchOne(ctx, "orgs/ghost")
		require.Error(t, err)
		require.ErrorIs(t, err, ghapi.ErrNotFound)
		assert.True(t, ghapi.IsNotFound(err))
	})

	t.Run("lookup missing is absent", func(t *testing.T) {
		t.Parallel()

		body, found, err := c.LookupOne(ctx, "orgs/ghost")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, body)
	})

	t.Run("lookup existing", func(t *testing.T) {
		t.Parallel()

		body, found, err := c.LookupOne(ctx, "/orgs/octo-org")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Contains(t, string(body), "octo-org")
	})

	t.Run("lookup forbidden is an error", func(t *testing.T) {
		t.Parallel()

		_, found, err := c.LookupOne(ctx, "orgs/forbidden")
		require.Error(t, err)
		assert.False(t, found)
		assert.True(t, ghapi.IsForbidden(err))
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		_, err := c.FetchOne(ctx, "orgs/broken")
		require.ErrorIs(t, err, client.ErrInvalidJSON)
	})
}

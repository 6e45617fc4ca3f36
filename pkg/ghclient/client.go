// Package ghclient provides the main entry point for creating GitHub REST API clients
package ghclient

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fivetwenty-io/ghextract/internal/client"
	"github.com/fivetwenty-io/ghextract/internal/constants"
	"github.com/fivetwenty-io/ghextract/internal/ratelimit"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// New creates a new GitHub API client. The config is validated once and never
// modified; configuration problems are returned as ghapi.ErrConfiguration.
func New(config *ghapi.Config) (ghapi.Client, error) {
	c, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a client for a GitHub host with an access token.
// "github.com" targets the public API, any other host is treated as GitHub
// Enterprise Server.
func NewWithToken(hostname, token, userAgent string) (ghapi.Client, error) {
	return New(&ghapi.Config{
		GitHubHostname: hostname,
		AuthToken:      token,
		UserAgent:      userAgent,
	})
}

// NewWithSharedLimit creates a client whose admission window lives in Redis
// under key, so every process using the same key and token shares one
// request budget. An empty key selects the default.
func NewWithSharedLimit(config *ghapi.Config, rdb redis.UniversalClient, key string) (ghapi.Client, error) {
	if config == nil {
		return nil, fmt.Errorf("failed to create new client: %w", ghapi.NewConfigurationError("config is required"))
	}

	if rdb == nil {
		return nil, fmt.Errorf("failed to create new client: %w", ghapi.NewConfigurationError("redis client is required"))
	}

	cfg := *config

	limit := cfg.RequestRateLimit
	if limit == 0 {
		limit = constants.DefaultRequestRateLimit
	}

	var opts []ratelimit.RedisOption
	if key != "" {
		opts = append(opts, ratelimit.WithRedisKey(key))
	}

	cfg.Admitter = ratelimit.NewRedisWindow(rdb, limit, constants.RateLimitWindow, opts...)

	return New(&cfg)
}

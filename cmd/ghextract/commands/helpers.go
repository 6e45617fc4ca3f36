package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ghextract/internal/constants"
	"github.com/fivetwenty-io/ghextract/internal/logging"
	"github.com/fivetwenty-io/ghextract/internal/sink"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
	"github.com/fivetwenty-io/ghextract/pkg/ghclient"
)

// JSON formatting.
const defaultJSONIndent = 2

// Common static errors used throughout the commands package.
var (
	ErrTokenRequired      = constants.ErrNoTokenConfigured
	ErrEnterpriseRequired = constants.ErrEnterpriseRequired
	ErrNothingSelected    = constants.ErrNothingSelected
)

// clientConfig builds the client configuration from flags, environment and
// config file.
func clientConfig(token string, logger ghapi.Logger) *ghapi.Config {
	return &ghapi.Config{
		AuthToken:        token,
		GitHubHostname:   viper.GetString("hostname"),
		BaseURL:          viper.GetString("base-url"),
		UserAgent:        viper.GetString("user-agent"),
		PageSize:         viper.GetInt("page-size"),
		MaxRetries:       retriesFromFlag(viper.GetInt("max-retries")),
		MaxRetryWait:     viper.GetDuration("max-retry-wait"),
		RequestRateLimit: viper.GetInt("rate-limit"),
		MaxPages:         viper.GetInt("max-pages"),
		Debug:            viper.GetBool("debug"),
		Logger:           logger,
	}
}

// retriesFromFlag maps the --max-retries value onto Config.MaxRetries. The flag
// already defaults to the library default, so 0 on the command line means no
// retries rather than "use the default".
func retriesFromFlag(n int) int {
	if n <= 0 {
		return -1
	}

	return n
}

// resolveToken returns the configured token, prompting for one when stdin is
// a terminal.
func resolveToken(cmd *cobra.Command) (string, error) {
	token := strings.TrimSpace(viper.GetString("token"))
	if token != "" {
		return token, nil
	}

	fd := int(os.Stdin.Fd()) // #nosec G115 -- file descriptors fit in int
	if !term.IsTerminal(fd) {
		return "", ErrTokenRequired
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")

	tokenBytes, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(cmd.ErrOrStderr())

	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token = strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return "", ErrTokenRequired
	}

	return token, nil
}

func newLogger(cmd *cobra.Command) *logging.ZapLogger {
	return logging.New(cmd.ErrOrStderr(), viper.GetBool("verbose") || viper.GetBool("debug"))
}

// newClient creates the API client. The returned cleanup closes the client
// and, when a shared limit is used, the Redis connection.
func newClient(cmd *cobra.Command, logger ghapi.Logger) (ghapi.Client, func(), error) {
	token, err := resolveToken(cmd)
	if err != nil {
		return nil, nil, err
	}

	config := clientConfig(token, logger)

	addr := viper.GetString("redis-addr")
	if addr == "" {
		client, err := ghclient.New(config)
		if err != nil {
			return nil, nil, err
		}

		return client, client.Close, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	client, err := ghclient.NewWithSharedLimit(config, rdb, viper.GetString("redis-key"))
	if err != nil {
		_ = rdb.Close()

		return nil, nil, err
	}

	logger.Info("Sharing rate limit through Redis", map[string]interface{}{"addr": addr})

	return client, func() {
		client.Close()

		_ = rdb.Close()
	}, nil
}

func newSink(cmd *cobra.Command) (sink.Sink, error) {
	s, err := sink.NewFromConfig(&sink.Config{
		Type:    sink.Type(viper.GetString("sink")),
		Path:    viper.GetString("output-file"),
		NATSURL: viper.GetString("nats-url"),
		Subject: viper.GetString("nats-subject"),
	}, cmd.OutOrStdout())
	if err != nil {
		return nil, fmt.Errorf("creating sink: %w", err)
	}

	return s, nil
}

// encode writes v as JSON or YAML. It reports false for any other format so
// callers can render a table.
func encode(w io.Writer, v any) (bool, error) {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		return true, encoder.Encode(v)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		return true, encoder.Encode(v)
	default:
		return false, nil
	}
}

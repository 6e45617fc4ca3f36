package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ghextract/cmd/ghextract/commands"
	"github.com/fivetwenty-io/ghextract/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ghextract",
	Short: "GitHub organizational data extractor",
	Long: `Extract organizations, repositories, teams, users and enterprise audit
events from a GitHub or GitHub Enterprise Server REST API.

Requests are rate limited, retried with exponential backoff and paginated
through Link headers. Records are written as JSON lines or published to NATS.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.StringP("config", "c", "", "config file (default is $HOME/.ghextract/config.yml)")
	flags.String("hostname", "", "GitHub host, e.g. github.example.com")
	flags.String("base-url", "", "API base URL, overrides --hostname")
	flags.StringP("token", "t", "", "access token")
	flags.String("user-agent", "ghextract", "User-Agent header")
	flags.Int("page-size", constants.DefaultPageSize, "items per page (1-100)")
	flags.Int("max-retries", constants.DefaultRetryMax, "retries after the first attempt (0 disables)")
	flags.Duration("max-retry-wait", constants.DefaultRetryWaitMax, "cap of a single backoff delay")
	flags.Int("rate-limit", constants.DefaultRequestRateLimit, "requests per minute")
	flags.Int("max-pages", constants.DefaultMaxPages, "page ceiling of a single listing")
	flags.Int("concurrency", constants.DefaultConcurrencyLimit, "concurrent sub-resource requests per record")
	flags.String("redis-addr", "", "share the rate limit through Redis at this address")
	flags.String("redis-key", constants.DefaultRedisKey, "Redis key of the shared rate limit")
	flags.String("output", constants.FormatTable, "output format (table, json, yaml)")
	flags.String("sink", constants.SinkStdout, "record sink (stdout, file, nats)")
	flags.String("output-file", "", "output file of the file sink")
	flags.String("nats-url", "", "NATS server URL of the nats sink")
	flags.String("nats-subject", constants.DefaultNATSSubject, "subject prefix of the nats sink")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Bool("debug", false, "log every HTTP request and response")

	// Bind flags to viper
	flags.VisitAll(func(flag *pflag.Flag) {
		_ = viper.BindPFlag(flag.Name, flag)
	})

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewAuditCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.ghextract/config.yml
		viper.AddConfigPath(filepath.Join(home, ".ghextract"))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("GHEXTRACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// OutputFilePerm is the permission for record output files.
	OutputFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for a single HTTP attempt.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as sink flushes.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default number of retries after the first attempt.
	DefaultRetryMax = 20

	// DefaultRetryWaitMin is the base delay of the exponential backoff.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax caps a single backoff delay.
	DefaultRetryWaitMax = 60 * time.Second

	// ExponentialBackoffBase is the base for exponential backoff.
	ExponentialBackoffBase = 2
)

// Rate limiting.
const (
	// ProviderHourlyLimit is the documented request ceiling per hour for an
	// authenticated GitHub Enterprise token.
	ProviderHourlyLimit = 13000

	// DefaultRequestRateLimit is the per-minute admission limit, derived from the
	// hourly ceiling and rounded down.
	DefaultRequestRateLimit = ProviderHourlyLimit / 60

	// RateLimitWindow is the length of the moving admission window.
	RateLimitWindow = time.Minute

	// RefusalLogInterval throttles "window saturated" log lines.
	RefusalLogInterval = 5 * time.Second

	// DefaultRedisKey is the sorted-set key used by the shared Redis window.
	DefaultRedisKey = "ghextract:ratelimit"
)

// Pagination limits.
const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 100

	// MaxPageSize is the largest page size the API honours.
	MaxPageSize = 100

	// DefaultMaxPages is the page ceiling of search-backed endpoints. Past it the
	// API stops returning data.
	DefaultMaxPages = 100
)

// GitHub REST API protocol values.
const (
	// MediaTypeGitHubJSON is sent as the Accept header.
	MediaTypeGitHubJSON = "application/vnd.github+json"

	// HeaderAPIVersion carries the REST API version.
	HeaderAPIVersion = "X-GitHub-Api-Version"

	// DefaultAPIVersion is the REST API version requested by default.
	DefaultAPIVersion = "2022-11-28"

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"

	// PublicAPIHost is the API host of github.com.
	PublicAPIHost = "api.github.com"

	// PublicHost is the web host of github.com.
	PublicHost = "github.com"
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit bounds concurrent sub-resource fetches per record.
	DefaultConcurrencyLimit = 3
)

// Audit log date handling.
const (
	// DateLayout is the layout of dates in search phrases.
	DateLayout = "2006-01-02"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// Sink kinds.
const (
	// SinkStdout writes JSON lines to standard output.
	SinkStdout = "stdout"

	// SinkFile writes JSON lines to a file.
	SinkFile = "file"

	// SinkNATS publishes records to NATS subjects.
	SinkNATS = "nats"

	// DefaultNATSSubject is the subject prefix for published records.
	DefaultNATSSubject = "ghextract.records"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// None is used when no value is present.
	None = "none"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

// Package ghapi defines the configuration, error taxonomy, and interfaces of
// the GitHub REST API client, plus the audit log search phrase builder.
//
// # Overview
//
// A concrete Client is built by the ghclient package from a Config. The client
// issues authenticated GET requests, bounds them with a moving-window
// admission limit, retries transient failures with randomized exponential
// backoff, and streams Link-paginated listings item by item.
//
//	cli, err := ghclient.New(&ghapi.Config{
//	  AuthToken:      os.Getenv("GITHUB_TOKEN"),
//	  GitHubHostname: "github.example.com",
//	  UserAgent:      "my-pipeline",
//	})
//	if err != nil { log.Fatal(err) }
//	defer cli.Close()
//
//	for org, err := range cli.ListOrganizations(ctx) {
//	  if err != nil { log.Fatal(err) }
//	  fmt.Println(string(org))
//	}
//
// # Errors
//
// Every failure crossing the client boundary is an *Error carrying a Kind and
// a Retryable flag. Use errors.Is with ErrNotFound, ErrRateLimited,
// ErrTransient, ErrTerminalStatus or ErrConfiguration, or the IsNotFound /
// IsRetryable helpers.
//
// Listings and single objects treat 404 differently: a listing 404 is an
// empty collection, FetchOne returns ErrNotFound, and LookupOne reports the
// object as absent.
//
// # Audit log queries
//
// The audit search endpoint stops returning results after a fixed number of
// pages. AuditQuery.Phrases splits a lookback period either into one
// created:>= range (DateModeRange) or one phrase per calendar day
// (DateModeExactDay):
//
//	period, err := ghapi.ValidateLookbackPeriod(map[string]any{"days": "7"})
//	q := ghapi.AuditQuery{Actions: []string{"org.create"}, Lookback: period, DateMode: ghapi.DateModeExactDay}
//	for _, phrase := range q.Phrases(time.Now()) {
//	  // cli.EnterpriseAuditLog(ctx, "my-enterprise", phrase)
//	}
package ghapi

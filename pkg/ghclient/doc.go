// Package ghclient provides the primary entry point for constructing a GitHub
// REST API client that implements the ghapi.Client interface.
//
// It layers configuration validation, the rate-limited retrying transport, and
// Link-header pagination on top of the interfaces and types defined in the
// ghapi package. Most applications import ghclient to build a client, then use
// the returned ghapi.Client to stream listings.
//
// Quick start
//
//	import (
//	  "context"
//	  "fmt"
//	  "log"
//
//	  "github.com/fivetwenty-io/ghextract/pkg/ghapi"
//	  "github.com/fivetwenty-io/ghextract/pkg/ghclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := ghclient.New(&ghapi.Config{
//	    GitHubHostname: "github.example.com",
//	    AuthToken:      "ghp_...",
//	    UserAgent:      "my-pipeline",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  for repo, err := range cli.ListOrgRepos(ctx, "octo-org", "all") {
//	    if err != nil { log.Fatal(err) }
//	    fmt.Println(string(repo))
//	  }
//	}
//
// # Shared rate limit
//
// Processes that share one token can share one admission budget through Redis
// with NewWithSharedLimit. When Redis is unreachable a request is treated as a
// transient failure and retried.
//
// # Helpers
//
// NewWithToken wraps New for the common hostname plus token case.
package ghclient

package client_test

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/ghextract/internal/client"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

type recordedRequest struct {
	path  string
	query string
}

func recordingServer(t *testing.T) (*httptest.Server, func() recordedRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		last recordedRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		last = recordedRequest{path: r.URL.EscapedPath(), query: r.URL.RawQuery}
		mu.Unlock()

		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	return server, func() recordedRequest {
		mu.Lock()
		defer mu.Unlock()

		return last
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestListingEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		call  func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error]
		path  string
		query string
	}{
		{
			name:  "organizations",
			call:  func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] { return c.ListOrganizations(ctx) },
			path:  "/organizations",
			query: "per_page=100",
		},
		{
			name: "org members by role",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.ListOrgMembers(ctx, "octo-org", "admin")
			},
			path:  "/orgs/octo-org/members",
			query: "per_page=100&role=admin",
		},
		{
			name: "org repos by type",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.ListOrgRepos(ctx, "octo-org", "private")
			},
			path:  "/orgs/octo-org/repos",
			query: "per_page=100&type=private",
		},
		{
			name: "org teams",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.ListOrgTeams(ctx, "octo-org")
			},
			path:  "/orgs/octo-org/teams",
			query: "per_page=100",
		},
		{
			name: "team members by role",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.ListTeamMembers(ctx, 42, "maintainer")
			},
			path:  "/teams/42/members",
			query: "per_page=100&role=maintainer",
		},
		{
			name: "team repos",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.ListTeamRepos(ctx, "octo-org", "justice-league")
			},
			path:  "/orgs/octo-org/teams/justice-league/repos",
			query: "per_page=100",
		},
		{
			name:  "public repositories",
			call:  func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] { return c.ListAllPublicRepos(ctx) },
			path:  "/repositories",
			query: "per_page=100",
		},
		{
			name: "webhooks",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.ListRepoWebhooks(ctx, "octo-org", "hello-world")
			},
			path:  "/repos/octo-org/hello-world/hooks",
			query: "per_page=100",
		},
		{
			name: "collaborators by affiliation",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.ListRepoCollaborators(ctx, "octo-org", "hello-world", "outside")
			},
			path:  "/repos/octo-org/hello-world/collaborators",
			query: "per_page=100&affiliation=outside",
		},
		{
			name:  "users",
			call:  func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] { return c.ListUsers(ctx) },
			path:  "/users",
			query: "per_page=100",
		},
		{
			name: "user repos",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.ListUserRepos(ctx, "octocat", "all")
			},
			path:  "/users/octocat/repos",
			query: "per_page=100&type=all",
		},
		{
			name: "audit log with phrase",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.EnterpriseAuditLog(ctx, "acme", "action:repo.create")
			},
			path:  "/enterprises/acme/audit-log",
			query: "per_page=100&phrase=action%3Arepo.create",
		},
		{
			name: "audit log without phrase",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.EnterpriseAuditLog(ctx, "acme", "")
			},
			path:  "/enterprises/acme/audit-log",
			query: "per_page=100",
		},
		{
			name: "path segments are escaped",
			call: func(ctx context.Context, c ghapi.Client) iter.Seq2[json.RawMessage, error] {
				return c.ListOrgTeams(ctx, "octo org")
			},
			path:  "/orgs/octo%20org/teams",
			query: "per_page=100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, last := recordingServer(t)
			c, _ := newTestClient(t, server.URL, nil)

			_, err := client.Collect(tt.call(context.Background(), c))
			require.NoError(t, err)

			got := last()
			assert.Equal(t, tt.path, got.path)
			assert.Equal(t, tt.query, got.query)
		})
	}
}

func TestGetOrganizationAndTeam(t *testing.T) {
	t.Parallel()

	server := newRouter(t, map[string]routeHandler{
		"/orgs/octo-org":                      jsonBody(`{"login":"octo-org"}`),
		"/orgs/octo-org/teams/justice-league": jsonBody(`{"id":42,"slug":"justice-league"}`),
	})
	c, _ := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	org, found, err := c.GetOrganization(ctx, "octo-org")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"login":"octo-org"}`, string(org))

	_, found, err = c.GetOrganization(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, found)

	team, found, err := c.GetTeam(ctx, "octo-org", "justice-league")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, string(team), `"id":42`)
}

func TestListRepoLanguages(t *testing.T) {
	t.Parallel()

	server := newRouter(t, map[string]routeHandler{
		"/repos/octo-org/hello-world/languages": jsonBody(`{"Python":1200,"Go":34000,"Shell":7}`),
		"/repos/octo-org/empty/languages":       jsonBody(`{}`),
		"/repos/octo-org/odd/languages":         jsonBody(`["Go"]`),
	})
	c, _ := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	t.Run("order is preserved", func(t *testing.T) {
		t.Parallel()

		languages, err := c.ListRepoLanguages(ctx, "octo-org", "hello-world")
		require.NoError(t, err)
		assert.Equal(t, []ghapi.Language{
			{Name: "Python", Bytes: 1200},
			{Name: "Go", Bytes: 34000},
			{Name: "Shell", Bytes: 7},
		}, languages)
	})

	t.Run("empty object", func(t *testing.T) {
		t.Parallel()

		languages, err := c.ListRepoLanguages(ctx, "octo-org", "empty")
		require.NoError(t, err)
		assert.Empty(t, languages)
	})

	t.Run("missing repository", func(t *testing.T) {
		t.Parallel()

		languages, err := c.ListRepoLanguages(ctx, "octo-org", "ghost")
		require.NoError(t, err)
		assert.Nil(t, languages)
	})

	t.Run("unexpected shape", func(t *testing.T) {
		t.Parallel()

		_, err := c.ListRepoLanguages(ctx, "octo-org", "odd")
		require.ErrorIs(t, err, ghapi.ErrUnexpectedPageShape)
	})
}

package ghapi

import (
	"context"
	"encoding/json"
	"iter"
	"net/url"
)

// Pager provides the generic read operations every endpoint is built on.
type Pager interface {
	// Stream lists a collection, following Link rel="next" until exhausted. A
	// 404 on a listing means the parent has no such sub-items and yields an
	// empty sequence. The sequence is single-pass: ranging again re-issues
	// every request.
	Stream(ctx context.Context, path string, params url.Values) iter.Seq2[json.RawMessage, error]
	// FetchOne retrieves a single object. A 404 is returned as an error
	// matching ErrNotFound.
	FetchOne(ctx context.Context, path string) (json.RawMessage, error)
	// LookupOne retrieves a single object, reporting a 404 as absent
	// (found == false) instead of an error.
	LookupOne(ctx context.Context, path string) (json.RawMessage, bool, error)
}

// OrganizationEndpoints lists and describes organizations.
type OrganizationEndpoints interface {
	ListOrganizations(ctx context.Context) iter.Seq2[json.RawMessage, error]
	GetOrganization(ctx context.Context, org string) (json.RawMessage, bool, error)
	ListOrgMembers(ctx context.Context, org, role string) iter.Seq2[json.RawMessage, error]
	ListOrgRepos(ctx context.Context, org, repoType string) iter.Seq2[json.RawMessage, error]
	ListOrgTeams(ctx context.Context, org string) iter.Seq2[json.RawMessage, error]
}

// TeamEndpoints describes teams and their membership.
type TeamEndpoints interface {
	GetTeam(ctx context.Context, org, slug string) (json.RawMessage, bool, error)
	ListTeamMembers(ctx context.Context, teamID int64, role string) iter.Seq2[json.RawMessage, error]
	ListTeamRepos(ctx context.Context, org, slug string) iter.Seq2[json.RawMessage, error]
}

// RepositoryEndpoints lists repositories and their sub-resources.
type RepositoryEndpoints interface {
	ListAllPublicRepos(ctx context.Context) iter.Seq2[json.RawMessage, error]
	ListRepoLanguages(ctx context.Context, owner, repo string) ([]Language, error)
	ListRepoWebhooks(ctx context.Context, owner, repo string) iter.Seq2[json.RawMessage, error]
	ListRepoCollaborators(ctx context.Context, owner, repo, affiliation string) iter.Seq2[json.RawMessage, error]
}

// UserEndpoints lists users and their repositories.
type UserEndpoints interface {
	ListUsers(ctx context.Context) iter.Seq2[json.RawMessage, error]
	ListUserRepos(ctx context.Context, user, repoType string) iter.Seq2[json.RawMessage, error]
}

// AuditEndpoints searches the enterprise audit log.
type AuditEndpoints interface {
	EnterpriseAuditLog(ctx context.Context, enterprise, phrase string) iter.Seq2[json.RawMessage, error]
}

// Client is a GitHub REST API client.
type Client interface {
	Pager
	OrganizationEndpoints
	TeamEndpoints
	RepositoryEndpoints
	UserEndpoints
	AuditEndpoints

	// Close releases idle pooled connections.
	Close()
}

// Language is one entry of a repository's language breakdown, in the order
// the API returned it.
type Language struct {
	Name  string `json:"name" yaml:"name"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
}

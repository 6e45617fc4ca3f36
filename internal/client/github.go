package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

func optional(key, value string) url.Values {
	if value == "" {
		return nil
	}

	return url.Values{key: []string{value}}
}

func segment(s string) string {
	return url.PathEscape(s)
}

// ListOrganizations lists every organization visible to the token.
func (c *Client) ListOrganizations(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "organizations", nil)
}

// GetOrganization fetches an organization; absent when it does not exist or
// is not visible.
func (c *Client) GetOrganization(ctx context.Context, org string) (json.RawMessage, bool, error) {
	return c.LookupOne(ctx, "orgs/"+segment(org))
}

// ListOrgMembers lists organization members, optionally filtered by role
// ("admin" or "member").
func (c *Client) ListOrgMembers(ctx context.Context, org, role string) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "orgs/"+segment(org)+"/members", optional("role", role))
}

// ListOrgRepos lists organization repositories, optionally filtered by type
// ("all", "public", "private", ...).
func (c *Client) ListOrgRepos(ctx context.Context, org, repoType string) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "orgs/"+segment(org)+"/repos", optional("type", repoType))
}

// ListOrgTeams lists the teams of an organization.
func (c *Client) ListOrgTeams(ctx context.Context, org string) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "orgs/"+segment(org)+"/teams", nil)
}

// GetTeam fetches a team by slug.
func (c *Client) GetTeam(ctx context.Context, org, slug string) (json.RawMessage, bool, error) {
	return c.LookupOne(ctx, "orgs/"+segment(org)+"/teams/"+segment(slug))
}

// ListTeamMembers lists team members with the given role ("member" or
// "maintainer").
func (c *Client) ListTeamMembers(ctx context.Context, teamID int64, role string) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "teams/"+strconv.FormatInt(teamID, 10)+"/members", optional("role", role))
}

// ListTeamRepos lists the repositories a team can access.
func (c *Client) ListTeamRepos(ctx context.Context, org, slug string) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "orgs/"+segment(org)+"/teams/"+segment(slug)+"/repos", nil)
}

// ListAllPublicRepos lists every public repository of the instance.
func (c *Client) ListAllPublicRepos(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "repositories", nil)
}

// ListRepoLanguages returns the language breakdown of a repository in the
// order the API reported it. A missing repository yields no languages.
func (c *Client) ListRepoLanguages(ctx context.Context, owner, repo string) ([]ghapi.Language, error) {
	body, found, err := c.LookupOne(ctx, "repos/"+segment(owner)+"/"+segment(repo)+"/languages")
	if err != nil || !found {
		return nil, err
	}

	languages, err := decodeLanguages(body)
	if err != nil {
		return nil, fmt.Errorf("decoding languages of %s/%s: %w", owner, repo, err)
	}

	return languages, nil
}

// decodeLanguages walks the object token by token since a map would lose
// the order.
func decodeLanguages(body json.RawMessage) ([]ghapi.Language, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object", ghapi.ErrUnexpectedPageShape)
	}

	var languages []ghapi.Language

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		name, _ := keyTok.(string)

		var bytesCount json.Number

		err = dec.Decode(&bytesCount)
		if err != nil {
			return nil, err
		}

		n, err := bytesCount.Int64()
		if err != nil {
			return nil, err
		}

		languages = append(languages, ghapi.Language{Name: name, Bytes: n})
	}

	return languages, nil
}

// ListRepoWebhooks lists repository webhooks. Requires admin access; callers
// typically treat 403 as a permission gap.
func (c *Client) ListRepoWebhooks(ctx context.Context, owner, repo string) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "repos/"+segment(owner)+"/"+segment(repo)+"/hooks", nil)
}

// ListRepoCollaborators lists repository collaborators, optionally filtered
// by affiliation ("outside", "direct", "all").
func (c *Client) ListRepoCollaborators(ctx context.Context, owner, repo, affiliation string) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "repos/"+segment(owner)+"/"+segment(repo)+"/collaborators", optional("affiliation", affiliation))
}

// ListUsers lists every user of the instance.
func (c *Client) ListUsers(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "users", nil)
}

// ListUserRepos lists a user's repositories, optionally filtered by type
// ("all", "owner", "member", ...).
func (c *Client) ListUserRepos(ctx context.Context, user, repoType string) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "users/"+segment(user)+"/repos", optional("type", repoType))
}

// EnterpriseAuditLog searches the enterprise audit log with a search phrase
// built by ghapi.BuildSearchPhrase. An empty phrase lists everything.
func (c *Client) EnterpriseAuditLog(ctx context.Context, enterprise, phrase string) iter.Seq2[json.RawMessage, error] {
	return c.Stream(ctx, "enterprises/"+segment(enterprise)+"/audit-log", optional("phrase", phrase))
}

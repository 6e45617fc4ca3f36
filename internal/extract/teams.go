package extract

import (
	"context"
	"iter"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// Teams emits every team of every visible organization with its members
// (members first, then maintainers) and simplified repositories.
type Teams struct {
	base
}

// NewTeams creates a team extractor.
func NewTeams(client ghapi.Client, opts Options) *Teams {
	return &Teams{base: newBase(client, opts)}
}

// Kind implements Extractor.
func (e *Teams) Kind() string { return KindTeam }

// Records implements Extractor.
func (e *Teams) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		eachRecord(e.client.ListOrganizations(ctx), yield, func(summary Record) bool {
			login, err := loginOf(summary)
			if err != nil {
				yield(nil, err)

				return false
			}

			return e.orgTeams(ctx, login, yield)
		})
	}
}

// orgTeams yields the teams of one organization and reports whether the
// caller should continue.
func (e *Teams) orgTeams(ctx context.Context, login string, yield func(Record, error) bool) bool {
	for raw, err := range e.client.ListOrgTeams(ctx, login) {
		if err != nil {
			yield(nil, err)

			return false
		}

		summary, err := decodeRecord(raw)
		if err != nil {
			yield(nil, err)

			return false
		}

		team, err := e.team(ctx, login, summary.String("slug"))
		if err != nil {
			yield(nil, err)

			return false
		}

		if team == nil {
			continue
		}

		if !yield(team, nil) {
			return false
		}
	}

	return true
}

func (e *Teams) team(ctx context.Context, org, slug string) (Record, error) {
	raw, found, err := e.client.GetTeam(ctx, org, slug)
	if err != nil {
		return nil, err
	}

	if !found {
		e.debug("Team not found, skipping", map[string]interface{}{"org": org, "team": slug})

		return nil, nil
	}

	team, err := decodeRecord(raw)
	if err != nil {
		return nil, err
	}

	id, err := team.Int64("id")
	if err != nil {
		return nil, err
	}

	e.debug("Getting members for team", map[string]interface{}{"org": org, "team": slug})

	gap := permissionGap{
		endpoint: "team members",
		item:     org + "/" + slug,
		name:     PermissionMembers,
		category: CategoryOrganization,
	}

	members, err := e.gather(e.client.ListTeamMembers(ctx, id, "member"), withRole("member"), gap)
	if err != nil {
		return nil, err
	}

	maintainers, err := e.gather(e.client.ListTeamMembers(ctx, id, "maintainer"), withRole("maintainer"), gap)
	if err != nil {
		return nil, err
	}

	repos, err := e.gather(e.client.ListTeamRepos(ctx, org, slug), SimplifyRepo, permissionGap{
		endpoint: "team repositories",
		item:     org + "/" + slug,
		name:     PermissionMetadata,
		category: CategoryRepository,
	})
	if err != nil {
		return nil, err
	}

	team["members"] = append(members, maintainers...)
	team["repos"] = repos

	return team, nil
}

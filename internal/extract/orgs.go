package extract

import (
	"context"
	"iter"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// Organizations emits every visible organization with its members (admins
// first) and simplified repositories.
type Organizations struct {
	base
}

// NewOrganizations creates an organization extractor.
func NewOrganizations(client ghapi.Client, opts Options) *Organizations {
	return &Organizations{base: newBase(client, opts)}
}

// Kind implements Extractor.
func (e *Organizations) Kind() string { return KindOrganization }

// Records implements Extractor.
func (e *Organizations) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		eachRecord(e.client.ListOrganizations(ctx), yield, func(summary Record) bool {
			login, err := loginOf(summary)
			if err != nil {
				yield(nil, err)

				return false
			}

			org, err := e.organization(ctx, login)
			if err != nil {
				yield(nil, err)

				return false
			}

			if org == nil {
				return true
			}

			return yield(org, nil)
		})
	}
}

func (e *Organizations) organization(ctx context.Context, login string) (Record, error) {
	raw, found, err := e.client.GetOrganization(ctx, login)
	if err != nil {
		return nil, err
	}

	if !found {
		e.debug("Organization not found, skipping", map[string]interface{}{"org": login})

		return nil, nil
	}

	org, err := decodeRecord(raw)
	if err != nil {
		return nil, err
	}

	membersGap := permissionGap{
		endpoint: "members",
		item:     login,
		name:     PermissionMembers,
		category: CategoryOrganization,
	}

	admins, err := e.gather(e.client.ListOrgMembers(ctx, login, "admin"), withRole("admin"), membersGap)
	if err != nil {
		return nil, err
	}

	members, err := e.gather(e.client.ListOrgMembers(ctx, login, "member"), withRole("member"), membersGap)
	if err != nil {
		return nil, err
	}

	repos, err := e.gather(e.client.ListOrgRepos(ctx, login, ""), SimplifyRepo, permissionGap{
		endpoint: "repositories",
		item:     login,
		name:     PermissionMetadata,
		category: CategoryRepository,
	})
	if err != nil {
		return nil, err
	}

	org["members"] = append(admins, members...)
	org["repositories"] = repos

	return org, nil
}

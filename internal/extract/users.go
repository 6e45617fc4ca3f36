package extract

import (
	"context"
	"iter"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// Users emits every user with their simplified repositories.
type Users struct {
	base
}

// NewUsers creates a user extractor.
func NewUsers(client ghapi.Client, opts Options) *Users {
	return &Users{base: newBase(client, opts)}
}

// Kind implements Extractor.
func (e *Users) Kind() string { return KindUser }

// Records implements Extractor.
func (e *Users) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		eachRecord(e.client.ListUsers(ctx), yield, func(user Record) bool {
			login, err := loginOf(user)
			if err != nil {
				yield(nil, err)

				return false
			}

			repos, err := e.gather(e.client.ListUserRepos(ctx, login, "all"), SimplifyRepo, permissionGap{
				endpoint: "repositories",
				item:     login,
				name:     PermissionMetadata,
				category: CategoryRepository,
			})
			if err != nil {
				yield(nil, err)

				return false
			}

			user["repositories"] = repos

			e.debug("Extracted user", map[string]interface{}{"login": login})

			return yield(user, nil)
		})
	}
}

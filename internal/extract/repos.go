package extract

import (
	"context"
	"encoding/json"
	"iter"

	"github.com/sourcegraph/conc/pool"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// Selection chooses which repositories the Repositories extractor visits.
type Selection struct {
	AllPublic   bool `json:"all_public" yaml:"all_public"`
	OrgPublic   bool `json:"org_public" yaml:"org_public"`
	OrgPrivate  bool `json:"org_private" yaml:"org_private"`
	UserPublic  bool `json:"user_public" yaml:"user_public"`
	UserPrivate bool `json:"user_private" yaml:"user_private"`
}

// OrgAny reports whether any organization repositories are selected.
func (s Selection) OrgAny() bool { return s.OrgPublic || s.OrgPrivate }

// UserAny reports whether any user repositories are selected.
func (s Selection) UserAny() bool { return s.UserPublic || s.UserPrivate }

// IsZero reports whether nothing is selected.
func (s Selection) IsZero() bool { return !s.AllPublic && !s.OrgAny() && !s.UserAny() }

// ParseSelection reads selection flags from a loosely typed map. A key counts
// as set when present with any value other than false or nil; org_all and
// user_all set both visibilities.
func ParseSelection(raw map[string]any) Selection {
	flag := func(key string) bool {
		v, ok := raw[key]
		if !ok || v == nil {
			return false
		}

		if b, isBool := v.(bool); isBool {
			return b
		}

		return true
	}

	orgAll := flag("org_all")
	userAll := flag("user_all")

	return Selection{
		AllPublic:   flag("all_public"),
		OrgPublic:   orgAll || flag("org_public"),
		OrgPrivate:  orgAll || flag("org_private"),
		UserPublic:  userAll || flag("user_public"),
		UserPrivate: userAll || flag("user_private"),
	}
}

// Repositories emits the selected repositories, each enriched with its owner,
// languages, webhooks and collaborators.
type Repositories struct {
	base
	selection Selection
}

// NewRepositories creates a repository extractor.
func NewRepositories(client ghapi.Client, selection Selection, opts Options) *Repositories {
	return &Repositories{base: newBase(client, opts), selection: selection}
}

// Kind implements Extractor.
func (e *Repositories) Kind() string { return KindRepository }

// Records implements Extractor.
func (e *Repositories) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		emit := func(repo Record) bool {
			enriched, err := e.enrich(ctx, repo)
			if err != nil {
				yield(nil, err)

				return false
			}

			return yield(enriched, nil)
		}

		if e.selection.AllPublic && !e.each(e.client.ListAllPublicRepos(ctx), yield, emit) {
			return
		}

		if e.selection.OrgAny() && !e.byOwner(ctx, e.client.ListOrganizations(ctx), e.client.ListOrgRepos,
			e.selection.OrgPublic, e.selection.OrgPrivate, yield, emit) {
			return
		}

		if e.selection.UserAny() {
			e.byOwner(ctx, e.client.ListUsers(ctx), e.client.ListUserRepos,
				e.selection.UserPublic, e.selection.UserPrivate, yield, emit)
		}
	}
}

type repoLister func(ctx context.Context, owner, repoType string) iter.Seq2[json.RawMessage, error]

// byOwner visits the public and/or private repositories of every owner and
// reports whether iteration should continue.
func (e *Repositories) byOwner(
	ctx context.Context,
	owners iter.Seq2[json.RawMessage, error],
	list repoLister,
	public, private bool,
	yield func(Record, error) bool,
	emit func(Record) bool,
) bool {
	keepGoing := true

	eachRecord(owners, func(rec Record, err error) bool {
		keepGoing = false

		return yield(rec, err)
	}, func(owner Record) bool {
		login, err := loginOf(owner)
		if err != nil {
			keepGoing = false
			yield(nil, err)

			return false
		}

		for _, visibility := range []struct {
			name    string
			enabled bool
		}{{"public", public}, {"private", private}} {
			if visibility.enabled && !e.each(list(ctx, login, visibility.name), yield, emit) {
				keepGoing = false

				return false
			}
		}

		return true
	})

	return keepGoing
}

func (e *Repositories) each(seq iter.Seq2[json.RawMessage, error], yield func(Record, error) bool, emit func(Record) bool) bool {
	keepGoing := true

	eachRecord(seq, func(rec Record, err error) bool {
		keepGoing = false

		return yield(rec, err)
	}, func(repo Record) bool {
		keepGoing = emit(repo)

		return keepGoing
	})

	return keepGoing
}

// enrich moves the owner under user_owner or org_owner and attaches the
// languages, webhooks and collaborators, fetched concurrently.
func (e *Repositories) enrich(ctx context.Context, repo Record) (Record, error) {
	owner := repo.Object("owner")
	delete(repo, "owner")

	switch {
	case owner == nil:
	case owner.String("type") == "User":
		repo["user_owner"] = owner
	default:
		repo["org_owner"] = owner
	}

	login := owner.String("login")
	name := repo.String("name")
	fullName := login + "/" + name

	var (
		languages     []Record
		webhooks      []Record
		collaborators []Record
	)

	p := pool.New().WithMaxGoroutines(e.concurrency).WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		var err error

		languages, err = e.languages(ctx, login, name, fullName)

		return err
	})

	p.Go(func(ctx context.Context) error {
		var err error

		webhooks, err = e.gather(e.client.ListRepoWebhooks(ctx, login, name), nil, permissionGap{
			endpoint: "webhooks",
			item:     fullName,
			name:     PermissionWebhooks,
			category: CategoryRepository,
		})

		return err
	})

	p.Go(func(ctx context.Context) error {
		var err error

		collaborators, err = e.gather(e.client.ListRepoCollaborators(ctx, login, name, ""), SimplifyUser, permissionGap{
			endpoint: "collaborators",
			item:     fullName,
			name:     PermissionMetadata,
			category: CategoryRepository,
		})

		return err
	})

	err := p.Wait()
	if err != nil {
		return nil, err
	}

	repo["languages"] = languages
	repo["webhooks"] = webhooks
	repo["collaborators"] = collaborators

	e.debug("Extracted repository", map[string]interface{}{"repo": fullName})

	return repo, nil
}

func (e *Repositories) languages(ctx context.Context, owner, name, fullName string) ([]Record, error) {
	langs, err := e.client.ListRepoLanguages(ctx, owner, name)
	if err != nil {
		if ghapi.IsForbidden(err) {
			e.warnPermission(permissionGap{
				endpoint: "languages",
				item:     fullName,
				name:     PermissionMetadata,
				category: CategoryRepository,
			}, err)

			return []Record{}, nil
		}

		return nil, err
	}

	out := make([]Record, 0, len(langs))
	for _, lang := range langs {
		out = append(out, Record{"name": lang.Name})
	}

	return out, nil
}

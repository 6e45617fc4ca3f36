package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ghextract/internal/extract"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

type extractorFactory func(client ghapi.Client, opts extract.Options) (extract.Extractor, error)

// NewExtractCommand creates the extract command group.
func NewExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract records",
		Long:  "Extract GitHub organizational data and write it to the configured sink",
	}

	cmd.AddCommand(newExtractOrgsCommand())
	cmd.AddCommand(newExtractReposCommand())
	cmd.AddCommand(newExtractTeamsCommand())
	cmd.AddCommand(newExtractUsersCommand())
	cmd.AddCommand(newExtractAuditCommand())

	return cmd
}

func newExtractOrgsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations"},
		Short:   "Extract organizations",
		Long:    "Extract every visible organization with its members and repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractor(cmd, func(client ghapi.Client, opts extract.Options) (extract.Extractor, error) {
				return extract.NewOrganizations(client, opts), nil
			})
		},
	}
}

func newExtractReposCommand() *cobra.Command {
	var selection extract.Selection

	var orgAll, userAll bool

	cmd := &cobra.Command{
		Use:     "repos",
		Aliases: []string{"repositories"},
		Short:   "Extract repositories",
		Long: `Extract repositories with their owner, languages, webhooks and collaborators.

Selection flags may also be set in the config file under "repos", for example:

  repos:
    org_all: true
    all_public: false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := mergeSelection(viper.GetStringMap("repos"), selection, orgAll, userAll)
			if selected.IsZero() {
				return fmt.Errorf("%w: use --all-public, --org-all, --user-all or a visibility flag", ErrNothingSelected)
			}

			return runExtractor(cmd, func(client ghapi.Client, opts extract.Options) (extract.Extractor, error) {
				return extract.NewRepositories(client, selected, opts), nil
			})
		},
	}

	cmd.Flags().BoolVar(&selection.AllPublic, "all-public", false, "every public repository of the instance")
	cmd.Flags().BoolVar(&orgAll, "org-all", false, "public and private repositories of every organization")
	cmd.Flags().BoolVar(&selection.OrgPublic, "org-public", false, "public repositories of every organization")
	cmd.Flags().BoolVar(&selection.OrgPrivate, "org-private", false, "private repositories of every organization")
	cmd.Flags().BoolVar(&userAll, "user-all", false, "public and private repositories of every user")
	cmd.Flags().BoolVar(&selection.UserPublic, "user-public", false, "public repositories of every user")
	cmd.Flags().BoolVar(&selection.UserPrivate, "user-private", false, "private repositories of every user")

	return cmd
}

// mergeSelection combines config file selection with flags; a flag can only
// add to the selection.
func mergeSelection(raw map[string]any, flags extract.Selection, orgAll, userAll bool) extract.Selection {
	selected := extract.ParseSelection(raw)

	selected.AllPublic = selected.AllPublic || flags.AllPublic
	selected.OrgPublic = selected.OrgPublic || flags.OrgPublic || orgAll
	selected.OrgPrivate = selected.OrgPrivate || flags.OrgPrivate || orgAll
	selected.UserPublic = selected.UserPublic || flags.UserPublic || userAll
	selected.UserPrivate = selected.UserPrivate || flags.UserPrivate || userAll

	return selected
}

func newExtractTeamsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "Extract teams",
		Long:  "Extract every team of every visible organization with its members and repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractor(cmd, func(client ghapi.Client, opts extract.Options) (extract.Extractor, error) {
				return extract.NewTeams(client, opts), nil
			})
		},
	}
}

func newExtractUsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "Extract users",
		Long:  "Extract every user with their repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractor(cmd, func(client ghapi.Client, opts extract.Options) (extract.Extractor, error) {
				return extract.NewUsers(client, opts), nil
			})
		},
	}
}

func newExtractAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Extract enterprise audit events",
		Long:  "Search the enterprise audit log and extract the matching events",
		RunE: func(cmd *cobra.Command, args []string) error {
			enterprise, query, err := auditQueryFromFlags(cmd)
			if err != nil {
				return err
			}

			if enterprise == "" {
				return ErrEnterpriseRequired
			}

			return runExtractor(cmd, func(client ghapi.Client, opts extract.Options) (extract.Extractor, error) {
				return extract.NewAuditLog(client, enterprise, query, opts), nil
			})
		},
	}

	addAuditQueryFlags(cmd)

	return cmd
}

// runExtractor streams every record of the extractor into the sink.
func runExtractor(cmd *cobra.Command, factory extractorFactory) error {
	ctx := cmd.Context()

	logger := newLogger(cmd)

	defer func() {
		_ = logger.Sync()
	}()

	client, cleanup, err := newClient(cmd, logger)
	if err != nil {
		return err
	}

	defer cleanup()

	out, err := newSink(cmd)
	if err != nil {
		return err
	}

	defer func() {
		_ = out.Close()
	}()

	extractor, err := factory(client, extract.Options{
		Logger:      logger,
		Concurrency: viper.GetInt("concurrency"),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	count := 0

	for record, err := range extractor.Records(ctx) {
		if err != nil {
			return fmt.Errorf("extracting %s records: %w", extractor.Kind(), err)
		}

		err = out.Write(ctx, extractor.Kind(), record)
		if err != nil {
			return err
		}

		count++
	}

	logger.Info("Extraction complete", map[string]interface{}{
		"kind":     extractor.Kind(),
		"records":  count,
		"duration": time.Since(start).String(),
	})

	err = out.Close()
	if err != nil {
		return fmt.Errorf("closing sink: %w", err)
	}

	return nil
}

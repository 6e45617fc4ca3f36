package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// NewAuditCommand creates the audit command group.
func NewAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect audit log searches",
		Long:  "Inspect the enterprise audit log search phrases built from flags and configuration",
	}

	cmd.AddCommand(newAuditPhrasesCommand())

	return cmd
}

func newAuditPhrasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phrases",
		Short: "Show search phrases",
		Long:  "Show the audit log search phrases an extraction would issue, without calling the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, query, err := auditQueryFromFlags(cmd)
			if err != nil {
				return err
			}

			return renderPhrases(cmd, query, time.Now())
		},
	}

	addAuditQueryFlags(cmd)

	return cmd
}

type phrasesInfo struct {
	DateMode ghapi.DateMode       `json:"date_mode"          yaml:"date_mode"`
	Lookback ghapi.LookbackPeriod `json:"lookback"           yaml:"lookback"`
	Dates    []string             `json:"dates,omitempty"    yaml:"dates,omitempty"`
	Phrases  []string             `json:"phrases"            yaml:"phrases"`
}

func renderPhrases(cmd *cobra.Command, query ghapi.AuditQuery, now time.Time) error {
	info := phrasesInfo{
		DateMode: query.Mode(),
		Lookback: query.Lookback,
		Dates:    ghapi.GenerateDateRange(query.Lookback, now),
		Phrases:  query.Phrases(now),
	}

	done, err := encode(cmd.OutOrStdout(), info)
	if done || err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("#", "Phrase")

	for i, phrase := range info.Phrases {
		_ = table.Append([]string{strconv.Itoa(i + 1), phrase})
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Date mode: %s, %d day(s)\n", info.DateMode, len(info.Dates))

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func addAuditQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("enterprise", "", "enterprise slug")
	cmd.Flags().StringSlice("action", nil, "action to match, repeatable (e.g. repo.create)")
	cmd.Flags().StringSlice("actor", nil, "actor to match, repeatable")
	cmd.Flags().StringSlice("exclude-actor", nil, "actor to exclude, repeatable")
	cmd.Flags().Int("lookback-days", 0, "days to look back")
	cmd.Flags().Int("lookback-months", 0, "months to look back")
	cmd.Flags().Int("lookback-years", 0, "years to look back")
	cmd.Flags().String("date-mode", string(ghapi.DateModeRange), "created: clause style (range, exact-day)")
}

// auditQueryFromFlags builds the audit search from the "audit" config section
// overlaid with any flag the user set.
func auditQueryFromFlags(cmd *cobra.Command) (string, ghapi.AuditQuery, error) {
	flags := cmd.Flags()

	enterprise := viper.GetString("audit.enterprise")
	if flags.Changed("enterprise") {
		enterprise, _ = flags.GetString("enterprise")
	}

	query := ghapi.AuditQuery{
		Actions:       viper.GetStringSlice("audit.actions"),
		Actors:        viper.GetStringSlice("audit.actors"),
		ExcludeActors: viper.GetStringSlice("audit.exclude_actors"),
	}

	slices := map[string]*[]string{
		"action":        &query.Actions,
		"actor":         &query.Actors,
		"exclude-actor": &query.ExcludeActors,
	}

	for name, target := range slices {
		if flags.Changed(name) {
			*target, _ = flags.GetStringSlice(name)
		}
	}

	raw := map[string]any{}
	for unit, value := range viper.GetStringMap("audit.lookback") {
		raw[strings.ToLower(unit)] = value
	}

	for _, unit := range []string{ghapi.LookbackDays, ghapi.LookbackMonths, ghapi.LookbackYears} {
		name := "lookback-" + unit
		if flags.Changed(name) {
			raw[unit], _ = flags.GetInt(name)
		}
	}

	lookback, err := ghapi.ValidateLookbackPeriod(raw)
	if err != nil {
		return "", ghapi.AuditQuery{}, err
	}

	query.Lookback = lookback

	mode := viper.GetString("audit.date_mode")
	if flags.Changed("date-mode") || mode == "" {
		mode, _ = flags.GetString("date-mode")
	}

	query.DateMode, err = ghapi.ParseDateMode(mode)
	if err != nil {
		return "", ghapi.AuditQuery{}, err
	}

	return strings.TrimSpace(enterprise), query, nil
}

package ghapi

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/ghextract/internal/constants"
)

const lookbackErrorPrefix = "formatting lookback period failed"

// Lookback period units.
const (
	LookbackDays   = "days"
	LookbackMonths = "months"
	LookbackYears  = "years"
)

// DateMode selects how a lookback period becomes created: clauses.
type DateMode string

const (
	// DateModeRange issues one query bounded by created:>=<start>.
	DateModeRange DateMode = "range"
	// DateModeExactDay issues one query per calendar day, created:<date>.
	DateModeExactDay DateMode = "exact-day"
)

// ParseDateMode parses a DateMode; the empty string selects DateModeRange.
func ParseDateMode(s string) (DateMode, error) {
	switch DateMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DateModeRange:
		return DateModeRange, nil
	case DateModeExactDay:
		return DateModeExactDay, nil
	default:
		return "", NewConfigurationError("unknown date mode %q (want %q or %q)", s, DateModeRange, DateModeExactDay)
	}
}

// LookbackPeriod is a relative window ending now. Zero fields are absent.
type LookbackPeriod struct {
	Days   int `json:"days,omitempty" yaml:"days,omitempty"`
	Months int `json:"months,omitempty" yaml:"months,omitempty"`
	Years  int `json:"years,omitempty" yaml:"years,omitempty"`
}

// IsZero reports whether no unit is set.
func (p LookbackPeriod) IsZero() bool {
	return p.Days == 0 && p.Months == 0 && p.Years == 0
}

// Start returns the first day of the period ending at now, in UTC. Years are
// subtracted first, then months (clamping to the end of a shorter month), then
// days.
func (p LookbackPeriod) Start(now time.Time) time.Time {
	now = now.UTC()
	y, m, d := now.Date()

	totalMonths := y*12 + int(m-1) - p.Years*12 - p.Months
	year := totalMonths / 12
	month := time.Month(totalMonths%12 + 1)

	if last := daysIn(year, month); d > last {
		d = last
	}

	start := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)

	return start.AddDate(0, 0, -p.Days)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidateLookbackPeriod converts a loosely typed mapping (as read from
// configuration) into a LookbackPeriod. Every value must coerce to a strictly
// positive integer.
func ValidateLookbackPeriod(raw map[string]any) (LookbackPeriod, error) {
	var period LookbackPeriod

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, key := range keys {
		n, err := positiveInt(raw[key])
		if err != nil {
			return LookbackPeriod{}, WrapConfigurationError(err, "%s: %s", lookbackErrorPrefix, key)
		}

		switch strings.ToLower(key) {
		case LookbackDays:
			period.Days = n
		case LookbackMonths:
			period.Months = n
		case LookbackYears:
			period.Years = n
		default:
			return LookbackPeriod{}, WrapConfigurationError(fmt.Errorf("%w %q", ErrLookbackUnknownUnit, key), "%s", lookbackErrorPrefix)
		}
	}

	return period, nil
}

func positiveInt(v any) (int, error) {
	var n int64

	switch val := v.(type) {
	case nil:
		return 0, ErrLookbackRequired
	case int:
		n = int64(val)
	case int8:
		n = int64(val)
	case int16:
		n = int64(val)
	case int32:
		n = int64(val)
	case int64:
		n = val
	case uint:
		if uint64(val) > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %d", ErrLookbackOutOfRange, val)
		}

		n = int64(val)
	case uint8:
		n = int64(val)
	case uint16:
		n = int64(val)
	case uint32:
		n = int64(val)
	case uint64:
		if val > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %d", ErrLookbackOutOfRange, val)
		}

		n = int64(val)
	case float32:
		return positiveInt(float64(val))
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) || math.IsNaN(val) {
			return 0, fmt.Errorf("%w: %v", ErrLookbackNotInteger, val)
		}

		if math.Abs(val) > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %v", ErrLookbackOutOfRange, val)
		}

		n = int64(val)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrLookbackNotInteger, val)
		}

		n = parsed
	default:
		return 0, fmt.Errorf("%w: type %T", ErrLookbackNotInteger, v)
	}

	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrLookbackNotPositive, n)
	}

	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d", ErrLookbackOutOfRange, n)
	}

	return int(n), nil
}

// GenerateDateRange lists every calendar day from period.Start(now) through
// now inclusive, oldest first, as YYYY-MM-DD. A zero period yields nil.
func GenerateDateRange(period LookbackPeriod, now time.Time) []string {
	if period.IsZero() {
		return nil
	}

	now = now.UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var dates []string
	for day := period.Start(now); !day.After(end); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format(constants.DateLayout))
	}

	return dates
}

// BuildSearchPhrase joins the audit search clauses in the order the search
// grammar expects: actions, actors, excluded actors, then created.
func BuildSearchPhrase(actions, actors, excludeActors []string, created string) string {
	clauses := make([]string, 0, len(actions)+len(actors)+len(excludeActors)+1)

	for _, a := range actions {
		clauses = append(clauses, "action:"+a)
	}

	for _, a := range actors {
		clauses = append(clauses, "actor:"+a)
	}

	for _, a := range excludeActors {
		clauses = append(clauses, "-actor:"+a)
	}

	if created != "" {
		clauses = append(clauses, "created:"+created)
	}

	return strings.Join(clauses, " ")
}

// AuditQuery describes the audit log search for one extraction run.
type AuditQuery struct {
	Actions       []string
	Actors        []string
	ExcludeActors []string
	Lookback      LookbackPeriod
	DateMode      DateMode
}

// Mode returns the effective date mode; the zero value selects DateModeRange.
func (q AuditQuery) Mode() DateMode {
	if q.DateMode == "" {
		return DateModeRange
	}

	return q.DateMode
}

// Phrases returns the search phrases to issue for a run anchored at now. A
// zero lookback yields a single phrase without a created: clause.
func (q AuditQuery) Phrases(now time.Time) []string {
	if q.Lookback.IsZero() {
		return []string{BuildSearchPhrase(q.Actions, q.Actors, q.ExcludeActors, "")}
	}

	if q.Mode() == DateModeExactDay {
		dates := GenerateDateRange(q.Lookback, now)
		phrases := make([]string, 0, len(dates))

		for _, date := range dates {
			phrases = append(phrases, BuildSearchPhrase(q.Actions, q.Actors, q.ExcludeActors, date))
		}

		return phrases
	}

	start := q.Lookback.Start(now).Format(constants.DateLayout)

	return []string{BuildSearchPhrase(q.Actions, q.Actors, q.ExcludeActors, ">="+start)}
}

package ghapi_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

var fixedNow = time.Date(2025, time.August, 1, 15, 4, 5, 0, time.UTC)

func TestBuildSearchPhrase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		actions       []string
		actors        []string
		excludeActors []string
		created       string
		expected      string
	}{
		{
			name:     "single action",
			actions:  []string{"protected_branch.create"},
			expected: "action:protected_branch.create",
		},
		{
			name:     "actions and actor",
			actions:  []string{"org.create", "repo.destroy"},
			actors:   []string{"octocat"},
			expected: "action:org.create action:repo.destroy actor:octocat",
		},
		{
			name:          "excluded actors only",
			excludeActors: []string{"exclude-user1", "exclude-user2"},
			expected:      "-actor:exclude-user1 -actor:exclude-user2",
		},
		{
			name:          "all clauses in grammar order",
			actions:       []string{"org.create", "team.add_member"},
			actors:        []string{"octocat", "monalisa"},
			excludeActors: []string{"bot-user"},
			created:       ">=2025-07-25",
			expected:      "action:org.create action:team.add_member actor:octocat actor:monalisa -actor:bot-user created:>=2025-07-25",
		},
		{
			name:     "exact day",
			actors:   []string{"octocat"},
			created:  "2025-07-30",
			expected: "actor:octocat created:2025-07-30",
		},
		{
			name:     "nil lists",
			expected: "",
		},
		{
			name:          "empty lists",
			actions:       []string{},
			actors:        []string{},
			excludeActors: []string{},
			expected:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ghapi.BuildSearchPhrase(tt.actions, tt.actors, tt.excludeActors, tt.created))
		})
	}
}

func TestValidateLookbackPeriod(t *testing.T) {
	t.Parallel()

	t.Run("valid input", func(t *testing.T) {
		t.Parallel()

		period, err := ghapi.ValidateLookbackPeriod(map[string]any{"days": 7, "months": 2, "years": 1})
		require.NoError(t, err)
		assert.Equal(t, ghapi.LookbackPeriod{Days: 7, Months: 2, Years: 1}, period)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		period, err := ghapi.ValidateLookbackPeriod(map[string]any{})
		require.NoError(t, err)
		assert.True(t, period.IsZero())
	})

	t.Run("string to int conversion", func(t *testing.T) {
		t.Parallel()

		period, err := ghapi.ValidateLookbackPeriod(map[string]any{"days": "7", "months": "2"})
		require.NoError(t, err)
		assert.Equal(t, ghapi.LookbackPeriod{Days: 7, Months: 2}, period)
	})

	t.Run("integral float", func(t *testing.T) {
		t.Parallel()

		period, err := ghapi.ValidateLookbackPeriod(map[string]any{"days": float64(30)})
		require.NoError(t, err)
		assert.Equal(t, 30, period.Days)
	})

	invalid := map[string]map[string]any{
		"zero":                    {"days": 0},
		"negative":                {"days": -5},
		"multiple with negative":  {"days": 7, "months": -1, "years": 2},
		"zero string":             {"days": "0"},
		"negative string":         {"months": "-10"},
		"non-numeric string":      {"days": "invalid"},
		"non-scalar":              {"days": []int{}},
		"nil":                     {"days": nil},
		"fractional float":        {"days": 1.5},
		"unknown unit":            {"weeks": 2},
		"map value":               {"years": map[string]int{"a": 1}},
		"bool":                    {"days": true},
		"string with float value": {"days": "7.0"},
	}

	for name, raw := range invalid {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ghapi.ValidateLookbackPeriod(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ghapi.ErrConfiguration)
			assert.Contains(t, err.Error(), "formatting lookback period failed")
		})
	}
}

func TestValidateLookbackPeriod_Causes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   map[string]any
		cause error
	}{
		{name: "zero", raw: map[string]any{"days": 0}, cause: ghapi.ErrLookbackNotPositive},
		{name: "negative string", raw: map[string]any{"months": "-10"}, cause: ghapi.ErrLookbackNotPositive},
		{name: "fractional", raw: map[string]any{"days": 1.5}, cause: ghapi.ErrLookbackNotInteger},
		{name: "bool", raw: map[string]any{"days": true}, cause: ghapi.ErrLookbackNotInteger},
		{name: "nil", raw: map[string]any{"years": nil}, cause: ghapi.ErrLookbackRequired},
		{name: "huge", raw: map[string]any{"days": int64(1) << 40}, cause: ghapi.ErrLookbackOutOfRange},
		{name: "unknown unit", raw: map[string]any{"weeks": 2}, cause: ghapi.ErrLookbackUnknownUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ghapi.ValidateLookbackPeriod(tt.raw)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.cause)
			assert.ErrorIs(t, err, ghapi.ErrConfiguration)
		})
	}
}

func TestGenerateDateRange(t *testing.T) {
	t.Parallel()

	t.Run("empty period", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, ghapi.GenerateDateRange(ghapi.LookbackPeriod{}, fixedNow))
	})

	t.Run("days only", func(t *testing.T) {
		t.Parallel()

		result := ghapi.GenerateDateRange(ghapi.LookbackPeriod{Days: 3}, fixedNow)
		assert.Equal(t, []string{"2025-07-29", "2025-07-30", "2025-07-31", "2025-08-01"}, result)
	})

	t.Run("months only", func(t *testing.T) {
		t.Parallel()

		result := ghapi.GenerateDateRange(ghapi.LookbackPeriod{Months: 1}, fixedNow)
		require.Len(t, result, 32)
		assert.Equal(t, "2025-07-01", result[0])
		assert.Equal(t, "2025-08-01", result[len(result)-1])
	})

	t.Run("years only", func(t *testing.T) {
		t.Parallel()

		result := ghapi.GenerateDateRange(ghapi.LookbackPeriod{Years: 1}, fixedNow)
		require.Len(t, result, 366)
		assert.Equal(t, "2024-08-01", result[0])
		assert.Equal(t, "2025-08-01", result[len(result)-1])
	})

	t.Run("months and days", func(t *testing.T) {
		t.Parallel()

		result := ghapi.GenerateDateRange(ghapi.LookbackPeriod{Months: 1, Days: 5}, fixedNow)
		assert.Equal(t, "2025-06-26", result[0])
		assert.Equal(t, "2025-08-01", result[len(result)-1])
	})

	t.Run("years months and days", func(t *testing.T) {
		t.Parallel()

		result := ghapi.GenerateDateRange(ghapi.LookbackPeriod{Years: 1, Months: 2, Days: 10}, fixedNow)
		assert.Equal(t, "2024-05-22", result[0])
		assert.Equal(t, "2025-08-01", result[len(result)-1])
	})

	t.Run("month end clamps", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
		result := ghapi.GenerateDateRange(ghapi.LookbackPeriod{Months: 1}, now)
		assert.Equal(t, "2025-02-28", result[0])
		assert.Len(t, result, 32)
	})

	t.Run("non-UTC now is normalized", func(t *testing.T) {
		t.Parallel()

		loc := time.FixedZone("UTC-10", -10*60*60)
		now := time.Date(2025, time.July, 31, 20, 0, 0, 0, loc)
		result := ghapi.GenerateDateRange(ghapi.LookbackPeriod{Days: 1}, now)
		assert.Equal(t, []string{"2025-07-31", "2025-08-01"}, result)
	})
}

func TestAuditQueryPhrases(t *testing.T) {
	t.Parallel()

	base := ghapi.AuditQuery{
		Actions:       []string{"protected_branch.create"},
		ExcludeActors: []string{"bot-user"},
	}

	t.Run("no lookback", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, []string{"action:protected_branch.create -actor:bot-user"}, base.Phrases(fixedNow))
	})

	t.Run("range mode", func(t *testing.T) {
		t.Parallel()

		q := base
		q.Lookback = ghapi.LookbackPeriod{Days: 7}
		q.DateMode = ghapi.DateModeRange

		assert.Equal(t,
			[]string{"action:protected_branch.create -actor:bot-user created:>=2025-07-25"},
			q.Phrases(fixedNow))
	})

	t.Run("default mode is range", func(t *testing.T) {
		t.Parallel()

		q := base
		q.Lookback = ghapi.LookbackPeriod{Months: 2}

		assert.Equal(t,
			[]string{"action:protected_branch.create -actor:bot-user created:>=2025-06-01"},
			q.Phrases(fixedNow))
	})

	t.Run("exact-day mode", func(t *testing.T) {
		t.Parallel()

		q := base
		q.Lookback = ghapi.LookbackPeriod{Days: 2}
		q.DateMode = ghapi.DateModeExactDay

		assert.Equal(t, []string{
			"action:protected_branch.create -actor:bot-user created:2025-07-30",
			"action:protected_branch.create -actor:bot-user created:2025-07-31",
			"action:protected_branch.create -actor:bot-user created:2025-08-01",
		}, q.Phrases(fixedNow))
	})
}

func TestAuditQueryMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ghapi.DateModeRange, ghapi.AuditQuery{}.Mode())
	assert.Equal(t, ghapi.DateModeRange, ghapi.AuditQuery{DateMode: ghapi.DateModeRange}.Mode())
	assert.Equal(t, ghapi.DateModeExactDay, ghapi.AuditQuery{DateMode: ghapi.DateModeExactDay}.Mode())
}

func TestParseDateMode(t *testing.T) {
	t.Parallel()

	mode, err := ghapi.ParseDateMode("")
	require.NoError(t, err)
	assert.Equal(t, ghapi.DateModeRange, mode)

	mode, err = ghapi.ParseDateMode("Exact-Day")
	require.NoError(t, err)
	assert.Equal(t, ghapi.DateModeExactDay, mode)

	_, err = ghapi.ParseDateMode("weekly")
	assert.ErrorIs(t, err, ghapi.ErrConfiguration)
}

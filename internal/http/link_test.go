package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	ghhttp "github.com/fivetwenty-io/ghextract/internal/http"
)

func TestParseLinkHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		expected map[string]string
	}{
		{
			name:     "empty",
			header:   "",
			expected: map[string]string{},
		},
		{
			name: "next and first",
			header: `<https://api.github.com/example?per_page=2&page=1>; rel="next", ` +
				`<https://api.github.com/example?per_page=2&page=0>; rel="first"`,
			expected: map[string]string{
				"next":  "https://api.github.com/example?per_page=2&page=1",
				"first": "https://api.github.com/example?per_page=2&page=0",
			},
		},
		{
			name:     "unquoted rel",
			header:   `<https://api.github.com/users?since=46>; rel=next`,
			expected: map[string]string{"next": "https://api.github.com/users?since=46"},
		},
		{
			name:     "multiple relations on one link",
			header:   `<https://x.test/a>; rel="next last"`,
			expected: map[string]string{"next": "https://x.test/a", "last": "https://x.test/a"},
		},
		{
			name:     "comma inside url",
			header:   `<https://x.test/search?q=a,b&page=2>; rel="next"`,
			expected: map[string]string{"next": "https://x.test/search?q=a,b&page=2"},
		},
		{
			name:     "malformed entries skipped",
			header:   `https://x.test/a; rel="next", <>; rel="prev", <https://x.test/b>; title="x"`,
			expected: map[string]string{},
		},
		{
			name:     "relative target kept verbatim",
			header:   `</example?page=3>; rel="next"`,
			expected: map[string]string{"next": "/example?page=3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ghhttp.ParseLinkHeader(tt.header))
		})
	}
}

func TestRandomExponentialBackoff(t *testing.T) {
	t.Parallel()

	t.Run("bounded by doubling base and cap", func(t *testing.T) {
		t.Parallel()

		for attempt := range 10 {
			upper := min(10*time.Millisecond<<attempt, 200*time.Millisecond)

			for range 50 {
				wait := ghhttp.RandomExponentialBackoff(10*time.Millisecond, 200*time.Millisecond, attempt, nil)
				assert.GreaterOrEqual(t, wait, time.Duration(0))
				assert.LessOrEqual(t, wait, upper)
			}
		}
	})

	t.Run("huge attempt numbers stay capped", func(t *testing.T) {
		t.Parallel()

		wait := ghhttp.RandomExponentialBackoff(time.Second, time.Minute, 5000, nil)
		assert.LessOrEqual(t, wait, time.Minute)
	})

	t.Run("zero waits", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, time.Duration(0), ghhttp.RandomExponentialBackoff(0, 0, 3, nil))
	})

	t.Run("retry-after honoured up to cap", func(t *testing.T) {
		t.Parallel()

		resp := &http.Response{Header: http.Header{"Retry-After": []string{"3"}}}
		assert.Equal(t, 3*time.Second, ghhttp.RandomExponentialBackoff(time.Millisecond, time.Minute, 0, resp))
		assert.Equal(t, time.Second, ghhttp.RandomExponentialBackoff(time.Millisecond, time.Second, 0, resp))
	})

	t.Run("exhausted primary limit waits for reset", func(t *testing.T) {
		t.Parallel()

		resp := &http.Response{Header: http.Header{
			"X-Ratelimit-Remaining": []string{"0"},
			"X-Ratelimit-Reset":     []string{"1"},
		}}
		assert.Equal(t, time.Duration(0), ghhttp.RandomExponentialBackoff(time.Second, time.Minute, 0, resp))
	})
}

package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v80/github"

	"github.com/fivetwenty-io/ghextract/internal/constants"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

const maxErrorBodyLength = 512

// checkRetry is the retryablehttp.CheckRetry policy. It classifies every
// attempt once and hands the classified error back to the retry loop, which
// returns it unchanged through the passthrough error handler.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		var apiErr *ghapi.Error
		if errors.As(err, &apiErr) {
			return apiErr.Retryable, apiErr
		}

		return true, networkError(err)
	}

	apiErr := classifyResponse(resp)
	if apiErr == nil {
		return false, nil
	}

	return apiErr.Retryable, apiErr
}

// classifyResponse maps a non-2xx response to a *ghapi.Error. The body is
// restored so the caller can still read it.
func classifyResponse(resp *http.Response) *ghapi.Error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	data := restoreBody(resp)

	apiErr := &ghapi.Error{
		Kind:       ghapi.KindTerminal,
		StatusCode: resp.StatusCode,
	}

	if resp.Request != nil {
		apiErr.URL = resp.Request.URL.String()
	}

	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		errResp  *github.ErrorResponse
	)

	ghErr := github.CheckResponse(resp)

	switch {
	case errors.As(ghErr, &rateErr):
		apiErr.Retryable = true
		apiErr.Message = rateErr.Message
	case errors.As(ghErr, &abuseErr):
		apiErr.Retryable = true
		apiErr.Message = abuseErr.Message
	case errors.As(ghErr, &errResp):
		apiErr.Message = errResp.Message
	}

	resp.Body = io.NopCloser(bytes.NewReader(data))

	if apiErr.Message == "" {
		apiErr.Message = truncate(strings.TrimSpace(string(data)), maxErrorBodyLength)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.Retryable = true
	case resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusNotImplemented:
		apiErr.Retryable = true
	case resp.Header.Get(constants.HeaderRetryAfter) != "":
		apiErr.Retryable = true
	}

	if apiErr.Retryable {
		apiErr.Kind = ghapi.KindTransient
	}

	return apiErr
}

// networkError wraps a transport failure, dropping the url.Error envelope
// since the URL is carried separately.
func networkError(err error) *ghapi.Error {
	apiErr := &ghapi.Error{
		Kind:      ghapi.KindTransient,
		Retryable: true,
		Err:       err,
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		apiErr.URL = urlErr.URL
		apiErr.Err = urlErr.Err
	}

	return apiErr
}

func restoreBody(resp *http.Response) []byte {
	if resp.Body == nil {
		return nil
	}

	data, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))

	return data
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}

// RandomExponentialBackoff waits a random duration between zero and
// min*2^attempt, capped at max. A server supplied Retry-After or an exhausted
// primary rate limit reset takes precedence, still capped at max.
func RandomExponentialBackoff(minWait, maxWait time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if maxWait < minWait {
		maxWait = minWait
	}

	if resp != nil {
		if wait, ok := serverWait(resp); ok {
			return min(wait, maxWait)
		}
	}

	upper := float64(minWait) * math.Pow(constants.ExponentialBackoffBase, float64(attemptNum))
	if math.IsInf(upper, 0) || upper > float64(maxWait) {
		upper = float64(maxWait)
	}

	if upper <= 0 {
		return 0
	}

	return time.Duration(rand.Int64N(int64(upper) + 1))
}

// serverWait reads Retry-After (seconds or HTTP date) or, for an exhausted
// primary rate limit, X-RateLimit-Reset.
func serverWait(resp *http.Response) (time.Duration, bool) {
	if v := resp.Header.Get(constants.HeaderRetryAfter); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second, true
		}

		if at, err := http.ParseTime(v); err == nil {
			return max(time.Until(at), 0), true
		}
	}

	if resp.Header.Get(headerRateRemaining) == "0" {
		if reset, err := strconv.ParseInt(resp.Header.Get(headerRateReset), 10, 64); err == nil {
			return max(time.Until(time.Unix(reset, 0)), 0), true
		}
	}

	return 0, false
}

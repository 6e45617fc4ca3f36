package http

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/ghextract/internal/constants"
	"github.com/fivetwenty-io/ghextract/internal/ratelimit"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// admissionTransport consults the admitter before every attempt, including
// retries. A refusal fails the attempt with a retryable rate-limited error and
// sends nothing.
type admissionTransport struct {
	base     http.RoundTripper
	admitter ghapi.Admitter
	logger   ghapi.Logger
	refusals rate.Sometimes
}

func newAdmissionTransport(base http.RoundTripper, admitter ghapi.Admitter, logger ghapi.Logger) *admissionTransport {
	return &admissionTransport{
		base:     base,
		admitter: admitter,
		logger:   logger,
		refusals: rate.Sometimes{First: 1, Interval: constants.RefusalLogInterval},
	}
}

// RoundTrip implements http.RoundTripper.
func (t *admissionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ok, err := t.admitter.Admit(req.Context())
	if err != nil {
		return nil, &ghapi.Error{
			Kind:      ghapi.KindTransient,
			Retryable: true,
			URL:       req.URL.String(),
			Err:       fmt.Errorf("checking rate limit: %w", err),
		}
	}

	if !ok {
		t.logRefusal(req)

		return nil, ghapi.NewRateLimitedError(req.URL.String())
	}

	return t.base.RoundTrip(req)
}

func (t *admissionTransport) logRefusal(req *http.Request) {
	if t.logger == nil {
		return
	}

	t.refusals.Do(func() {
		fields := map[string]interface{}{
			"url": req.URL.String(),
		}

		if w, ok := t.admitter.(*ratelimit.MovingWindow); ok {
			stats := w.Stats()
			fields["limit"] = stats.Limit
			fields["used"] = stats.Used
			fields["reset_at"] = stats.ResetAt
		}

		t.logger.Warn("Request rate limit reached, backing off", fields)
	})
}

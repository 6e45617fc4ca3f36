package extract

import (
	"context"
	"iter"
	"time"

	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// AuditLog emits enterprise audit events matching a query. Each event's
// "@timestamp" field is renamed to "timestamp".
type AuditLog struct {
	base
	enterprise string
	query      ghapi.AuditQuery
	now        func() time.Time
}

// NewAuditLog creates an audit log extractor.
func NewAuditLog(client ghapi.Client, enterprise string, query ghapi.AuditQuery, opts Options) *AuditLog {
	return &AuditLog{
		base:       newBase(client, opts),
		enterprise: enterprise,
		query:      query,
		now:        time.Now,
	}
}

// WithClock replaces time.Now when computing the lookback window.
func (e *AuditLog) WithClock(now func() time.Time) *AuditLog {
	e.now = now

	return e
}

// Kind implements Extractor.
func (e *AuditLog) Kind() string { return KindAudit }

// Records implements Extractor.
func (e *AuditLog) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, phrase := range e.query.Phrases(e.now()) {
			e.debug("Searching audit log", map[string]interface{}{
				"enterprise": e.enterprise,
				"phrase":     phrase,
			})

			keepGoing := true

			eachRecord(e.client.EnterpriseAuditLog(ctx, e.enterprise, phrase), func(rec Record, err error) bool {
				keepGoing = false

				return yield(rec, err)
			}, func(event Record) bool {
				if ts, ok := event["@timestamp"]; ok {
					event["timestamp"] = ts
					delete(event, "@timestamp")
				}

				keepGoing = yield(event, nil)

				return keepGoing
			})

			if !keepGoing {
				return
			}
		}
	}
}

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/fivetwenty-io/ghextract/internal/constants"
	"github.com/fivetwenty-io/ghextract/pkg/ghapi"
)

// Extractor produces records of one kind.
type Extractor interface {
	// Kind names the records produced, e.g. "repository".
	Kind() string
	// Records streams the records. The first error ends the sequence.
	Records(ctx context.Context) iter.Seq2[Record, error]
}

// Options configures extractors.
type Options struct {
	// Logger receives progress and permission warnings. Optional.
	Logger ghapi.Logger
	// Concurrency bounds concurrent sub-resource fetches per record.
	Concurrency int
}

type base struct {
	client      ghapi.Client
	logger      ghapi.Logger
	concurrency int
}

func newBase(client ghapi.Client, opts Options) base {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return base{client: client, logger: opts.Logger, concurrency: concurrency}
}

func (b base) debug(msg string, fields map[string]interface{}) {
	if b.logger != nil {
		b.logger.Debug(msg, fields)
	}
}

func (b base) warnPermission(gap permissionGap, err error) {
	if b.logger != nil {
		b.logger.Warn(gap.message(), map[string]interface{}{
			"endpoint": gap.endpoint,
			"item":     gap.item,
			"error":    err.Error(),
		})
	}
}

// gather drains seq into shaped records. A 403 is reported as a permission
// gap and whatever was read before it is kept; any other error is returned.
func (b base) gather(seq iter.Seq2[json.RawMessage, error], shape func(Record) Record, gap permissionGap) ([]Record, error) {
	out := []Record{}

	for raw, err := range seq {
		if err != nil {
			if ghapi.IsForbidden(err) {
				b.warnPermission(gap, err)

				return out, nil
			}

			return nil, err
		}

		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}

		if shape != nil {
			rec = shape(rec)
		}

		out = append(out, rec)
	}

	return out, nil
}

// eachRecord decodes every item of seq and hands it to fn until fn returns
// false or an error occurs.
func eachRecord(seq iter.Seq2[json.RawMessage, error], yield func(Record, error) bool, fn func(Record) bool) {
	for raw, err := range seq {
		if err != nil {
			yield(nil, err)

			return
		}

		rec, err := decodeRecord(raw)
		if err != nil {
			yield(nil, err)

			return
		}

		if !fn(rec) {
			return
		}
	}
}

func withRole(role string) func(Record) Record {
	return func(user Record) Record {
		user["role"] = role

		return SimplifyUser(user)
	}
}

func loginOf(rec Record) (string, error) {
	login := rec.String("login")
	if login == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingField, "login")
	}

	return login, nil
}

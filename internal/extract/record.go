// Package extract turns GitHub API listings into the records emitted for the
// graph ingestion pipeline: organizations, repositories, teams, users and
// enterprise audit events.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Record kinds, also used as sink subjects.
const (
	KindOrganization = "organization"
	KindRepository   = "repository"
	KindTeam         = "team"
	KindUser         = "user"
	KindAudit        = "audit"
)

// Static errors for err113 compliance.
var (
	ErrNotAnObject  = errors.New("item is not a JSON object")
	ErrMissingField = errors.New("required field is missing")
)

// Record is one decoded GitHub object plus the fields an extractor attached.
// Numbers are kept as json.Number so ids survive unchanged.
type Record map[string]any

// decodeRecord decodes a single JSON object.
func decodeRecord(raw json.RawMessage) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec Record

	err := dec.Decode(&rec)
	if err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	if rec == nil {
		return nil, ErrNotAnObject
	}

	return rec, nil
}

// String returns the field as a string, or "" when absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)

	return s
}

// Int64 returns the numeric field key.
func (r Record) Int64(key string) (int64, error) {
	switch v := r[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", key, err)
		}

		return n, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", key, err)
		}

		return n, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrMissingField, key)
	}
}

// Object returns a nested object field.
func (r Record) Object(key string) Record {
	switch v := r[key].(type) {
	case Record:
		return v
	case map[string]any:
		return Record(v)
	default:
		return nil
	}
}

func pick(src Record, required []string, optional []string) Record {
	out := make(Record, len(required)+len(optional))

	for _, k := range required {
		out[k] = src[k]
	}

	for _, k := range optional {
		if v, ok := src[k]; ok {
			out[k] = v
		}
	}

	return out
}

// SimplifyUser keeps the identifying fields of a user for relationship data.
func SimplifyUser(user Record) Record {
	return pick(user, []string{"id", "login", "node_id"}, []string{"role", "permissions"})
}

// SimplifyRepo keeps the identifying fields of a repository for relationship
// data.
func SimplifyRepo(repo Record) Record {
	return pick(repo, []string{"id", "node_id", "name", "full_name", "url"}, []string{"permissions"})
}

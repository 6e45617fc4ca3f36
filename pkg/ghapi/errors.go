package ghapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure at the client boundary.
type ErrorKind int

const (
	// KindConfiguration is a missing or invalid construction-time parameter.
	KindConfiguration ErrorKind = iota + 1
	// KindRateLimited is a local admission refusal. It is retried internally and
	// only surfaces once the retry budget is spent.
	KindRateLimited
	// KindTransient is a network failure or a retry-eligible HTTP status.
	KindTransient
	// KindTerminal is a non-retryable HTTP status.
	KindTerminal
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindRateLimited:
		return "rate-limited"
	case KindTransient:
		return "transient"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the client. Retryable is decided
// once, when the error is classified, and is what the retry policy consults.
type Error struct {
	Kind       ErrorKind
	Retryable  bool
	StatusCode int
	URL        string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindConfiguration:
		return "invalid configuration: " + e.Message
	case KindRateLimited:
		return "rate limited when calling " + e.URL
	case KindTransient, KindTerminal:
		if e.StatusCode == 0 {
			if e.Err != nil {
				return fmt.Sprintf("GET %s: %s error: %v", e.URL, e.Kind, e.Err)
			}

			return fmt.Sprintf("GET %s: %s error", e.URL, e.Kind)
		}

		msg := e.Message
		if msg == "" {
			msg = http.StatusText(e.StatusCode)
		}

		return fmt.Sprintf("GET %s: %s status %d: %s", e.URL, e.Kind, e.StatusCode, msg)
	default:
		return e.Message
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind and, when the target carries one, by
// status code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// Sentinels for errors.Is.
var (
	ErrConfiguration  = &Error{Kind: KindConfiguration}
	ErrRateLimited    = &Error{Kind: KindRateLimited}
	ErrTransient      = &Error{Kind: KindTransient}
	ErrTerminalStatus = &Error{Kind: KindTerminal}
	ErrNotFound       = &Error{Kind: KindTerminal, StatusCode: http.StatusNotFound}
	ErrUnauthorized   = &Error{Kind: KindTerminal, StatusCode: http.StatusUnauthorized}
	ErrForbidden      = &Error{Kind: KindTerminal, StatusCode: http.StatusForbidden}
)

// Static errors for err113 compliance.
var (
	ErrUnexpectedPageShape = errors.New("page body is not a JSON array")
	ErrNoHost              = errors.New("no host")
	ErrLookbackRequired    = errors.New("value is required")
	ErrLookbackNotInteger  = errors.New("value is not an integer")
	ErrLookbackNotPositive = errors.New("value must be greater than zero")
	ErrLookbackOutOfRange  = errors.New("value out of range")
	ErrLookbackUnknownUnit = errors.New("unknown unit")
)

// NewConfigurationError builds a KindConfiguration error.
func NewConfigurationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapConfigurationError builds a KindConfiguration error around err; the
// message is formatted as in NewConfigurationError followed by err.
func WrapConfigurationError(err error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf(format, args...) + ": " + err.Error(),
		Err:     err,
	}
}

// NewRateLimitedError builds the local admission refusal for url.
func NewRateLimitedError(url string) *Error {
	return &Error{
		Kind:      KindRateLimited,
		Retryable: true,
		URL:       url,
	}
}

// IsNotFound checks if the error is a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsForbidden checks if the error is a terminal 403.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsRateLimited checks if the error is a local admission refusal.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsRetryable reports whether the error was classified as retryable.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}

	return false
}

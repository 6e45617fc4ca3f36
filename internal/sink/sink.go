// Package sink delivers extracted records to their destination.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fivetwenty-io/ghextract/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrNATSURLRequired  = errors.New("NATS URL required for NATS sink")
	ErrFilePathRequired = errors.New("file path required for file sink")
	ErrUnsupportedType  = errors.New("unsupported sink type")
	ErrClosed           = errors.New("sink closed")
)

// Sink receives records. Implementations are safe for concurrent use.
type Sink interface {
	// Write delivers one record of the given kind.
	Write(ctx context.Context, kind string, record any) error
	// Close flushes pending records and releases resources.
	Close() error
}

// Type represents the type of sink backend.
type Type string

const (
	// TypeStdout writes JSON lines to standard output.
	TypeStdout Type = constants.SinkStdout

	// TypeFile writes JSON lines to a file.
	TypeFile Type = constants.SinkFile

	// TypeNATS publishes each record to a NATS subject.
	TypeNATS Type = constants.SinkNATS
)

// Config configures a sink backend.
type Config struct {
	// Type is the sink backend type
	Type Type

	// Path is the output file of the file sink
	Path string

	// NATSURL is the server URL of the NATS sink
	NATSURL string

	// Subject is the subject prefix of the NATS sink
	Subject string
}

// DefaultConfig returns a stdout sink configuration.
func DefaultConfig() *Config {
	return &Config{Type: TypeStdout, Subject: constants.DefaultNATSSubject}
}

// NewFromConfig creates a sink from configuration. stdout is used for
// TypeStdout so tests can pass their own writer.
func NewFromConfig(config *Config, stdout io.Writer) (Sink, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Type {
	case TypeStdout, "":
		if stdout == nil {
			stdout = os.Stdout
		}

		return NewJSONLines(stdout), nil

	case TypeFile:
		if config.Path == "" {
			return nil, ErrFilePathRequired
		}

		file, err := OpenFile(config.Path)
		if err != nil {
			return nil, err
		}

		return file, nil

	case TypeNATS:
		if config.NATSURL == "" {
			return nil, ErrNATSURLRequired
		}

		subject := config.Subject
		if subject == "" {
			subject = constants.DefaultNATSSubject
		}

		conn, err := DialNATS(config.NATSURL, subject)
		if err != nil {
			return nil, err
		}

		return conn, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, config.Type)
	}
}

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/ghextract/internal/constants"
)

// Publisher is the part of *nats.Conn the NATS sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATS publishes each record as JSON to "<prefix>.<kind>".
type NATS struct {
	conn   Publisher
	prefix string

	mu     sync.Mutex
	closed bool
}

// NewNATS publishes through conn.
func NewNATS(conn Publisher, prefix string) *NATS {
	return &NATS{conn: conn, prefix: strings.TrimSuffix(prefix, ".")}
}

// DialNATS connects to url and returns a sink publishing under prefix.
func DialNATS(url, prefix string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("ghextract"),
		nats.Timeout(constants.ShortHTTPTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	return NewNATS(conn, prefix), nil
}

// Subject returns the subject records of kind are published to.
func (s *NATS) Subject(kind string) string {
	return s.prefix + "." + kind
}

// Write implements Sink.
func (s *NATS) Write(_ context.Context, kind string, record any) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrClosed
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", kind, err)
	}

	err = s.conn.Publish(s.Subject(kind), data)
	if err != nil {
		return fmt.Errorf("publishing %s record: %w", kind, err)
	}

	return nil
}

// Flush waits until the server has received everything published so far.
func (s *NATS) Flush(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ShortHTTPTimeout)
	defer cancel()

	err := s.conn.FlushWithContext(ctx)
	if err != nil {
		return fmt.Errorf("flushing NATS connection: %w", err)
	}

	return nil
}

// Close flushes and drains the connection.
func (s *NATS) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	s.mu.Unlock()

	err := s.Flush(context.Background())
	if err != nil {
		return err
	}

	err = s.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}

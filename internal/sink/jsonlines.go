package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fivetwenty-io/ghextract/internal/constants"
)

// JSONLines writes one JSON object per line: {"kind": ..., "record": ...}.
type JSONLines struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	closed bool
}

type line struct {
	Kind   string `json:"kind"`
	Record any    `json:"record"`
}

// NewJSONLines writes to w. Close flushes but does not close w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: bufio.NewWriter(w)}
}

// OpenFile creates (or truncates) path and writes JSON lines to it.
func OpenFile(path string) (*JSONLines, error) {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, constants.ConfigDirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// #nosec G304 -- path is the operator supplied output file
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.OutputFilePerm)
	if err != nil {
		return nil, fmt.Errorf("opening output file: %w", err)
	}

	return &JSONLines{w: bufio.NewWriter(file), closer: file}, nil
}

// Write implements Sink.
func (s *JSONLines) Write(_ context.Context, kind string, record any) error {
	data, err := json.Marshal(line{Kind: kind, Record: record})
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	_, err = s.w.Write(append(data, '\n'))
	if err != nil {
		return fmt.Errorf("writing %s record: %w", kind, err)
	}

	return nil
}

// Close implements Sink.
func (s *JSONLines) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	err := s.w.Flush()
	if err != nil {
		return fmt.Errorf("flushing records: %w", err)
	}

	if s.closer != nil {
		err = s.closer.Close()
		if err != nil {
			return fmt.Errorf("closing output: %w", err)
		}
	}

	return nil
}

// Package ratelimit provides moving-window admission control for outbound
// requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Admitter decides whether one more request may be sent now.
type Admitter interface {
	Admit(ctx context.Context) (bool, error)
}

// WindowStats is a snapshot of a window.
type WindowStats struct {
	Limit     int       `json:"limit" yaml:"limit"`
	Used      int       `json:"used" yaml:"used"`
	Remaining int       `json:"remaining" yaml:"remaining"`
	ResetAt   time.Time `json:"reset_at" yaml:"reset_at"`
}

// MovingWindow admits at most limit requests within any trailing window. A
// request admitted at T counts against every window containing T.
type MovingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   []time.Time
	now    func() time.Time
}

// Option configures a MovingWindow.
type Option func(*MovingWindow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *MovingWindow) {
		w.now = now
	}
}

// NewMovingWindow creates a window admitting limit requests per window.
func NewMovingWindow(limit int, window time.Duration, opts ...Option) *MovingWindow {
	w := &MovingWindow{
		limit:  limit,
		window: window,
		hits:   make([]time.Time, 0, max(limit, 0)),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Allow records a hit and returns true, or returns false without recording
// anything when the window is saturated. It never blocks on I/O.
func (w *MovingWindow) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	if len(w.hits) >= w.limit {
		return false
	}

	w.hits = append(w.hits, now)

	return true
}

// Admit implements Admitter.
func (w *MovingWindow) Admit(_ context.Context) (bool, error) {
	return w.Allow(), nil
}

// Stats reports usage of the current window. ResetAt is when the oldest hit
// leaves the window, or now when the window is empty.
func (w *MovingWindow) Stats() WindowStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	stats := WindowStats{
		Limit:     w.limit,
		Used:      len(w.hits),
		Remaining: max(w.limit-len(w.hits), 0),
		ResetAt:   now,
	}

	if len(w.hits) > 0 {
		stats.ResetAt = w.hits[0].Add(w.window)
	}

	return stats
}

// prune drops hits at or before now-window. Hits are appended in clock order
// so the expired ones form a prefix.
func (w *MovingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)

	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}

	if i > 0 {
		w.hits = append(w.hits[:0], w.hits[i:]...)
	}
}

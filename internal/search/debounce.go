// Package search runs type-ahead lookups: input is debounced, short queries
// clear the results, and responses that arrive after a newer lookup was
// issued are dropped.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a lookup is issued.
const DefaultDelay = 400 * time.Millisecond

// MinLength is the shortest trimmed query that triggers a lookup.
const MinLength = 2

// Lookup performs the remote search.
type Lookup[T any] func(ctx context.Context, q string) ([]T, error)

// Result is delivered once per issued lookup that is still current, and
// immediately (with no items) when the query becomes too short.
type Result[T any] struct {
	Query string
	Items []T
	Err   error
}

// Debouncer delays lookups until the input settles.
type Debouncer[T any] struct {
	ctx     context.Context
	delay   time.Duration
	lookup  Lookup[T]
	deliver func(Result[T])

	mu    sync.Mutex
	timer *time.Timer
	// armed identifies the live timer. A timer whose callback runs after
	// it was replaced or stopped sees a different value and does nothing.
	armed uint64
	seq   uint64

	// deliverMu keeps the staleness check and delivery atomic.
	deliverMu sync.Mutex
}

// New creates a debouncer. A non-positive delay uses DefaultDelay.
func New[T any](ctx context.Context, delay time.Duration, lookup Lookup[T], deliver func(Result[T])) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{ctx: ctx, delay: delay, lookup: lookup, deliver: deliver}
}

// Type records new input. Any pending lookup is cancelled and the timer
// restarts.
func (d *Debouncer[T]) Type(q string) {
	q = strings.TrimSpace(q)

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.armed++
	if len([]rune(q)) < MinLength {
		d.seq++
		d.mu.Unlock()
		d.emit(Result[T]{Query: q})
		return
	}
	gen := d.armed
	d.timer = time.AfterFunc(d.delay, func() { d.fire(q, gen) })
	d.mu.Unlock()
}

// Stop cancels the pending lookup and drops any in-flight result.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.armed++
	d.seq++
}

func (d *Debouncer[T]) fire(q string, gen uint64) {
	d.mu.Lock()
	if gen != d.armed {
		d.mu.Unlock()
		return
	}
	d.seq++
	seq := d.seq
	d.timer = nil
	d.mu.Unlock()

	items, err := d.lookup(d.ctx, q)
	if err != nil {
		slog.Warn("search failed", "query", q, "error", err)
	}

	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	stale := seq != d.seq
	d.mu.Unlock()
	if stale {
		slog.Debug("dropping stale search result", "query", q)
		return
	}
	d.deliver(Result[T]{Query: q, Items: items, Err: err})
}

func (d *Debouncer[T]) emit(r Result[T]) {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()
	d.deliver(r)
}

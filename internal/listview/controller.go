// Package listview drives the incremental loading of a paginated
// collection: first page on mount, more on scroll, and local
// reconciliation after create, update and delete.
package listview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/model"
)

// Threshold is the fraction of the collection left below the visible end
// at which the next page is requested.
const Threshold = 0.3

// State is the loading state of a list.
type State int

// List states.
const (
	Idle State = iota
	Loading
	Loaded
	LoadingMore
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadingMore:
		return "loading-more"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Pager fetches one page of a collection.
type Pager[T any] interface {
	ListPage(ctx context.Context, page int) (model.Page[T], error)
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(title, message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(title, message string)

// Alert implements Alerter.
func (f AlertFunc) Alert(title, message string) { f(title, message) }

// PageCache persists the first page of a collection between runs.
type PageCache interface {
	Save(ctx context.Context, resource string, payload []byte) error
	Load(ctx context.Context, resource string) ([]byte, time.Time, error)
}

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot[T any] struct {
	Items    []T
	State    State
	NextPage int
	LastPage int
	// CachedAt is set while the items come from the page cache.
	CachedAt time.Time
}

// Controller holds the loaded part of a collection. It is safe for
// concurrent use.
type Controller[T model.Record] struct {
	name  string
	pager Pager[T]
	alert Alerter
	cache PageCache

	mu       sync.Mutex
	items    []T
	state    State
	next     int
	last     int
	loading  bool
	gen      int
	cachedAt time.Time
}

// New creates a controller for the collection called name.
func New[T model.Record](name string, pager Pager[T], alert Alerter) *Controller[T] {
	return &Controller[T]{name: name, pager: pager, alert: alert, next: 1}
}

// UseCache enables the first-page cache.
func (c *Controller[T]) UseCache(cache PageCache) *Controller[T] {
	c.cache = cache
	return c
}

// Mount loads page 1 and replaces the collection. Any load still in flight
// is superseded.
func (c *Controller[T]) Mount(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	prior := c.stableState()
	c.loading = true
	c.state = Loading
	empty := len(c.items) == 0
	c.mu.Unlock()

	if empty && c.cache != nil {
		c.restoreCache(ctx, gen)
	}

	page, err := c.pager.ListPage(ctx, 1)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	if err != nil {
		c.state = prior
		if prior == Idle && len(c.items) > 0 {
			// Cached items restored above stay on screen.
			c.state = Loaded
		}
		c.mu.Unlock()
		c.fail("loading", err)
		return err
	}
	c.items = page.Data
	c.cachedAt = time.Time{}
	c.advance(page)
	c.mu.Unlock()

	if c.cache != nil {
		c.saveCache(ctx, page.Data)
	}
	return nil
}

// LoadMore appends the next page. It does nothing while another load is in
// flight, before the first page arrived, or after the last page.
func (c *Controller[T]) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || c.state != Loaded || c.next > c.last {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	next := c.next
	c.loading = true
	c.state = LoadingMore
	c.mu.Unlock()

	page, err := c.pager.ListPage(ctx, next)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	if err != nil {
		c.state = Loaded
		c.mu.Unlock()
		c.fail("loading more", err)
		return err
	}
	c.items = append(c.items, page.Data...)
	c.advance(page)
	c.mu.Unlock()
	return nil
}

// Scrolled reports that the item at index visibleEnd-1 is the last one on
// screen, and loads more when the rest of the collection is within
// Threshold of its length.
func (c *Controller[T]) Scrolled(ctx context.Context, visibleEnd int) error {
	c.mu.Lock()
	n := len(c.items)
	near := n > 0 && float64(n-visibleEnd) <= Threshold*float64(n)
	c.mu.Unlock()

	if !near {
		return nil
	}
	return c.LoadMore(ctx)
}

// Created puts a newly saved record at the top of the list.
func (c *Controller[T]) Created(rec T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]T, 0, len(c.items)+1)
	items = append(items, rec)
	c.items = append(items, c.items...)
	if c.state == Idle {
		c.state = Loaded
	}
}

// Updated replaces the record with the same id. When the record is not
// loaded the list is reloaded from page 1.
func (c *Controller[T]) Updated(ctx context.Context, rec T) error {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].Identifier() == rec.Identifier() {
			c.items[i] = rec
			c.mu.Unlock()
			return nil
		}
	}
	c.mu.Unlock()

	slog.Warn("updated record not in list, reloading", "list", c.name, "id", rec.Identifier())
	return c.Mount(ctx)
}

// Deleted reloads the list from page 1 after a successful delete.
func (c *Controller[T]) Deleted(ctx context.Context) error {
	return c.Mount(ctx)
}

// Items returns a copy of the loaded records.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// State returns the current loading state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the items and paging state together.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{
		Items:    items,
		State:    c.state,
		NextPage: c.next,
		LastPage: c.last,
		CachedAt: c.cachedAt,
	}
}

// advance records the paging position after a successful page. Callers
// hold c.mu.
func (c *Controller[T]) advance(page model.Page[T]) {
	c.next = page.CurrentPage + 1
	c.last = page.LastPage
	if c.next > c.last {
		c.state = Exhausted
	} else {
		c.state = Loaded
	}
}

// stableState is the state to fall back to when a load fails. Callers hold
// c.mu.
func (c *Controller[T]) stableState() State {
	switch c.state {
	case Loading:
		if len(c.items) == 0 {
			return Idle
		}
		return Loaded
	case LoadingMore:
		return Loaded
	default:
		return c.state
	}
}

func (c *Controller[T]) fail(action string, err error) {
	slog.Error("list load failed", "list", c.name, "action", action, "error", err)
	if c.alert != nil {
		c.alert.Alert("Error", client.UserMessage(err))
	}
}

func (c *Controller[T]) restoreCache(ctx context.Context, gen int) {
	data, at, err := c.cache.Load(ctx, c.name)
	if err != nil {
		slog.Warn("reading page cache", "list", c.name, "error", err)
		return
	}
	if data == nil {
		return
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("decoding page cache", "list", c.name, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen && len(c.items) == 0 {
		c.items = items
		c.cachedAt = at
	}
}

func (c *Controller[T]) saveCache(ctx context.Context, items []T) {
	data, err := json.Marshal(items)
	if err != nil {
		slog.Warn("encoding page cache", "list", c.name, "error", err)
		return
	}
	if err := c.cache.Save(ctx, c.name, data); err != nil {
		slog.Warn("writing page cache", "list", c.name, "error", err)
	}
}

package listview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/db"
	"github.com/erazemk/soporte/internal/model"
	"github.com/erazemk/soporte/internal/store"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (i item) Identifier() int64 { return i.ID }

// fakePager serves total items in pages of size.
type fakePager struct {
	mu    sync.Mutex
	total int
	size  int
	calls []int
	fail  map[int]error
	gate  chan struct{}
	start int64
}

func (p *fakePager) ListPage(ctx context.Context, page int) (model.Page[item], error) {
	p.mu.Lock()
	p.calls = append(p.calls, page)
	err := p.fail[page]
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return model.Page[item]{}, err
	}

	last := (p.total + p.size - 1) / p.size
	if last == 0 {
		last = 1
	}
	var data []item
	for i := (page - 1) * p.size; i < page*p.size && i < p.total; i++ {
		data = append(data, item{ID: p.start + int64(i) + 1})
	}
	return model.Page[item]{Data: data, CurrentPage: page, LastPage: last}, nil
}

func (p *fakePager) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type recordedAlerts struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordedAlerts) Alert(_, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func TestPaginationCompleteness(t *testing.T) {
	pager := &fakePager{total: 25, size: 10}
	c := New[item]("items", pager, nil)
	ctx := context.Background()

	if err := c.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	for c.State() == Loaded {
		if err := c.LoadMore(ctx); err != nil {
			t.Fatalf("LoadMore: %v", err)
		}
	}

	items := c.Items()
	if len(items) != 25 {
		t.Fatalf("expected 25 items, got %d", len(items))
	}
	for i, it := range items {
		if it.ID != int64(i+1) {
			t.Fatalf("item %d has id %d", i, it.ID)
		}
	}
	if c.State() != Exhausted {
		t.Errorf("expected exhausted, got %s", c.State())
	}

	if err := c.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore after end: %v", err)
	}
	if pager.callCount() != 3 {
		t.Errorf("expected 3 page requests, got %d", pager.callCount())
	}
}

func TestLoadMoreIsGuarded(t *testing.T) {
	pager := &fakePager{total: 30, size: 10}
	c := New[item]("items", pager, nil)
	ctx := context.Background()
	if err := c.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	pager.mu.Lock()
	pager.gate = make(chan struct{})
	pager.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.LoadMore(ctx)
	}()

	deadline := time.Now().Add(time.Second)
	for c.State() != LoadingMore {
		if time.Now().After(deadline) {
			t.Fatal("load did not start")
		}
		time.Sleep(time.Millisecond)
	}

	for range 5 {
		c.LoadMore(ctx)
		c.Scrolled(ctx, 10)
	}
	close(pager.gate)
	wg.Wait()

	if pager.callCount() != 2 {
		t.Errorf("expected 1 extra page request, got %d total", pager.callCount())
	}
	if n := len(c.Items()); n != 20 {
		t.Errorf("expected 20 items, got %d", n)
	}
}

func TestScrolledThreshold(t *testing.T) {
	pager := &fakePager{total: 30, size: 10}
	c := New[item]("items", pager, nil)
	ctx := context.Background()
	c.Mount(ctx)

	c.Scrolled(ctx, 5)
	if pager.callCount() != 1 {
		t.Fatalf("expected no load at half way, got %d calls", pager.callCount())
	}

	c.Scrolled(ctx, 7)
	if pager.callCount() != 2 {
		t.Fatalf("expected load within the last 30%%, got %d calls", pager.callCount())
	}
}

func TestCreatedPrependsAndUpdatedReplaces(t *testing.T) {
	pager := &fakePager{total: 3, size: 10}
	c := New[item]("items", pager, nil)
	ctx := context.Background()
	c.Mount(ctx)

	c.Created(item{ID: 99, Name: "new"})
	items := c.Items()
	if len(items) != 4 || items[0].ID != 99 {
		t.Fatalf("expected new item first, got %+v", items)
	}

	if err := c.Updated(ctx, item{ID: 2, Name: "edited"}); err != nil {
		t.Fatalf("Updated: %v", err)
	}
	items = c.Items()
	if items[2].ID != 2 || items[2].Name != "edited" || len(items) != 4 {
		t.Errorf("expected item 2 replaced in place, got %+v", items)
	}
	if pager.callCount() != 1 {
		t.Errorf("expected no refetch on hit, got %d calls", pager.callCount())
	}
}

func TestUpdatedMissReloads(t *testing.T) {
	pager := &fakePager{total: 3, size: 10}
	c := New[item]("items", pager, nil)
	ctx := context.Background()
	c.Mount(ctx)

	if err := c.Updated(ctx, item{ID: 500}); err != nil {
		t.Fatalf("Updated: %v", err)
	}
	if pager.callCount() != 2 {
		t.Errorf("expected reload on miss, got %d calls", pager.callCount())
	}
	if n := len(c.Items()); n != 3 {
		t.Errorf("expected 3 items after reload, got %d", n)
	}
}

func TestDeletedReloadsFirstPage(t *testing.T) {
	pager := &fakePager{total: 25, size: 10}
	c := New[item]("items", pager, nil)
	ctx := context.Background()
	c.Mount(ctx)
	c.LoadMore(ctx)

	pager.mu.Lock()
	pager.total = 24
	pager.mu.Unlock()

	if err := c.Deleted(ctx); err != nil {
		t.Fatalf("Deleted: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.Items) != 10 || snap.NextPage != 2 || snap.LastPage != 3 || snap.State != Loaded {
		t.Errorf("expected fresh first page, got %d items next=%d last=%d state=%s",
			len(snap.Items), snap.NextPage, snap.LastPage, snap.State)
	}
}

func TestLoadErrorAlertsAndKeepsState(t *testing.T) {
	netErr := &client.Error{Kind: client.KindNetwork, Err: client.ErrNoConnection}
	pager := &fakePager{total: 30, size: 10, fail: map[int]error{2: netErr}}
	alerts := &recordedAlerts{}
	c := New[item]("items", pager, alerts)
	ctx := context.Background()
	c.Mount(ctx)

	err := c.LoadMore(ctx)
	if !errors.Is(err, client.ErrNoConnection) {
		t.Fatalf("expected no-connection error, got %v", err)
	}
	if c.State() != Loaded || len(c.Items()) != 10 {
		t.Errorf("expected list unchanged, got state %s with %d items", c.State(), len(c.Items()))
	}
	if len(alerts.messages) != 1 || alerts.messages[0] != client.MessageNoConnection {
		t.Errorf("unexpected alerts: %v", alerts.messages)
	}

	pager.mu.Lock()
	delete(pager.fail, 2)
	pager.mu.Unlock()
	if err := c.LoadMore(ctx); err != nil || len(c.Items()) != 20 {
		t.Errorf("expected retry to append, got %v with %d items", err, len(c.Items()))
	}
}

func TestMountErrorFromIdle(t *testing.T) {
	pager := &fakePager{total: 5, size: 10, fail: map[int]error{1: errors.New("boom")}}
	alerts := &recordedAlerts{}
	c := New[item]("items", pager, alerts)

	if err := c.Mount(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.State() != Idle {
		t.Errorf("expected idle after failed mount, got %s", c.State())
	}
	if len(alerts.messages) != 1 || alerts.messages[0] != client.MessageFallback {
		t.Errorf("unexpected alerts: %v", alerts.messages)
	}
}

func TestPageCacheShowsLastSnapshot(t *testing.T) {
	cache := &store.PageCache{DB: db.NewTestDB(t)}
	ctx := context.Background()

	first := New[item]("items", &fakePager{total: 3, size: 10}, nil).UseCache(cache)
	if err := first.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	pager := &fakePager{total: 2, size: 10, start: 100, gate: make(chan struct{})}
	second := New[item]("items", pager, nil).UseCache(cache)
	done := make(chan error, 1)
	go func() { done <- second.Mount(ctx) }()

	deadline := time.Now().Add(time.Second)
	for {
		snap := second.Snapshot()
		if len(snap.Items) == 3 {
			if snap.State != Loading || snap.CachedAt.IsZero() {
				t.Errorf("expected cached items while loading, got state %s", snap.State)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cached snapshot never shown")
		}
		time.Sleep(time.Millisecond)
	}

	close(pager.gate)
	if err := <-done; err != nil {
		t.Fatalf("Mount: %v", err)
	}
	items := second.Items()
	if len(items) != 2 || items[0].ID != 101 {
		t.Errorf("expected live items to replace cache, got %+v", items)
	}
	if !second.Snapshot().CachedAt.IsZero() {
		t.Error("expected cache marker cleared after live load")
	}
}

func TestMountErrorKeepsCachedItems(t *testing.T) {
	cache := &store.PageCache{DB: db.NewTestDB(t)}
	ctx := context.Background()

	first := New[item]("items", &fakePager{total: 3, size: 10}, nil).UseCache(cache)
	if err := first.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	alerts := &recordedAlerts{}
	pager := &fakePager{total: 3, size: 10, fail: map[int]error{1: errors.New("offline")}}
	second := New[item]("items", pager, alerts).UseCache(cache)
	if err := second.Mount(ctx); err == nil {
		t.Fatal("expected error")
	}

	snap := second.Snapshot()
	if len(snap.Items) != 3 {
		t.Fatalf("expected cached items kept, got %d", len(snap.Items))
	}
	if snap.State != Loaded {
		t.Errorf("expected loaded state with cached items, got %s", snap.State)
	}
	if snap.CachedAt.IsZero() {
		t.Error("expected cache marker kept")
	}
	if len(alerts.messages) != 1 {
		t.Errorf("expected one alert, got %v", alerts.messages)
	}
	if err := second.LoadMore(ctx); err != nil || pager.callCount() != 1 {
		t.Errorf("expected no page request past the cached page, got %v after %d calls", err, pager.callCount())
	}
}

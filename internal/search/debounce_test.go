package search

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	queries []string
	results []Result[string]
	got     chan struct{}
}

func newRecorder() *recorder {
	return &recorder{got: make(chan struct{}, 16)}
}

func (r *recorder) deliver(res Result[string]) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	r.got <- struct{}{}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.got:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a result")
	}
}

func TestTypingBurstIssuesOneLookup(t *testing.T) {
	rec := newRecorder()
	lookup := func(_ context.Context, q string) ([]string, error) {
		rec.mu.Lock()
		rec.queries = append(rec.queries, q)
		rec.mu.Unlock()
		return []string{"result for " + q}, nil
	}
	d := New(context.Background(), 30*time.Millisecond, lookup, rec.deliver)

	d.Type("a")
	d.Type("ab")
	d.Type("abc")
	rec.wait(t)
	rec.wait(t)

	// Give a second timer a chance to fire if it was not cancelled.
	time.Sleep(80 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.queries) != 1 || rec.queries[0] != "abc" {
		t.Errorf("expected a single lookup for abc, got %v", rec.queries)
	}
	// "a" clears the results, then the lookup for "abc" arrives.
	if len(rec.results) != 2 || rec.results[0].Items != nil || rec.results[1].Items[0] != "result for abc" {
		t.Errorf("unexpected results: %+v", rec.results)
	}
}

func TestShortQueryClearsWithoutLookup(t *testing.T) {
	rec := newRecorder()
	lookup := func(context.Context, string) ([]string, error) {
		t.Error("lookup should not run for short queries")
		return nil, nil
	}
	d := New(context.Background(), 10*time.Millisecond, lookup, rec.deliver)

	d.Type(" a ")
	rec.wait(t)
	time.Sleep(30 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.results) != 1 || rec.results[0].Items != nil {
		t.Errorf("expected one empty result, got %+v", rec.results)
	}
}

func TestStaleResultIsDropped(t *testing.T) {
	rec := newRecorder()
	release := make(chan struct{})
	started := make(chan string, 2)
	lookup := func(_ context.Context, q string) ([]string, error) {
		started <- q
		if q == "slow" {
			<-release
		}
		return []string{q}, nil
	}
	d := New(context.Background(), 5*time.Millisecond, lookup, rec.deliver)

	d.Type("slow")
	if q := <-started; q != "slow" {
		t.Fatalf("expected slow lookup first, got %q", q)
	}

	d.Type("fast")
	<-started
	rec.wait(t)

	close(release)
	time.Sleep(50 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.results) != 1 || rec.results[0].Query != "fast" {
		t.Errorf("expected only the fast result, got %+v", rec.results)
	}
}

func TestStopDropsPending(t *testing.T) {
	rec := newRecorder()
	lookup := func(_ context.Context, q string) ([]string, error) {
		return []string{q}, nil
	}
	d := New(context.Background(), 20*time.Millisecond, lookup, rec.deliver)

	d.Type("pending")
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.results) != 0 {
		t.Errorf("expected no results after Stop, got %+v", rec.results)
	}
}

func TestLateCallbackKeepsReplacementTimer(t *testing.T) {
	rec := newRecorder()
	var calls []string
	lookup := func(_ context.Context, q string) ([]string, error) {
		calls = append(calls, q)
		return nil, nil
	}
	d := New(context.Background(), time.Hour, lookup, rec.deliver)

	d.Type("old")
	d.mu.Lock()
	oldGen := d.armed
	d.mu.Unlock()
	d.Type("new")

	// The old timer's callback runs after it was replaced.
	d.fire("old", oldGen)

	d.mu.Lock()
	timer := d.timer
	d.mu.Unlock()
	if timer == nil {
		t.Fatal("replacement timer was forgotten")
	}
	if len(calls) != 0 {
		t.Errorf("superseded timer issued lookups %v", calls)
	}
	d.Stop()
	if timer.Stop() {
		t.Error("Stop left the replacement timer running")
	}
}

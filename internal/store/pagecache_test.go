package store

import (
	"context"
	"testing"

	"github.com/erazemk/soporte/internal/db"
)

func TestPageCacheRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	c := &PageCache{DB: database}

	payload, _, err := c.Load(ctx, "products")
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if payload != nil {
		t.Fatalf("expected nil payload, got %q", payload)
	}

	c.Save(ctx, "products", []byte(`[{"id":1}]`))
	c.Save(ctx, "products", []byte(`[{"id":2}]`))

	payload, fetchedAt, err := c.Load(ctx, "products")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(payload) != `[{"id":2}]` {
		t.Errorf("expected latest payload, got %q", payload)
	}
	if fetchedAt.IsZero() {
		t.Error("expected fetched_at to be set")
	}
}

func TestPageCacheClear(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	c := &PageCache{DB: database}

	c.Save(ctx, "users", []byte(`[]`))
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	payload, _, _ := c.Load(ctx, "users")
	if payload != nil {
		t.Error("expected cache to be empty after Clear")
	}
}

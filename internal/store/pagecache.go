package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PageCache keeps the last first-page payload of each list so a screen can
// render something while the live request is in flight.
type PageCache struct {
	DB *sql.DB
}

// Save replaces the cached payload for resource.
func (c *PageCache) Save(ctx context.Context, resource string, payload []byte) error {
	_, err := c.DB.ExecContext(ctx,
		`INSERT INTO page_cache (resource, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT (resource) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		resource, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("caching page for %s: %w", resource, err)
	}
	return nil
}

// Load returns the cached payload for resource, or nil when nothing is cached.
func (c *PageCache) Load(ctx context.Context, resource string) ([]byte, time.Time, error) {
	var payload string
	var fetchedAt time.Time
	err := c.DB.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM page_cache WHERE resource = ?`, resource,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading cached page for %s: %w", resource, err)
	}
	return []byte(payload), fetchedAt, nil
}

// Clear drops every cached page. Called on logout so the next account does
// not see the previous one's data.
func (c *PageCache) Clear(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, `DELETE FROM page_cache`); err != nil {
		return fmt.Errorf("clearing page cache: %w", err)
	}
	return nil
}

// Package resource maps the back-office collections onto the REST API:
// paginated listing, create, update and delete, all with the same envelope
// handling.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/form"
	"github.com/erazemk/soporte/internal/model"
)

// ErrUnexpectedShape is returned when a response does not have the expected
// envelope.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// Spec describes where a collection lives and how its responses are wrapped.
type Spec struct {
	// Path is the collection path, e.g. "/products".
	Path string
	// ListKey names the object the page is nested under. Empty means the
	// page is the response root.
	ListKey string
	// ItemKey names the object a saved record is returned under.
	ItemKey string
	// Query is added to every list request.
	Query url.Values
}

// Service performs CRUD operations on one collection.
type Service[T model.Record] struct {
	api  *client.Client
	spec Spec
}

// New creates a service for the collection described by spec.
func New[T model.Record](api *client.Client, spec Spec) *Service[T] {
	return &Service[T]{api: api, spec: spec}
}

// Name identifies the collection, including its list query. It is used as
// the page cache key.
func (s *Service[T]) Name() string {
	if len(s.spec.Query) == 0 {
		return s.spec.Path
	}
	return s.spec.Path + "?" + s.spec.Query.Encode()
}

// ListPage fetches one page of the collection.
func (s *Service[T]) ListPage(ctx context.Context, page int) (model.Page[T], error) {
	q := url.Values{}
	for k, v := range s.spec.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("page", strconv.Itoa(page))

	var raw json.RawMessage
	if err := s.api.Get(ctx, s.spec.Path+"/fetch?"+q.Encode(), &raw); err != nil {
		return model.Page[T]{}, fmt.Errorf("listing %s: %w", s.spec.Path, err)
	}

	var p model.Page[T]
	if err := decodeKey(raw, s.spec.ListKey, &p); err != nil {
		return model.Page[T]{}, fmt.Errorf("listing %s: %w", s.spec.Path, err)
	}
	if p.Data == nil {
		p.Data = []T{}
	}
	return p, nil
}

// Create stores a new record. The body is multipart when the payload
// carries a file and JSON otherwise.
func (s *Service[T]) Create(ctx context.Context, p form.Payload) (T, error) {
	var zero T
	var raw json.RawMessage
	if err := s.api.Do(ctx, http.MethodPost, s.spec.Path, body(p), &raw); err != nil {
		return zero, fmt.Errorf("creating %s: %w", s.spec.ItemKey, err)
	}
	return s.decodeItem(raw, "creating")
}

// Update replaces a record. The backend only accepts multipart on POST, so
// the update is sent as POST with a _method=PUT override.
func (s *Service[T]) Update(ctx context.Context, id int64, p form.Payload) (T, error) {
	var zero T
	var raw json.RawMessage
	path := s.itemPath(id)
	if err := s.api.Do(ctx, http.MethodPost, path, body(p.With("_method", http.MethodPut)), &raw); err != nil {
		return zero, fmt.Errorf("updating %s %d: %w", s.spec.ItemKey, id, err)
	}
	return s.decodeItem(raw, "updating")
}

// Delete removes a record.
func (s *Service[T]) Delete(ctx context.Context, id int64) error {
	if err := s.api.Do(ctx, http.MethodDelete, s.itemPath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting %s %d: %w", s.spec.ItemKey, id, err)
	}
	return nil
}

func (s *Service[T]) itemPath(id int64) string {
	return s.spec.Path + "/" + strconv.FormatInt(id, 10)
}

func (s *Service[T]) decodeItem(raw json.RawMessage, action string) (T, error) {
	var rec T
	if err := decodeKey(raw, s.spec.ItemKey, &rec); err != nil {
		return rec, fmt.Errorf("%s %s: %w", action, s.spec.ItemKey, err)
	}
	return rec, nil
}

func body(p form.Payload) any {
	if p.File != nil {
		return p.Multipart()
	}
	return p.JSON()
}

// decodeKey decodes raw into out, first unwrapping the object stored under
// key when key is set.
func decodeKey(raw json.RawMessage, key string, out any) error {
	if key != "" {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		inner, ok := env[key]
		if !ok || string(inner) == "null" {
			return fmt.Errorf("%w: missing %q", ErrUnexpectedShape, key)
		}
		raw = inner
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return nil
}

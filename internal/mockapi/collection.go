package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/soporte/internal/model"
)

// invalidError is a validation failure reported to the client verbatim.
type invalidError string

func (e invalidError) Error() string { return string(e) }

// collection is one in-memory resource. Records are kept newest first.
type collection[T model.Record] struct {
	name      string
	listKey   string
	itemKey   string
	fileField string
	required  []string
	numeric   map[string]bool

	// filter restricts listing, e.g. articles by transfer.
	filter func(r *http.Request, rec T) bool
	// prepare may consume form values before they are applied to base.
	prepare func(s *Server, id int64, existing T, form map[string]string, base map[string]any) error

	items []T
}

func (c *collection[T]) find(id int64) (T, bool) {
	for _, rec := range c.items {
		if rec.Identifier() == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

func (c *collection[T]) index(id int64) int {
	for i, rec := range c.items {
		if rec.Identifier() == id {
			return i
		}
	}
	return -1
}

func (c *collection[T]) insert(rec T) {
	c.items = append([]T{rec}, c.items...)
}

func (c *collection[T]) remove(id int64) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// page returns page p (1-based) of the records matching r.
func (c *collection[T]) page(r *http.Request, p, size int) map[string]any {
	var matched []T
	for _, rec := range c.items {
		if c.filter == nil || c.filter(r, rec) {
			matched = append(matched, rec)
		}
	}

	last := max(1, (len(matched)+size-1)/size)
	data := []T{}
	if start := (p - 1) * size; start < len(matched) {
		data = matched[start:min(start+size, len(matched))]
	}

	page := map[string]any{
		"data":         data,
		"current_page": p,
		"last_page":    last,
		"per_page":     size,
		"total":        len(matched),
	}
	if c.listKey != "" {
		return map[string]any{c.listKey: page}
	}
	return page
}

// build applies form values on top of existing and returns the new record.
func (c *collection[T]) build(s *Server, id int64, existing T, form map[string]string, creating bool) (T, error) {
	var zero T

	if creating {
		for _, f := range c.required {
			if form[f] == "" {
				return zero, invalidError(fmt.Sprintf("The %s field is required.", f))
			}
		}
	}

	base := make(map[string]any)
	if !creating {
		data, err := json.Marshal(existing)
		if err != nil {
			return zero, fmt.Errorf("encoding %s: %w", c.itemKey, err)
		}
		if err := json.Unmarshal(data, &base); err != nil {
			return zero, fmt.Errorf("decoding %s: %w", c.itemKey, err)
		}
	}

	if c.prepare != nil {
		if err := c.prepare(s, id, existing, form, base); err != nil {
			return zero, err
		}
	}

	for k, v := range form {
		if k == "_method" || k == "id" {
			continue
		}
		if !c.numeric[k] {
			base[k] = v
			continue
		}
		if v == "" {
			delete(base, k)
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return zero, invalidError(fmt.Sprintf("The %s field must be a number.", k))
		}
		base[k] = n
	}

	now := time.Now().UTC()
	base["id"] = id
	base["updated_at"] = now
	if creating {
		base["created_at"] = now
	}

	data, err := json.Marshal(base)
	if err != nil {
		return zero, fmt.Errorf("encoding %s: %w", c.itemKey, err)
	}
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return zero, invalidError("The given data was invalid.")
	}
	return rec, nil
}

// register mounts the fetch, create, update and delete routes of c.
func register[T model.Record](s *Server, mux *http.ServeMux, c *collection[T]) {
	prefix := "/" + c.name
	mux.Handle("GET "+prefix+"/fetch", s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || p < 1 {
			p = 1
		}
		s.mu.Lock()
		body := c.page(r, p, s.pageSize)
		s.mu.Unlock()
		jsonResponse(w, http.StatusOK, body)
	})))

	mux.Handle("POST "+prefix, s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form, up, err := readForm(r, c.fileField)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		id := s.nextID()
		if up != nil {
			form[c.fileField] = s.storeFile(c.name, id, up.Data)
		}
		var zero T
		rec, err := c.build(s, id, zero, form, true)
		if err != nil {
			jsonError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		c.insert(rec)
		jsonResponse(w, http.StatusCreated, map[string]any{c.itemKey: rec})
	})))

	mux.Handle("POST "+prefix+"/{id}", s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "Invalid id.")
			return
		}
		form, up, err := readForm(r, c.fileField)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		if form["_method"] != http.MethodPut {
			jsonError(w, http.StatusMethodNotAllowed, "The POST method is not supported for this route.")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		i := c.index(id)
		if i < 0 {
			jsonError(w, http.StatusNotFound, "Not found.")
			return
		}
		if up != nil {
			form[c.fileField] = s.storeFile(c.name, id, up.Data)
		}
		rec, err := c.build(s, id, c.items[i], form, false)
		if err != nil {
			jsonError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		c.items[i] = rec
		jsonResponse(w, http.StatusOK, map[string]any{c.itemKey: rec})
	})))

	mux.Handle("DELETE "+prefix+"/{id}", s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "Invalid id.")
			return
		}
		s.mu.Lock()
		removed := c.remove(id)
		s.mu.Unlock()
		if !removed {
			jsonError(w, http.StatusNotFound, "Not found.")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"message": "Deleted."})
	})))
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is implemented by every entity kept in a paginated collection.
// The identifier is unique within its collection.
type Record interface {
	Identifier() int64
}

// Page is one server-defined slice of a collection.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

// HasMore reports whether page next still exists on the server.
func (p Page[T]) HasMore(next int) bool {
	return next <= p.LastPage
}

// Amount is a decimal value the backend sends either as a JSON number or as
// a quoted string ("12.50").
type Amount float64

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding amount: %w", err)
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("decoding amount %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// String formats the amount without trailing zeros.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// Option is a lookup entry used to populate a dropdown.
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Identifier implements Record.
func (o Option) Identifier() int64 { return o.ID }

package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoConnection marks failures where no response was received.
var ErrNoConnection = errors.New("no connection to server")

// Kind classifies a request failure.
type Kind int

// Failure kinds.
const (
	KindNetwork Kind = iota + 1
	KindHTTP
	KindDecode
)

// Messages shown to the user.
const (
	MessageNoConnection = "Sin conexión al servidor"
	MessageFallback     = "Ocurrió un error inesperado"
)

// Error is the normalized failure of an API request.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Message != "" {
			return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
		}
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	default:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is an HTTP error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindHTTP && apiErr.Status == status
}

// UserMessage renders err for an alert: a generic no-connection text for
// network failures, the server's message verbatim when it sent one, and a
// fallback otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Kind == KindNetwork:
			return MessageNoConnection
		case apiErr.Message != "":
			return apiErr.Message
		default:
			return MessageFallback
		}
	}
	if errors.Is(err, ErrNoConnection) {
		return MessageNoConnection
	}
	return MessageFallback
}

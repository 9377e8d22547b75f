package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors matched with errors.Is.
var (
	ErrUnauthorized    = errors.New("unauthorized: backend session rejected")
	ErrForbidden       = errors.New("forbidden: backend denied access")
	ErrNotFound        = errors.New("record not found")
	ErrUnexpectedShape = errors.New("unexpected response shape")
	ErrUnavailable     = errors.New("backend unavailable")
)

// Error is a non-2xx backend response.
type Error struct {
	Endpoint string
	Status   int

	// Message is the backend's own explanation, empty when it sent none.
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: backend status %d: %s", e.Endpoint, e.Status, strings.ToLower(http.StatusText(e.Status)))
}

// Is maps status codes onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnavailable:
		return e.Status >= 500
	}
	return false
}

// ServerMessage returns the backend-provided message carried by err, if any.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// ShapeError reports a response that does not match the endpoint contract.
type ShapeError struct {
	Endpoint string
	Detail   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Endpoint, ErrUnexpectedShape, e.Detail)
}

func (e *ShapeError) Unwrap() error {
	return ErrUnexpectedShape
}

// messageFromBody pulls a human message out of an error body. Backends in
// this family use "message" (sometimes a list of validation strings) or
// "error".
func messageFromBody(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "msg"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
	}
	return ""
}

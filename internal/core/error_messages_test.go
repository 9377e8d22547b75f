package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/salvationministries/console/internal/api"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unauthorized status maps to session expired",
			err:         fmt.Errorf("all-offering: %w", &api.Error{Endpoint: "all-offering", Status: 401}),
			wantCode:    "API001",
			wantMessage: "Your session has expired",
		},
		{
			name:        "server message replaces catalog text",
			err:         &api.Error{Endpoint: "delete-sermon", Status: 404, Message: "Sermon not found"},
			wantCode:    "API003",
			wantMessage: "Sermon not found",
		},
		{
			name:        "limiter wait maps to busy",
			err:         fmt.Errorf("all-users: %w", api.ErrBackendBusy),
			wantCode:    "API004",
			wantMessage: "The server is busy",
		},
		{
			name:        "5xx maps to unavailable",
			err:         &api.Error{Endpoint: "all-users", Status: 502},
			wantCode:    "API004",
			wantMessage: "The server is unavailable",
		},
		{
			name:        "shape error maps to unexpected response",
			err:         &api.ShapeError{Endpoint: "all-faq", Detail: "expected a list"},
			wantCode:    "API005",
			wantMessage: "The server sent an unexpected response",
		},
		{
			name:        "other backend rejection uses its message",
			err:         &api.Error{Endpoint: "create-sermon", Status: 422, Message: "title already taken"},
			wantCode:    "API006",
			wantMessage: "title already taken",
		},
		{
			name:        "backend rejection without message",
			err:         &api.Error{Endpoint: "create-sermon", Status: 409},
			wantCode:    "API006",
			wantMessage: "The server rejected the request",
		},
		{
			name:        "unconfirmed delete",
			err:         fmt.Errorf("delete sliders 1: %w", ErrConfirmationRequired),
			wantCode:    "ACT001",
			wantMessage: "Delete was not confirmed",
		},
		{
			name:        "permission denied",
			err:         fmt.Errorf("modify offerings: %w", ErrPermissionDenied),
			wantCode:    "ACT002",
			wantMessage: "Your role cannot perform this action",
		},
		{
			name:        "unknown resource",
			err:         fmt.Errorf("%w: widgets", ErrUnknownResource),
			wantCode:    "TBL001",
			wantMessage: "Unknown resource",
		},
		{
			name:        "deadline exceeded",
			err:         fmt.Errorf("all-offering: %w", context.DeadlineExceeded),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "validation errors list every field",
			err:         ValidationErrors{{Field: "amount", Label: "Amount", Message: "invalid number"}, {Field: "date", Label: "Date", Message: "is required"}},
			wantCode:    "VAL002",
			wantMessage: "Amount: invalid number; Date: is required",
		},
		{
			name:        "rate limit pattern",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("dial tcp: CONNECTION REFUSED"),
			wantCode:    "API004",
			wantMessage: "The server is unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestUserMessage_HTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"API001", 401},
		{"ACT002", 403},
		{"TBL001", 404},
		{"API004", 503},
		{"API005", 502},
		{"VAL003", 400},
		{"ACT001", 400},
		{"RATE001", 429},
		{"ERR000", 500},
	}
	for _, tt := range tests {
		if got := (UserMessage{Code: tt.code}).HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestFormatUserError(t *testing.T) {
	err := fmt.Errorf("delete: %w", ErrConfirmationRequired)
	result := FormatUserError(err)

	expected := "Delete was not confirmed (Code: ACT001). Confirm the delete to continue"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  api.ErrNotFound,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

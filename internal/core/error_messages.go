package core

// # Error Codes Reference
//
// User-facing errors carry a code that staff can quote to support.
//
// # Backend Errors (API001-API099)
//
//	API001 - Session expired: the backend rejected the session (401)
//	API002 - Access denied: the backend refused the action (403)
//	API003 - Not found: the record no longer exists (404)
//	API004 - Backend unavailable: 5xx, transport failure or limiter wait exceeded
//	API005 - Unexpected response: body did not match the endpoint contract
//	API006 - Rejected: any other non-2xx, usually backend-side validation
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date
//	VAL002 - Invalid number
//	VAL003 - Required field
//	VAL004 - Invalid choice
//	VAL005 - Invalid URL
//
// # Action Errors (ACT001-ACT099)
//
//	ACT001 - Delete not confirmed
//	ACT002 - Role may not perform the action
//	ACT003 - Operation not offered for the resource
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//
// # Other
//
//	TBL001  - Unknown resource
//	RATE001 - Too many requests
//	ERR000  - Unknown error, check logs for the technical error
//
// Sentinel and typed errors are matched first with errors.Is; the remaining
// codes fall back to case-insensitive substring patterns. When the backend
// sent its own message, that message replaces the catalog text.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/salvationministries/console/internal/api"
)

// Sentinel errors returned by the service.
var (
	ErrUnknownResource      = errors.New("unknown resource")
	ErrConfirmationRequired = errors.New("delete confirmation required")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrNotSupported         = errors.New("operation not supported for resource")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// HTTPStatus suggests a response status for the message's code.
func (m UserMessage) HTTPStatus() int {
	switch {
	case m.Code == "API001":
		return 401
	case m.Code == "API002", m.Code == "ACT002":
		return 403
	case m.Code == "API003", m.Code == "TBL001":
		return 404
	case m.Code == "API004":
		return 503
	case m.Code == "API005":
		return 502
	case m.Code == "RATE001":
		return 429
	case m.Code == "REQ002":
		return 504
	case strings.HasPrefix(m.Code, "VAL"), strings.HasPrefix(m.Code, "ACT"), m.Code == "API006":
		return 400
	default:
		return 500
	}
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages is checked in order; the first errors.Is match wins.
var sentinelMessages = []sentinelMessage{
	{api.ErrUnauthorized, UserMessage{
		Message: "Your session has expired",
		Action:  "Sign in again to continue",
		Code:    "API001",
	}},
	{api.ErrForbidden, UserMessage{
		Message: "You do not have access to this action",
		Action:  "Ask an administrator to review your role",
		Code:    "API002",
	}},
	{api.ErrNotFound, UserMessage{
		Message: "The record no longer exists",
		Action:  "Refresh the list; it may have been deleted",
		Code:    "API003",
	}},
	{api.ErrBackendBusy, UserMessage{
		Message: "The server is busy",
		Action:  "Please wait a moment and try again",
		Code:    "API004",
	}},
	{api.ErrUnavailable, UserMessage{
		Message: "The server is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "API004",
	}},
	{api.ErrUnexpectedShape, UserMessage{
		Message: "The server sent an unexpected response",
		Action:  "Please try again or contact support",
		Code:    "API005",
	}},
	{ErrConfirmationRequired, UserMessage{
		Message: "Delete was not confirmed",
		Action:  "Confirm the delete to continue",
		Code:    "ACT001",
	}},
	{ErrPermissionDenied, UserMessage{
		Message: "Your role cannot perform this action",
		Action:  "Ask an administrator to review your role",
		Code:    "ACT002",
	}},
	{ErrNotSupported, UserMessage{
		Message: "This action is not available here",
		Action:  "Use the list screen for this resource",
		Code:    "ACT003",
	}},
	{ErrUnknownResource, UserMessage{
		Message: "Unknown resource",
		Action:  "Pick a screen from the navigation",
		Code:    "TBL001",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Please try again or check your connection",
		Code:    "REQ002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date",
			Action:  "Use the YYYY-MM-DD format",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number",
			Action:  "Remove currency symbols and use a plain decimal",
			Code:    "VAL002",
		},
	},
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "A required field is empty",
			Action:  "Fill in every field marked as required",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid choice",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Pick one of the offered options",
			Code:    "VAL004",
		},
	},
	{
		pattern: "invalid url",
		msg: UserMessage{
			Message: "Invalid link",
			Action:  "Use a full address starting with http:// or https://",
			Code:    "VAL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "The server is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "API004",
		},
	},
}

var rejectedMessage = UserMessage{
	Message: "The server rejected the request",
	Action:  "Check the entered values and try again",
	Code:    "API006",
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Validation errors report their first failure. A message sent by the
// backend replaces the catalog text but keeps the code.
//
// Example:
//
//	msg := MapError(fmt.Errorf("delete-slider: %w", api.ErrNotFound))
//	// msg.Code == "API003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	msg := lookup(err)
	if server := api.ServerMessage(err); server != "" {
		msg.Message = server
	}
	return msg
}

func lookup(err error) UserMessage {
	var verrs ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg := matchPattern(verrs[0].Error())
		msg.Message = verrs.Error()
		return msg
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return rejectedMessage
	}

	return matchPattern(err.Error())
}

func matchPattern(text string) UserMessage {
	text = strings.ToLower(text)
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific catalog entry rather
// than the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

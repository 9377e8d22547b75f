package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to a user message and HTTP status
//  4. Technical error + context is logged with the request ID
//  5. User message is rendered for the client (HTMX fragment, JSON or page)

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/logging"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/web/templates"
)

// errRateLimited is reported by the per-IP rate limiter.
var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and answers with its user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := logError(r, err)
	status := msg.HTTPStatus()

	if isHTMX(r) || wantsJSON(r) {
		respondUserError(w, r, msg)
		return
	}

	page := templates.PageData{Title: "Something went wrong"}
	if sess, ok := session.FromContext(r.Context()); ok {
		page.Nav = templates.NewNav(s.service.Resources(r.Context()), "", sess)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.ErrorPage(page, msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// respondJSONError logs err and answers with a JSON error regardless of
// the request's Accept header.
func respondJSONError(w http.ResponseWriter, r *http.Request, err error) {
	msg := logError(r, err)
	respondErrorJSON(w, msg, msg.HTTPStatus())
}

// logError maps err and logs the technical error with the request ID.
func logError(r *http.Request, err error) core.UserMessage {
	msg := core.MapError(err)
	status := msg.HTTPStatus()

	logger := logging.FromContext(r.Context())
	log := logger.Warn
	if status >= http.StatusInternalServerError {
		log = logger.Error
	}
	log("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)
	return msg
}

// respondUserError writes msg without a page layout.
func respondUserError(w http.ResponseWriter, r *http.Request, msg core.UserMessage) {
	status := msg.HTTPStatus()
	if wantsJSON(r) && !isHTMX(r) {
		respondErrorJSON(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

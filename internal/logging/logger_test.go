package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/salvationministries/console/internal/session"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("hello", "resource", "tithes")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json output %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["resource"] != "tithes" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	New(&buf, "warn", "text").Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info written at warn level: %q", buf.String())
	}
	New(&buf, "warn", "text").Warn("kept")
	if !strings.Contains(buf.String(), "msg=kept") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "info", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	ctx = session.WithSession(ctx, session.Session{UserID: "u-7", Role: session.RoleFinance})
	WithFields(ctx, "resource", "offerings").Info("listed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for k, want := range map[string]string{
		"request_id": "req-42",
		"user_id":    "u-7",
		"role":       "finance",
		"resource":   "offerings",
	} {
		if entry[k] != want {
			t.Errorf("%s = %v, want %q", k, entry[k], want)
		}
	}

	buf.Reset()
	FromContext(session.WithSession(context.Background(), session.Anonymous())).Info("anon")
	if strings.Contains(buf.String(), "user_id") {
		t.Errorf("anonymous session logged a user: %q", buf.String())
	}
}

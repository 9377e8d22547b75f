package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/session"
)

func TestTrustedRealIP(t *testing.T) {
	trusted := []string{"10.0.0.0/8", "127.0.0.1", "not-an-ip"}

	tests := []struct {
		name    string
		remote  string
		realIP  string
		xff     string
		wantHas string
	}{
		{"trusted proxy with X-Real-IP", "10.1.2.3:443", "203.0.113.9", "", "203.0.113.9"},
		{"trusted proxy with X-Forwarded-For", "127.0.0.1:8080", "", "203.0.113.10, 10.0.0.1", "203.0.113.10"},
		{"X-Real-IP wins", "10.1.2.3:443", "203.0.113.9", "198.51.100.1", "203.0.113.9"},
		{"untrusted client spoofing", "198.51.100.7:5000", "203.0.113.9", "", "198.51.100.7:5000"},
		{"trusted proxy without headers", "10.1.2.3:443", "", "", "10.1.2.3:443"},
		{"trusted proxy with garbage header", "10.1.2.3:443", "nonsense", "", "10.1.2.3:443"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.wantHas {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.wantHas)
			}
		})
	}
}

func TestToken(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"cookie", "abc", "", "abc"},
		{"cookie wins over header", "abc", "Bearer xyz", "abc"},
		{"bearer header", "", "Bearer xyz", "xyz"},
		{"lowercase scheme", "", "bearer xyz", "xyz"},
		{"other scheme", "", "Basic dXNlcjpwYXNz", ""},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := Token(req, "session"); got != tt.want {
				t.Errorf("Token = %q, want %q", got, tt.want)
			}
		})
	}
}

type resolverFunc func(ctx context.Context, token string) (session.Session, error)

func (f resolverFunc) CurrentUser(ctx context.Context, token string) (session.Session, error) {
	return f(ctx, token)
}

var staff = resolverFunc(func(_ context.Context, token string) (session.Session, error) {
	if token == "good" {
		return session.Session{Token: token, UserID: "u-1", Role: session.RoleMedia}, nil
	}
	return session.Anonymous(), api.ErrUnauthorized
})

func TestSession(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		required   bool
		wantStatus int
		wantUser   string
	}{
		{"valid token", "good", true, http.StatusOK, "u-1"},
		{"missing token required", "", true, http.StatusUnauthorized, ""},
		{"rejected token required", "bad", true, http.StatusUnauthorized, ""},
		{"missing token optional", "", false, http.StatusOK, ""},
		{"rejected token optional", "bad", false, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			var reached bool
			h := Session(staff, SessionOptions{Cookie: "session", Required: tt.required})(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					reached = true
					sess, ok := session.FromContext(r.Context())
					if !ok {
						t.Error("no session in context")
					}
					gotUser = sess.UserID
				}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.token})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if reached && gotUser != tt.wantUser {
				t.Errorf("user = %q, want %q", gotUser, tt.wantUser)
			}
			if reached != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler reached = %v", reached)
			}
		})
	}
}

func TestSessionOnError(t *testing.T) {
	var gotErr error
	h := Session(staff, SessionOptions{
		Cookie:   "session",
		Required: true,
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			gotErr = err
			w.WriteHeader(http.StatusTeapot)
		},
	})(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want OnError's", rec.Code)
	}
	if !errors.Is(gotErr, api.ErrUnauthorized) || !errors.Is(gotErr, errNoToken) {
		t.Errorf("err = %v", gotErr)
	}
}

func TestLoggerSeesSessionFromInnerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	inner := Session(staff, SessionOptions{Cookie: "session"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))
	h := Logger(inner)

	req := httptest.NewRequest(http.MethodPost, "/r/sermons", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "good"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"msg":     "request",
		"method":  "POST",
		"path":    "/r/sermons",
		"status":  float64(201),
		"bytes":   float64(5),
		"user_id": "u-1",
		"role":    "media",
	}
	got := make(map[string]any, len(want))
	for k := range want {
		got[k] = entry[k]
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("log entry mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := NewStatusRecorder(rec)

	sr.WriteHeader(http.StatusAccepted)
	sr.WriteHeader(http.StatusInternalServerError)
	_, _ = sr.Write([]byte("abc"))

	if sr.Status != http.StatusAccepted || rec.Code != http.StatusAccepted {
		t.Errorf("status = %d / %d, want first WriteHeader to win", sr.Status, rec.Code)
	}
	if sr.Bytes != 3 {
		t.Errorf("bytes = %d, want 3", sr.Bytes)
	}
	if NewStatusRecorder(sr) != sr {
		t.Error("rewrapping a recorder allocated a new one")
	}
	if sr.Unwrap() != rec {
		t.Error("Unwrap did not return the underlying writer")
	}
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/r/{resource}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/r/sermons", "/r/tithes", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "console_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			var route, status string
			for _, lp := range metric.GetLabel() {
				switch lp.GetName() {
				case "route":
					route = lp.GetValue()
				case "status":
					status = lp.GetValue()
				}
			}
			counts[route+" "+status] = metric.GetCounter().GetValue()
		}
	}

	want := map[string]float64{
		"/r/{resource} 200": 2,
		"unmatched 404":     1,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("request counts mismatch (-want +got):\n%s", diff)
	}
}

func TestNilHTTPMetrics(t *testing.T) {
	var m *HTTPMetrics
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent || !strings.Contains(rec.Result().Status, "204") {
		t.Errorf("status = %d", rec.Code)
	}
}

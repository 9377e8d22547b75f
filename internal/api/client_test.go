package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/salvationministries/console/internal/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		BaseURL:       srv.URL + "/api",
		SessionCookie: "sm_session",
		MaxConcurrent: 2,
		MaxWait:       time.Second,
		Metrics:       NewMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name    string
		ep      Endpoint
		params  map[string]string
		want    string
		wantErr bool
	}{
		{"static", List("/all-offering", "offerings"), nil, "https://api.test/v1/all-offering", false},
		{"param", Update("/update-sermon/:id", "sermon"), map[string]string{"id": "abc"}, "https://api.test/v1/update-sermon/abc", false},
		{"escaped", Delete("/delete-slider/:id"), map[string]string{"id": "a b/c"}, "https://api.test/v1/delete-slider/a%20b%2Fc", false},
		{"missing", Delete("/delete-slider/:id"), nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ep.URL("https://api.test/v1/", tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("URL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEndpointName(t *testing.T) {
	if got := Delete("/delete-slider/:id").Name; got != "delete-slider" {
		t.Errorf("Name = %q, want delete-slider", got)
	}
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	if _, err := NewClient(Options{BaseURL: "/api"}); err == nil {
		t.Fatal("NewClient() expected error for relative base URL")
	}
}

func TestDo_ListWithEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/all-offering" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		cookie, err := r.Cookie("sm_session")
		if err != nil || cookie.Value != "tok-1" {
			t.Errorf("session cookie = %v, %v", cookie, err)
		}
		io.WriteString(w, `{"success":true,"offerings":[{"_id":"1","amount":2500.50},{"_id":"2","amount":10}]}`)
	})

	ctx := session.WithSession(context.Background(), session.Session{Token: "tok-1", UserID: "u"})
	var out []map[string]any
	if err := c.Do(ctx, List("/all-offering", "offerings"), nil, nil, &out); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if n, ok := out[0]["amount"].(json.Number); !ok || n.String() != "2500.50" {
		t.Errorf("amount = %#v, want json.Number 2500.50", out[0]["amount"])
	}
}

func TestDo_ShapeValidation(t *testing.T) {
	tests := []struct {
		name string
		ep   Endpoint
		body string
	}{
		{"missing envelope", List("/all-offering", "offerings"), `{"data":[]}`},
		{"object instead of list", List("/all-offering", "offerings"), `{"offerings":{"_id":"1"}}`},
		{"list instead of object", Get("/current-user", "user"), `{"user":[]}`},
		{"not json", List("/all-users", ""), `<html>oops</html>`},
		{"empty body for list", List("/all-users", ""), ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			var out any
			err := c.Do(context.Background(), tt.ep, nil, nil, &out)
			if !errors.Is(err, ErrUnexpectedShape) {
				t.Fatalf("Do() error = %v, want ErrUnexpectedShape", err)
			}
		})
	}
}

func TestDo_SendsJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var got map[string]any
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if got["title"] != "Walking in Grace" {
			t.Errorf("title = %v", got["title"])
		}
		io.WriteString(w, `{"message":"updated"}`)
	})

	body := map[string]any{"title": "Walking in Grace"}
	if err := c.Do(context.Background(), Update("/update-sermon/:id", "sermon"), map[string]string{"id": "s1"}, body, nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}

func TestDo_ErrorStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		sentinel    error
		wantMessage string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Session expired"}`, ErrUnauthorized, "Session expired"},
		{"not found", http.StatusNotFound, `{"error":"No sermon with that id"}`, ErrNotFound, "No sermon with that id"},
		{"validation list", http.StatusBadRequest, `{"message":["title is required","url is invalid"]}`, nil, "title is required; url is invalid"},
		{"server error no body", http.StatusBadGateway, ``, ErrUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			err := c.Do(context.Background(), Delete("/delete-sermon/:id"), map[string]string{"id": "1"}, nil, nil)

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Do() error = %v, want *Error", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			if got := ServerMessage(err); got != tt.wantMessage {
				t.Errorf("ServerMessage() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: base})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	err = c.Do(context.Background(), List("/all-users", "users"), nil, nil, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Do() error = %v, want ErrUnavailable", err)
	}
	if c.Limiter().ActiveCount() != 0 {
		t.Errorf("limiter slot leaked: active = %d", c.Limiter().ActiveCount())
	}
}

// ============================================================================
// RequestLimiter
// ============================================================================

func TestRequestLimiter_AcquireRelease(t *testing.T) {
	l := NewRequestLimiter(2, time.Second)
	ctx := context.Background()

	if got := l.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if got := l.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if l.TryAcquire() {
		t.Error("TryAcquire succeeded on a full limiter")
	}

	l.Release()
	l.Release()
	if got := l.Status(); got.Active != 0 || got.Available != 2 || got.MaxConcurrent != 2 {
		t.Errorf("Status = %+v", got)
	}
}

func TestRequestLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewRequestLimiter(1, 50*time.Millisecond)
	if !l.TryAcquire() {
		t.Fatal("TryAcquire failed on empty limiter")
	}
	defer l.Release()

	start := time.Now()
	err := l.Acquire(context.Background())
	if !errors.Is(err, ErrBackendBusy) {
		t.Fatalf("Acquire error = %v, want ErrBackendBusy", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Acquire returned after %v, expected to wait", elapsed)
	}
}

func TestRequestLimiter_ContextCancellation(t *testing.T) {
	l := NewRequestLimiter(1, time.Minute)
	l.TryAcquire()
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire error = %v, want context.Canceled", err)
	}
}

func TestRequestLimiter_ConcurrentAccess(t *testing.T) {
	l := NewRequestLimiter(3, time.Second)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		current int
		peak    int
	)

	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			mu.Lock()
			current++
			peak = max(peak, current)
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
			l.Release()
		}()
	}
	wg.Wait()

	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestRequestLimiter_WaitForDrain(t *testing.T) {
	l := NewRequestLimiter(2, time.Second)
	l.TryAcquire()

	go func() {
		time.Sleep(30 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain error = %v", err)
	}
}

func TestRequestLimiter_Defaults(t *testing.T) {
	l := NewRequestLimiter(0, 0)
	if got := l.Status().MaxConcurrent; got != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrent)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/salvationministries/console/internal/logging"
	"github.com/salvationministries/console/internal/session"
)

// maxResponseBytes caps how much of a backend body the client will read.
const maxResponseBytes = 16 << 20

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	MaxConcurrent int
	MaxWait       time.Duration

	// SessionCookie is the cookie name the backend reads its session from.
	SessionCookie string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	Metrics    *Metrics
}

// Client performs JSON requests against the backend.
type Client struct {
	base       string
	cookieName string
	http       *http.Client
	limiter    *RequestLimiter
	metrics    *Metrics
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api: base URL %q must be an absolute http(s) URL", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	cookie := opts.SessionCookie
	if cookie == "" {
		cookie = "session"
	}

	return &Client{
		base:       opts.BaseURL,
		cookieName: cookie,
		http:       hc,
		limiter:    NewRequestLimiter(opts.MaxConcurrent, opts.MaxWait),
		metrics:    opts.Metrics,
	}, nil
}

// Limiter exposes the request limiter for health reporting and shutdown.
func (c *Client) Limiter() *RequestLimiter {
	return c.limiter
}

// Do sends body (JSON-encoded, may be nil) to ep and decodes the validated
// payload into out (may be nil). The session token in ctx, if any, is sent
// as the backend session cookie.
func (c *Client) Do(ctx context.Context, ep Endpoint, params map[string]string, body, out any) error {
	target, err := ep.URL(c.base, params)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", ep.Name, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", ep.Name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess, ok := session.FromContext(ctx); ok && sess.Token != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: sess.Token})
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return fmt.Errorf("%s: %w", ep.Name, err)
	}
	defer c.limiter.Release()

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(ep, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", ep.Name, ctxErr)
		}
		return fmt.Errorf("%s: %w: %v", ep.Name, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.observe(ep, resp.StatusCode, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", ep.Name, err)
	}

	logging.FromContext(ctx).Debug("backend request",
		"endpoint", ep.Name,
		"method", ep.Method,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Endpoint: ep.Name, Status: resp.StatusCode, Message: messageFromBody(raw)}
	}

	return decodePayload(raw, ep, out)
}

// decodePayload unwraps the envelope, checks the payload kind and decodes it.
// Numbers decode as json.Number so money keeps its exact decimal text.
func decodePayload(raw []byte, ep Endpoint, out any) error {
	raw = bytes.TrimSpace(raw)
	if out == nil && ep.Shape == ShapeAny {
		return nil
	}
	if len(raw) == 0 {
		if ep.Shape == ShapeAny {
			return nil
		}
		return &ShapeError{Endpoint: ep.Name, Detail: "empty body"}
	}

	payload := raw
	if ep.Envelope != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return &ShapeError{Endpoint: ep.Name, Detail: "body is not a JSON object"}
		}
		inner, ok := obj[ep.Envelope]
		if !ok {
			if ep.Shape == ShapeAny {
				return nil
			}
			return &ShapeError{Endpoint: ep.Name, Detail: fmt.Sprintf("missing %q key", ep.Envelope)}
		}
		payload = bytes.TrimSpace(inner)
	}

	if err := checkShape(payload, ep.Shape); err != nil {
		return &ShapeError{Endpoint: ep.Name, Detail: err.Error()}
	}
	if out == nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &ShapeError{Endpoint: ep.Name, Detail: "decode: " + err.Error()}
	}
	return nil
}

func checkShape(payload []byte, shape Shape) error {
	if len(payload) == 0 {
		return errors.New("empty payload")
	}
	switch shape {
	case ShapeList:
		if payload[0] != '[' {
			return errors.New("expected a list")
		}
	case ShapeObject:
		if payload[0] != '{' {
			return errors.New("expected an object")
		}
	}
	return nil
}

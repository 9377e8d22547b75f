package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/session"
)

// Resolver turns a backend session token into the acting user.
// Satisfied by *core.Service.
type Resolver interface {
	CurrentUser(ctx context.Context, token string) (session.Session, error)
}

// SessionOptions configures Session.
type SessionOptions struct {
	// Cookie is the name of the cookie carrying the backend session token.
	Cookie string

	// Required rejects requests whose token is missing or not accepted by
	// the backend. When false such requests continue as session.Anonymous.
	Required bool

	// OnError writes the rejection response.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// errNoToken is reported when the request carries no session token.
var errNoToken = errors.New("no session token")

// Session resolves the request's session token and stores the resulting
// session.Session in the request context.
//
// The token is read from the configured cookie, or from an
// "Authorization: Bearer" header for API clients.
func Session(res Resolver, opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := Token(r, opts.Cookie)

			var (
				sess session.Session
				err  error
			)
			if token == "" {
				err = errors.Join(api.ErrUnauthorized, errNoToken)
			} else {
				sess, err = res.CurrentUser(r.Context(), token)
			}

			if err != nil {
				if opts.Required {
					slog.Warn("session: rejected",
						"path", r.URL.Path,
						"method", r.Method,
						"remote_addr", r.RemoteAddr,
						"error", err,
					)
					if opts.OnError != nil {
						opts.OnError(w, r, err)
					} else {
						http.Error(w, "unauthorized", http.StatusUnauthorized)
					}
					return
				}
				sess = session.Anonymous()
			}

			r = r.WithContext(session.WithSession(r.Context(), sess))
			Observe(r)
			next.ServeHTTP(w, r)
		})
	}
}

// Token extracts the backend session token from r.
func Token(r *http.Request, cookie string) string {
	if cookie != "" {
		if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if scheme, tok, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	return ""
}

package web

import (
	"net"
	"net/http"

	"github.com/salvationministries/console/internal/core"
)

// clientInfo adds IP and User-Agent to the request context for audit logging.
func clientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithClientInfo(r.Context(), core.ClientInfo{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP is r.RemoteAddr without its port. TrustedRealIP has already
// replaced it with the forwarded address for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

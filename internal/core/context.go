package core

import "context"

// ClientInfo identifies where a request came from, for the audit log.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type clientInfoKey struct{}

// ContextWithClientInfo attaches the caller's address and user agent.
func ContextWithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext returns the info stored by ContextWithClientInfo.
func ClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

package somaguard

import "context"

type contextKey uint8

const (
	contextKeyClientIP contextKey = iota
)

// WithClientIP annotates ctx with the caller's remote address for audit
// events. The HTTP boundary sets this; the engine never parses it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKeyClientIP, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if ip, ok := ctx.Value(contextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

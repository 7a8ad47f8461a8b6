package protocol

import "context"

// Request metadata keys set by the transports.
const (
	MetaTransport  = "transport"
	MetaRemoteAddr = "remote_addr"
)

type requestMetaKey struct{}

// RequestMeta holds transport-level facts about a request, such as which
// transport delivered it.
type RequestMeta map[string]string

// ContextWithRequestMeta returns a new context with the request metadata attached.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the request metadata from the context, or nil.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return meta
	}
	return nil
}

// GetRequestMeta returns a single metadata value, or "" when absent.
func GetRequestMeta(ctx context.Context, key string) string {
	return RequestMetaFromContext(ctx)[key]
}

// SetRequestMeta returns a context whose metadata has key set to value. The
// metadata already attached to ctx is copied, never mutated.
func SetRequestMeta(ctx context.Context, key, value string) context.Context {
	old := RequestMetaFromContext(ctx)
	meta := make(RequestMeta, len(old)+1)
	for k, v := range old {
		meta[k] = v
	}
	meta[key] = value
	return ContextWithRequestMeta(ctx, meta)
}

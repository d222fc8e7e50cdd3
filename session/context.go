// session/context.go
package session

import "context"

type retryAttemptKey struct{}

// WithRetryAttempt marks requests made with ctx as retries. The Transport still attaches the
// credential but will not refresh-and-retry them on 401.
func WithRetryAttempt(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryAttemptKey{}, true)
}

// IsRetryAttempt reports whether ctx carries the retry marker.
func IsRetryAttempt(ctx context.Context) bool {
	v, _ := ctx.Value(retryAttemptKey{}).(bool)
	return v
}

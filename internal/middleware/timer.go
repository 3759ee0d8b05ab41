package middleware

import (
	"context"
	"net/http"
	"time"
)

const requestStartContextKey contextKey = "request_start"

// RequestTimer records when the request entered the stack so handlers can
// attach the _meta.responseTime diagnostic.
func RequestTimer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), requestStartContextKey, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestStartFromContext(ctx context.Context) (time.Time, bool) {
	start, ok := ctx.Value(requestStartContextKey).(time.Time)
	return start, ok
}

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("panic", fmt.Sprintf("%v", recovered))
					scope.SetExtra("path", r.URL.Path)
					sentry.CaptureMessage("panic in request")
				})

				slog.Error("panic recovered", "error", fmt.Sprintf("%v", recovered), "stack", string(debug.Stack()))
				writeJSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error", "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

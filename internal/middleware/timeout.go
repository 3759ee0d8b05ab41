package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"
)

type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// Timeout cuts off handlers that exceed the configured deadline. Auth
// handlers block on bcrypt and the database, so a stuck pool surfaces
// here instead of hanging the client. The handler runs against a buffered
// writer; a late response is discarded rather than racing the timeout body.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			buffered := &bufferedResponse{header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
						return
					}
					close(done)
				}()
				next.ServeHTTP(buffered, r)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
				headers := w.Header()
				for key, values := range buffered.header {
					headers[key] = values
				}
				if buffered.status == 0 {
					buffered.status = http.StatusOK
				}
				w.WriteHeader(buffered.status)
				_, _ = w.Write(buffered.body.Bytes())
			case <-ctx.Done():
				writeJSONError(w, r, http.StatusServiceUnavailable, "REQUEST_TIMEOUT",
					"the request took too long to complete", "")
			}
		})
	}
}

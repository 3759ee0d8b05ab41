package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ssi-studios/auth-service/internal/model"
)

// responseMeta mirrors the _meta block handlers attach, so rejections
// issued from the middleware chain carry the same diagnostics.
func responseMeta(r *http.Request) *model.Meta {
	start, ok := RequestStartFromContext(r.Context())
	if !ok {
		return nil
	}
	return &model.Meta{ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: responseMeta(r),
	})
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ssi-studios/auth-service/internal/middleware"
	"github.com/ssi-studios/auth-service/internal/model"
	"github.com/ssi-studios/auth-service/pkg/apierror"
)

// production gates how much detail unclassified errors leak to clients.
var production bool

func SetProduction(enabled bool) {
	production = enabled
}

func responseMeta(r *http.Request) *model.Meta {
	start, ok := middleware.RequestStartFromContext(r.Context())
	if !ok {
		return nil
	}
	return &model.Meta{ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}
}

func writeSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    responseMeta(r),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		body.Violations = apiErr.Violations
	case errors.Is(err, model.ErrAccountExists):
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "An account with this email or username already exists"
	case errors.Is(err, model.ErrInvalidCredentials):
		// The same message whether the account is missing or the secret
		// mismatched, so callers cannot enumerate accounts.
		status = http.StatusUnauthorized
		body.Code = "INVALID_CREDENTIALS"
		body.Message = "Invalid credentials"
	case errors.Is(err, model.ErrAccountLocked):
		// Deliberately omits the unlock time.
		status = http.StatusLocked
		body.Code = "ACCOUNT_LOCKED"
		body.Message = "Account temporarily locked due to repeated failed logins"
	case errors.Is(err, model.ErrStaleToken):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Stale token, re-authenticate"
	case errors.Is(err, model.ErrInvalidToken), errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid or expired token"
	case errors.Is(err, model.ErrAccountNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Account not found"
	case errors.Is(err, model.ErrSessionNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Session not found"
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	default:
		// Unclassified errors get full detail server-side and a generic
		// message to the client in production.
		slog.Error("unhandled error in writeError", "error", err.Error())
		sentry.CaptureException(err)
		if !production {
			body.Details = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
		Meta:    responseMeta(r),
	})
}

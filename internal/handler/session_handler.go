package handler

import (
	"net/http"
	"strings"

	"github.com/ssi-studios/auth-service/internal/middleware"
	"github.com/ssi-studios/auth-service/internal/model"
	"github.com/ssi-studios/auth-service/internal/service"
	"github.com/ssi-studios/auth-service/pkg/apierror"
)

type SessionHandler struct {
	service       *service.AuthService
	secureCookies bool
}

func NewSessionHandler(service *service.AuthService, secureCookies bool) *SessionHandler {
	return &SessionHandler{service: service, secureCookies: secureCookies}
}

// List returns the caller's active sessions. The response does not mark
// which one is "current"; the client infers it from device and activity.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrUnauthorized)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, r, http.StatusOK, model.SessionListResponse{Sessions: sessions})
}

// Revoke removes one session by id, or every session with ?all=true. The
// all=true path also clears the caller's cookies, since its own session is
// necessarily among those revoked.
func (h *SessionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrUnauthorized)
		return
	}

	query := r.URL.Query()
	sessionID := strings.TrimSpace(query.Get("sessionId"))
	all := strings.EqualFold(strings.TrimSpace(query.Get("all")), "true")

	switch {
	case all:
		if err := h.service.RevokeAllSessions(r.Context(), claims.UserID); err != nil {
			writeError(w, r, err)
			return
		}
		clearAuthCookies(w, h.secureCookies)
		writeSuccess(w, r, http.StatusOK, map[string]any{"revoked": "all"})

	case sessionID != "":
		if err := h.service.RevokeSession(r.Context(), claims.UserID, sessionID); err != nil {
			writeError(w, r, err)
			return
		}
		writeSuccess(w, r, http.StatusOK, map[string]any{"revoked": sessionID})

	default:
		writeError(w, r, apierror.New("BAD_REQUEST", "sessionId or all=true is required", "", http.StatusBadRequest))
	}
}

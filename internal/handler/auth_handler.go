package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ssi-studios/auth-service/internal/middleware"
	"github.com/ssi-studios/auth-service/internal/model"
	"github.com/ssi-studios/auth-service/internal/service"
	"github.com/ssi-studios/auth-service/internal/util"
	"github.com/ssi-studios/auth-service/pkg/apierror"
)

type AuthHandler struct {
	service       *service.AuthService
	secureCookies bool
}

func NewAuthHandler(service *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookies: secureCookies}
}

func clientInfo(r *http.Request) service.ClientInfo {
	return service.ClientInfo{
		Device:    util.DeviceDescriptor(r.UserAgent()),
		IPAddress: middleware.ExtractClientIP(r),
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	result, err := h.service.Signup(r.Context(), payload, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	setAuthCookies(w, result.AccessToken, result.RefreshToken, result.Extended, h.secureCookies)
	writeSuccess(w, r, http.StatusCreated, model.AuthResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	result, err := h.service.Login(r.Context(), payload, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	setAuthCookies(w, result.AccessToken, result.RefreshToken, result.Extended, h.secureCookies)
	writeSuccess(w, r, http.StatusOK, model.AuthResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
	})
}

// Refresh reads the refresh token from its cookie only, never from a
// header, and mints a fresh access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		writeError(w, r, model.ErrUnauthorized)
		return
	}

	result, err := h.service.Refresh(r.Context(), strings.TrimSpace(cookie.Value), clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	setAccessCookie(w, result.AccessToken, result.Extended, h.secureCookies)
	writeSuccess(w, r, http.StatusOK, model.RefreshResponse{AccessToken: result.AccessToken})
}

// Logout clears both credential cookies. It never fails visibly: clearing
// credentials the client no longer has is a safe no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookies(w, h.secureCookies)
	writeSuccess(w, r, http.StatusOK, map[string]any{"logged_out": true})
}

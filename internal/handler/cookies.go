package handler

import (
	"net/http"

	"github.com/ssi-studios/auth-service/internal/token"
)

const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

func authCookie(name string, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func setAuthCookies(w http.ResponseWriter, accessToken string, refreshToken string, extended bool, secure bool) {
	accessMaxAge := int(token.AccessValidity(extended).Seconds())
	refreshMaxAge := int(token.RefreshValidity(extended).Seconds())

	http.SetCookie(w, authCookie(accessCookieName, accessToken, accessMaxAge, secure))
	http.SetCookie(w, authCookie(refreshCookieName, refreshToken, refreshMaxAge, secure))
}

func setAccessCookie(w http.ResponseWriter, accessToken string, extended bool, secure bool) {
	maxAge := int(token.AccessValidity(extended).Seconds())
	http.SetCookie(w, authCookie(accessCookieName, accessToken, maxAge, secure))
}

// clearAuthCookies expires both credential cookies immediately. Safe to
// call whether or not the client still holds valid tokens.
func clearAuthCookies(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, authCookie(accessCookieName, "", -1, secure))
	http.SetCookie(w, authCookie(refreshCookieName, "", -1, secure))
}

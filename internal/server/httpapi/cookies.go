package httpapi

import (
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/server/services"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// setAuthCookies attaches both bearer tokens as HTTP-only, secure cookies.
func setAuthCookies(w http.ResponseWriter, pair services.TokenPair) {
	setTokenCookie(w, accessTokenCookie, pair.AccessToken)
	setTokenCookie(w, refreshTokenCookie, pair.RefreshToken)
}

// clearAuthCookies expires both token cookies.
func clearAuthCookies(w http.ResponseWriter) {
	expireCookie(w, accessTokenCookie)
	expireCookie(w, refreshTokenCookie)
}

func setTokenCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func expireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

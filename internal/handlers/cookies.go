package handlers

import (
	"net/http"
	"time"

	"github.com/sbilibin2017/gw-user-account/internal/jwt"
	"github.com/sbilibin2017/gw-user-account/internal/models"
)

// CookieOptions controls the auth cookies set on login and refresh.
type CookieOptions struct {
	Secure        bool
	Domain        string
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

func (o CookieOptions) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   o.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func setAuthCookies(w http.ResponseWriter, opts CookieOptions, pair *models.TokenPair) {
	http.SetCookie(w, opts.cookie(jwt.AccessTokenCookie, pair.AccessToken, opts.AccessMaxAge))
	http.SetCookie(w, opts.cookie(jwt.RefreshTokenCookie, pair.RefreshToken, opts.RefreshMaxAge))
}

func clearAuthCookies(w http.ResponseWriter, opts CookieOptions) {
	for _, name := range []string{jwt.AccessTokenCookie, jwt.RefreshTokenCookie} {
		c := opts.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

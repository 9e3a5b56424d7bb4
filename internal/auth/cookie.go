package auth

import (
	"net/http"
	"time"
)

// CookieWriter sets and clears the session cookie.
//
// The web client lives on another origin, so a secure cookie is sent with
// SameSite=None. With Secure off (local HTTP development) browsers refuse
// SameSite=None, so Lax is used instead.
type CookieWriter struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (c CookieWriter) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Set writes token as an HttpOnly cookie valid for MaxAge.
func (c CookieWriter) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	})
}

// Clear expires the cookie on the client.
func (c CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	})
}

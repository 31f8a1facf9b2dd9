// Package session stores the backend-issued bearer token in an HTTP-only
// cookie. The token is opaque to this layer: it is never parsed, refreshed,
// or expired here. Lifetime is governed by the cookie and by the backend's
// own token validity.
package session

import "net/http"

// DefaultCookieName matches the cookie the admin console has always used.
const DefaultCookieName = "access_token"

// Store reads and writes the session cookie.
type Store struct {
	name   string
	secure bool
}

// New creates a cookie store. An empty name falls back to DefaultCookieName.
// secure controls the cookie's Secure attribute and should be true whenever
// the gateway is served over HTTPS.
func New(name string, secure bool) *Store {
	if name == "" {
		name = DefaultCookieName
	}
	return &Store{name: name, secure: secure}
}

// Token returns the session token from the request cookie jar, or the empty
// string when the caller is not authenticated.
func (s *Store) Token(r *http.Request) string {
	c, err := r.Cookie(s.name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Set writes the session cookie on login success.
func (s *Store) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
	})
}

// Clear deletes the session cookie immediately (empty value, Max-Age=0).
func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
		MaxAge:   -1,
	})
}

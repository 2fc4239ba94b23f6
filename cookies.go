package goGate

import (
	"net/http"
	"time"
)

// CookieConfig returns the cookie settings of e.
func (e *Engine) CookieConfig() CookieConfig {
	return e.config.Cookie
}

// AccessCredential returns the access cookie value of r, or "".
func (e *Engine) AccessCredential(r *http.Request) string {
	return cookieValue(r, e.config.Cookie.AccessName)
}

// RefreshCredential returns the refresh cookie value of r, or "".
func (e *Engine) RefreshCredential(r *http.Request) string {
	return cookieValue(r, e.config.Cookie.RefreshName)
}

// NewAccessCookie builds the access cookie for value with the configured attributes.
func (e *Engine) NewAccessCookie(value string) *http.Cookie {
	return e.newCookie(e.config.Cookie.AccessName, value, e.config.JWT.AccessTTL)
}

// NewRefreshCookie builds the refresh cookie for value with the configured attributes.
func (e *Engine) NewRefreshCookie(value string) *http.Cookie {
	return e.newCookie(e.config.Cookie.RefreshName, value, e.config.JWT.RefreshTTL)
}

func (e *Engine) newCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     e.config.Cookie.Path,
		Domain:   e.config.Cookie.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   e.config.Cookie.Secure,
		SameSite: e.config.Cookie.SameSite,
	}
}

func (e *Engine) setCredentialCookies(w http.ResponseWriter, pair TokenPair) {
	if w == nil {
		return
	}
	http.SetCookie(w, e.NewAccessCookie(pair.Access))
	http.SetCookie(w, e.NewRefreshCookie(pair.Refresh))
}

func (e *Engine) clearCredentialCookies(w http.ResponseWriter) {
	if w == nil {
		return
	}
	for _, name := range []string{e.config.Cookie.AccessName, e.config.Cookie.RefreshName} {
		c := e.newCookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func cookieValue(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

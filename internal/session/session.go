// Package session reads and writes the cookie that carries the bearer token.
package session

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// MaxAge is how long a login cookie lives.
	MaxAge = 7 * 24 * time.Hour
	// DefaultCookieName names the session cookie when none is configured.
	DefaultCookieName = "token"
)

// CredentialAccessor returns the current session token, or "" when there is none.
// Absence of a token is not an error; the backend may still accept the request
// through the session cookie.
type CredentialAccessor interface {
	Token() string
}

// TokenFunc adapts a function to CredentialAccessor.
type TokenFunc func() string

// Token implements CredentialAccessor.
func (f TokenFunc) Token() string {
	if f == nil {
		return ""
	}
	return f()
}

// Static is a fixed token.
type Static string

// Token implements CredentialAccessor.
func (s Static) Token() string { return string(s) }

// CookieAccessor reads the named cookie for URL from a cookie jar.
type CookieAccessor struct {
	Jar  http.CookieJar
	URL  *url.URL
	Name string
}

// Token implements CredentialAccessor. A nil jar or URL yields "".
func (a CookieAccessor) Token() string {
	if a.Jar == nil || a.URL == nil {
		return ""
	}
	for _, c := range a.Jar.Cookies(a.URL) {
		if c.Name == a.Name {
			return c.Value
		}
	}
	return ""
}

// RequestAccessor reads the named cookie from an incoming request.
func RequestAccessor(r *http.Request, name string) CredentialAccessor {
	return TokenFunc(func() string {
		if r == nil {
			return ""
		}
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	})
}

// AuthHeader returns the Authorization header value for acc, or "".
func AuthHeader(acc CredentialAccessor) string {
	if acc == nil {
		return ""
	}
	token := strings.TrimSpace(acc.Token())
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// NewCookie builds the login cookie. Secure is only set when the request came
// over HTTPS so that plain-HTTP local development keeps working.
func NewCookie(name, token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(MaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// ClearCookie builds a cookie that removes the session (Max-Age=0 on the wire).
func ClearCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	}
}

// IsSecureRequest reports whether r arrived over HTTPS, directly or through a proxy.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

package session

import (
	"time"

	"github.com/goliatone/go-router"
)

// Cookie names are fixed and case-sensitive; clients and middleware match
// on them exactly.
const (
	// SessionCookieName holds the long-lived session artifact.
	SessionCookieName = "_session_cookie"
	// TokenCookieName holds the short-lived raw identity token fallback.
	TokenCookieName = "_session_token"
	// CSRFCookieName holds the double-submit CSRF token. Never HttpOnly:
	// client script must read it to echo it back.
	CSRFCookieName = "__session_terncf"
	// LegacySessionCookieName is the generic cookie some hosting layers
	// set; ClearSession removes it as well.
	LegacySessionCookieName = "session"
)

// CookieJar abstracts the request/response cookie surface so the protocol
// can confirm writes and tests can simulate stores that drop them.
type CookieJar interface {
	Get(name string) string
	Set(cookie *router.Cookie)
	Delete(name string)
}

// RouterCookieJar adapts a router.Context. Values written during the
// request are kept in an overlay so a confirmation read observes them even
// though they only exist as Set-Cookie headers on the response.
type RouterCookieJar struct {
	ctx     router.Context
	overlay map[string]string
}

var _ CookieJar = (*RouterCookieJar)(nil)

func NewRouterCookieJar(ctx router.Context) *RouterCookieJar {
	return &RouterCookieJar{
		ctx:     ctx,
		overlay: map[string]string{},
	}
}

func (j *RouterCookieJar) Get(name string) string {
	if val, ok := j.overlay[name]; ok {
		return val
	}
	return j.ctx.Cookies(name)
}

func (j *RouterCookieJar) Set(cookie *router.Cookie) {
	j.ctx.Cookie(cookie)
	j.overlay[cookie.Name] = cookie.Value
}

func (j *RouterCookieJar) Delete(name string) {
	j.ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})
	j.overlay[name] = ""
}

func sessionCookie(cfg Config, value string, duration time.Duration) *router.Cookie {
	return &router.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   cfg.GetCookieDomain(),
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   cfg.GetCookieSecure(),
		SameSite: "Strict",
	}
}

func csrfCookie(cfg Config, value string, duration time.Duration) *router.Cookie {
	return &router.Cookie{
		Name:    CSRFCookieName,
		Value:   value,
		Path:    "/",
		Domain:  cfg.GetCookieDomain(),
		Expires: time.Now().Add(duration),
		// Readable by client script on purpose (double-submit pattern).
		HTTPOnly: false,
		Secure:   cfg.GetCookieSecure(),
		SameSite: cfg.GetCookieSameSite(),
	}
}

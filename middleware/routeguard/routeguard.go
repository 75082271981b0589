// Package routeguard redirects obviously anonymous traffic away from
// protected routes. It checks only for the presence of session cookies,
// never signatures, keeping the hot path cheap; deeper verification
// belongs to downstream handlers (see middleware/sessionware).
package routeguard

import (
	"log"
	"net/http"
	"net/url"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session"
)

// DefaultRedirectParam is the query parameter carrying the originally
// requested path through the sign-in redirect.
const DefaultRedirectParam = "redirect"

// Config defines the configuration for the route protection middleware.
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(router.Context) bool

	// SignInPath is where unauthenticated requests are sent
	SignInPath string

	// RedirectParam names the query parameter preserving the original path
	RedirectParam string

	// PublicPaths lists glob-like patterns exempt from gating
	PublicPaths []string

	// CookieNames are the session-indicating cookies checked for presence
	CookieNames []string
}

// New creates the route protection middleware.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := configDefault(config...)
		matcher := NewMatcher(cfg.PublicPaths)

		return func(ctx router.Context) (err error) {
			// Fail closed: an internal fault during matching or redirect
			// construction degrades to a sign-in redirect, never to
			// protected content or a raw error in the browser.
			defer func() {
				if r := recover(); r != nil {
					log.Printf("routeguard: recovered from %v, redirecting to sign-in", r)
					err = ctx.Redirect(cfg.SignInPath, http.StatusFound)
				}
			}()

			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			path := ctx.Path()

			// The sign-in page must never redirect to itself.
			if path == cfg.SignInPath {
				return ctx.Next()
			}

			if matcher.Match(path) {
				return ctx.Next()
			}

			for _, name := range cfg.CookieNames {
				if ctx.Cookies(name) != "" {
					return ctx.Next()
				}
			}

			target := cfg.SignInPath + "?" + cfg.RedirectParam + "=" + url.QueryEscape(path)

			status := http.StatusSeeOther
			if ctx.Method() == "GET" {
				status = http.StatusFound
			}
			return ctx.Redirect(target, status)
		}
	}
}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SignInPath == "" {
		cfg.SignInPath = session.DefaultSignInPath
	}

	if cfg.RedirectParam == "" {
		cfg.RedirectParam = DefaultRedirectParam
	}

	if cfg.CookieNames == nil {
		cfg.CookieNames = []string{
			session.SessionCookieName,
			session.TokenCookieName,
		}
	}

	return cfg
}

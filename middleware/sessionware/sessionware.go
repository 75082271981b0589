// Package sessionware performs the per-request session verification that
// routeguard deliberately skips: it runs the resolution chain against the
// incoming cookies and exposes the verified user to handlers.
package sessionware

import (
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session"
)

// DefaultContextKey is where the resolved user lands in request locals.
const DefaultContextKey = "auth_user"

// Config defines the configuration for the session verification
// middleware.
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(router.Context) bool

	// Resolver runs the session resolution chain. Required.
	Resolver *session.Resolver

	// ContextKey is the locals key for the resolved user
	ContextKey string

	// Optional lets unauthenticated requests continue without error
	Optional bool

	// ErrorHandler handles unauthenticated requests when not Optional
	ErrorHandler router.ErrorHandler

	// SuccessHandler runs after a successful resolution
	SuccessHandler router.HandlerFunc
}

// New creates the session verification middleware. A missing Resolver is
// a programmer error.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := configDefault(config...)

		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			jar := session.NewRouterCookieJar(ctx)
			resolution := cfg.Resolver.Resolve(ctx.Context(), jar)

			if !resolution.IsAuthenticated {
				if cfg.Optional {
					return ctx.Next()
				}
				return cfg.ErrorHandler(ctx, session.ErrNoValidSession)
			}

			ctx.Locals(cfg.ContextKey, resolution.User)
			ctx.SetContext(session.WithUserContext(ctx.Context(), resolution.User))

			return cfg.SuccessHandler(ctx)
		}
	}
}

// User extracts the resolved user stored by the middleware.
func User(ctx router.Context, key ...string) (*session.ResolvedUser, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}

	raw := ctx.Locals(k)
	if raw == nil {
		return nil, false
	}

	user, ok := raw.(*session.ResolvedUser)
	return user, ok
}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolver == nil {
		panic("SESSION: sessionware configuration requires a Resolver.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return ctx.Status(router.StatusUnauthorized).SendString("Unauthorized")
		}
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	return cfg
}

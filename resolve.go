package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ResolvedUser is the verified identity produced by the resolution chain.
type ResolvedUser struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	AuthTime      time.Time `json:"auth_time,omitempty"`
}

// Resolution is the outcome of a resolution attempt. An unauthenticated
// result is a normal outcome, not a fault; Error then carries the
// human-readable reason.
type Resolution struct {
	IsAuthenticated bool          `json:"isAuthenticated"`
	User            *ResolvedUser `json:"user"`
	Error           string        `json:"error,omitempty"`
}

// Resolver derives a verified user from the incoming cookie jar: session
// cookie first (with revocation check), then the short-lived raw identity
// token (without). Callers are expected to cache per-request; the optional
// Store only spans the process, keyed by artifact digest.
type Resolver struct {
	provider IdentityProvider
	cache    Store
	cacheTTL time.Duration
	logger   Logger
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithResolverCache installs a verified-claims cache. The store is always
// injected explicitly; there is no package-level fallback.
func WithResolverCache(store Store, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = store
		if ttl > 0 {
			r.cacheTTL = ttl
		}
	}
}

// WithResolverLogger overrides the default logger.
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver wires the chain. A nil provider is a programmer error.
func NewResolver(provider IdentityProvider, opts ...ResolverOption) *Resolver {
	if provider == nil {
		panic("session: Resolver requires an IdentityProvider")
	}

	r := &Resolver{
		provider: provider,
		cacheTTL: 5 * time.Minute,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve tries each credential in order and stops at the first success.
func (r *Resolver) Resolve(ctx context.Context, jar CookieJar) Resolution {
	if artifact := jar.Get(SessionCookieName); artifact != "" {
		if user, ok := r.fromCache(artifact); ok {
			return Resolution{IsAuthenticated: true, User: user}
		}

		claims, err := r.provider.VerifySessionArtifact(ctx, artifact, true)
		if err == nil {
			user := userFromClaims(claims)
			r.toCache(artifact, user)
			return Resolution{IsAuthenticated: true, User: user}
		}
		r.logger.Debug("session cookie verification failed", "error", err)
	}

	if raw := jar.Get(TokenCookieName); raw != "" {
		claims, err := r.provider.VerifyIdentityToken(ctx, raw)
		if err == nil {
			return Resolution{IsAuthenticated: true, User: userFromClaims(claims)}
		}
		r.logger.Debug("raw token verification failed", "error", err)
	}

	return Resolution{
		IsAuthenticated: false,
		User:            nil,
		Error:           ErrNoValidSession.Message,
	}
}

func userFromClaims(claims *IdentityClaims) *ResolvedUser {
	return &ResolvedUser{
		UID:           claims.UID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		AuthTime:      claims.AuthTime,
	}
}

func (r *Resolver) fromCache(artifact string) (*ResolvedUser, bool) {
	if r.cache == nil {
		return nil, false
	}

	raw, err := r.cache.Get(cacheKey(artifact))
	if err != nil || raw == "" {
		return nil, false
	}

	user := &ResolvedUser{}
	if err := json.Unmarshal([]byte(raw), user); err != nil {
		return nil, false
	}

	return user, true
}

func (r *Resolver) toCache(artifact string, user *ResolvedUser) {
	if r.cache == nil {
		return
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return
	}

	if err := r.cache.Set(cacheKey(artifact), string(raw), r.cacheTTL); err != nil {
		r.logger.Warn("resolver cache write failed", "error", err)
	}
}

func cacheKey(artifact string) string {
	sum := sha256.Sum256([]byte(artifact))
	return "session_resolve_" + hex.EncodeToString(sum[:])
}

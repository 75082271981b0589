package session

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface used across the package.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityClaims is the verified payload extracted from an identity token
// or a session artifact.
type IdentityClaims struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	AuthTime      time.Time `json:"auth_time,omitempty"`
	IssuedAt      time.Time `json:"issued_at,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// ArtifactOptions controls session artifact minting.
type ArtifactOptions struct {
	ExpiresIn time.Duration
}

// IdentityProvider is the upstream service that verifies identity tokens
// and mints/verifies the long-lived session artifacts. Token cryptography
// is a black box behind this interface.
type IdentityProvider interface {
	VerifyIdentityToken(ctx context.Context, token string) (*IdentityClaims, error)
	CreateSessionArtifact(ctx context.Context, token string, opts ArtifactOptions) (string, error)
	VerifySessionArtifact(ctx context.Context, artifact string, checkRevoked bool) (*IdentityClaims, error)
	RevokeSessionsFor(ctx context.Context, uid string) error
}

// TokenSource fetches a fresh identity token for the current user.
type TokenSource func(ctx context.Context) (string, error)

// ProviderUser is the payload of a "current user changed" event.
type ProviderUser struct {
	UID           string
	Email         string
	EmailVerified bool
	TokenSource   TokenSource
}

// UserEventSource is the provider's long-lived user-change stream.
type UserEventSource interface {
	OnCurrentUserChanged(fn func(user *ProviderUser)) (unsubscribe func())
}

// Config holds session layer options.
type Config interface {
	GetSessionDuration() time.Duration
	GetCSRFDuration() time.Duration
	GetCookieDomain() string
	GetCookieSecure() bool
	GetCookieSameSite() string
	GetSignInPath() string
	GetPublicPaths() []string
	GetRequireVerification() bool
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

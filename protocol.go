package session

import (
	"context"
)

// SessionResult is the structured, non-throwing outcome of both protocol
// operations. Error carries a taxonomy text code when Success is false.
type SessionResult struct {
	Success   bool   `json:"success"`
	CookieSet bool   `json:"cookieSet,omitempty"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Protocol implements session cookie issuance, verification confirmation,
// and revocation against an identity provider. Both operations are
// stateless per-request pure functions over the cookie jar plus provider
// calls, and are safe for the caller to retry.
type Protocol struct {
	provider IdentityProvider
	csrf     *CSRFManager
	cfg      Config
	logger   Logger
}

// ProtocolOption customizes a Protocol.
type ProtocolOption func(*Protocol)

// WithProtocolLogger overrides the default logger.
func WithProtocolLogger(logger Logger) ProtocolOption {
	return func(p *Protocol) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProtocolCSRFManager replaces the CSRF manager, e.g. to share one
// instance with the HTTP controller.
func WithProtocolCSRFManager(m *CSRFManager) ProtocolOption {
	return func(p *Protocol) {
		if m != nil {
			p.csrf = m
		}
	}
}

// NewProtocol wires the protocol. A nil provider or config is a
// programmer error and panics at construction.
func NewProtocol(provider IdentityProvider, cfg Config, opts ...ProtocolOption) *Protocol {
	if provider == nil {
		panic("session: Protocol requires an IdentityProvider")
	}
	if cfg == nil {
		panic("session: Protocol requires a Config")
	}

	p := &Protocol{
		provider: provider,
		cfg:      cfg,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.csrf == nil {
		p.csrf = NewCSRFManager(cfg)
	}

	return p
}

// CreateSession exchanges a verified identity token for a session cookie.
// CSRF and shape checks run before any provider call; provider failures
// are normalized and returned as a failed result, never raised.
func (p *Protocol) CreateSession(ctx context.Context, jar CookieJar, idToken, csrfPresented string) SessionResult {
	if csrfPresented == "" {
		return failResult(ErrInvalidCSRFToken)
	}

	if jar.Get(CSRFCookieName) == "" {
		return failResult(ErrCSRFCookieMissing)
	}

	if !p.csrf.Validate(jar, csrfPresented) {
		return failResult(ErrCSRFTokenMismatch)
	}

	if idToken == "" {
		return failResult(ErrInvalidToken)
	}

	claims, err := p.provider.VerifyIdentityToken(ctx, idToken)
	if err != nil {
		normalized := NormalizeProviderError(err)
		p.logger.Info("session create rejected", "code", normalized.TextCode, "error", normalized.Message)
		return failResult(normalized)
	}

	duration := p.cfg.GetSessionDuration()
	artifact, err := p.provider.CreateSessionArtifact(ctx, idToken, ArtifactOptions{ExpiresIn: duration})
	if err != nil {
		normalized := NormalizeProviderError(err)
		p.logger.Error("session artifact mint failed", "uid", claims.UID, "error", normalized.Message)
		return failResult(normalized)
	}

	jar.Set(sessionCookie(p.cfg, artifact, duration))

	// Confirm the write actually persisted; some environments silently
	// drop Set-Cookie. A minted artifact without a stored cookie is not a
	// working session.
	if jar.Get(SessionCookieName) != artifact {
		p.logger.Error("session cookie write not confirmed", "uid", claims.UID)
		return failResult(ErrCookieSetFailed)
	}

	p.logger.Debug("session created", "uid", claims.UID, "expires_in", duration)

	return SessionResult{
		Success:   true,
		CookieSet: true,
		ExpiresIn: int64(duration.Seconds()),
	}
}

// ClearSession deletes every session-indicating cookie and, best effort,
// revokes the subject's refresh tokens upstream. Revocation failure does
// not flip the result: locally cleared cookies are the user-visible
// guarantee.
func (p *Protocol) ClearSession(ctx context.Context, jar CookieJar) SessionResult {
	prior := jar.Get(SessionCookieName)

	jar.Delete(SessionCookieName)
	jar.Delete(TokenCookieName)
	jar.Delete(LegacySessionCookieName)

	if prior != "" {
		claims, err := p.provider.VerifySessionArtifact(ctx, prior, false)
		if err != nil {
			p.logger.Warn("clear session could not recover subject", "error", err)
		} else if err := p.provider.RevokeSessionsFor(ctx, claims.UID); err != nil {
			p.logger.Warn("upstream revocation failed", "uid", claims.UID, "error", err)
		} else {
			p.logger.Debug("sessions revoked", "uid", claims.UID)
		}
	}

	return SessionResult{Success: true}
}

func failResult(err error) SessionResult {
	return SessionResult{
		Success: false,
		Error:   TextCode(err),
		Message: err.Error(),
	}
}

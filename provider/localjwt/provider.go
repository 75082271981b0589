package localjwt

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-session"
	"github.com/google/uuid"
)

// RevocationStore persists a revoked-at watermark per subject. RevokedAt
// returns the zero time for subjects that were never revoked.
type RevocationStore interface {
	Revoke(ctx context.Context, uid string, at time.Time) error
	RevokedAt(ctx context.Context, uid string) (time.Time, error)
}

// ErrRevocationStoreMissing is returned by RevokeSessionsFor when no
// store was configured.
var ErrRevocationStoreMissing = errors.New("revocation store not configured", errors.Category("config"))

// Provider implements session.IdentityProvider with local JWT crypto.
type Provider struct {
	cfg         Config
	identityKey jwt.Keyfunc
	sessionKey  []byte
	revocations RevocationStore
	logger      session.Logger
	now         func() time.Time
}

var _ session.IdentityProvider = (*Provider)(nil)

// Option customizes a Provider.
type Option func(*Provider)

// WithRevocationStore enables revocation checks and RevokeSessionsFor.
func WithRevocationStore(store RevocationStore) Option {
	return func(p *Provider) {
		p.revocations = store
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger session.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		if clock != nil {
			p.now = clock
		}
	}
}

// New builds a provider. Missing key material is a configuration error.
func New(cfg Config, opts ...Option) (*Provider, error) {
	if len(cfg.SigningKey) == 0 && cfg.JWKSURL == "" {
		return nil, errors.New("localjwt: SigningKey or JWKSURL is required", errors.Category("config"))
	}

	if len(cfg.sessionKey()) == 0 {
		return nil, errors.New("localjwt: no session signing key available", errors.Category("config"))
	}

	p := &Provider{
		cfg:        cfg,
		sessionKey: cfg.sessionKey(),
		logger:     noopLogger{},
		now:        time.Now,
	}

	if cfg.JWKSURL != "" {
		kf, err := jwksKeyfunc(cfg.JWKSURL)
		if err != nil {
			return nil, errors.Wrap(err, errors.Category("config"), "localjwt: unable to load JWKS")
		}
		p.identityKey = kf
	} else {
		key := cfg.SigningKey
		p.identityKey = func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		}
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UID           string `json:"uid,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	AuthTime      int64  `json:"auth_time,omitempty"`
}

func (c *tokenClaims) subject() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

// VerifyIdentityToken checks a short-lived identity token and extracts
// its claims.
func (p *Provider) VerifyIdentityToken(ctx context.Context, token string) (*session.IdentityClaims, error) {
	return p.verify(token, p.identityKey)
}

// CreateSessionArtifact mints a long-lived session JWT. The identity
// token is verified first: an artifact is only ever derived from a
// verified credential.
func (p *Provider) CreateSessionArtifact(ctx context.Context, token string, opts session.ArtifactOptions) (string, error) {
	claims, err := p.VerifyIdentityToken(ctx, token)
	if err != nil {
		return "", err
	}

	expiry := opts.ExpiresIn
	if expiry <= 0 {
		expiry = p.cfg.artifactExpiry()
	}

	now := p.now()
	authTime := claims.AuthTime
	if authTime.IsZero() {
		authTime = claims.IssuedAt
	}

	artifact := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    p.cfg.Issuer,
			Subject:   claims.UID,
			Audience:  jwt.ClaimStrings(p.cfg.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		UID:           claims.UID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		AuthTime:      authTime.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, artifact).SignedString(p.sessionKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "localjwt: failed to sign session artifact")
	}

	return signed, nil
}

// VerifySessionArtifact checks a session JWT and, when asked, consults
// the revocation watermark for its subject.
func (p *Provider) VerifySessionArtifact(ctx context.Context, artifact string, checkRevoked bool) (*session.IdentityClaims, error) {
	sessionKey := p.sessionKey
	claims, err := p.verify(artifact, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return sessionKey, nil
	})
	if err != nil {
		return nil, err
	}

	if checkRevoked && p.revocations != nil {
		revokedAt, err := p.revocations.RevokedAt(ctx, claims.UID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "localjwt: revocation lookup failed")
		}
		if !revokedAt.IsZero() && !claims.IssuedAt.After(revokedAt) {
			return nil, errors.New("session has been revoked", errors.CategoryAuth).
				WithTextCode(session.TextCodeExpiredToken).
				WithCode(errors.CodeUnauthorized)
		}
	}

	return claims, nil
}

// RevokeSessionsFor moves the subject's revocation watermark to now,
// invalidating every artifact issued before this call.
func (p *Provider) RevokeSessionsFor(ctx context.Context, uid string) error {
	if p.revocations == nil {
		return ErrRevocationStoreMissing
	}
	return p.revocations.Revoke(ctx, uid, p.now())
}

func (p *Provider) verify(token string, keyFunc jwt.Keyfunc) (*session.IdentityClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 3)
	if p.cfg.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(p.cfg.Issuer))
	}
	if len(p.cfg.Audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(p.cfg.Audience...))
	}
	if p.cfg.Leeway > 0 {
		parserOptions = append(parserOptions, jwt.WithLeeway(p.cfg.Leeway))
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, keyFunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, session.ErrExpiredToken
		}
		return nil, errors.Wrap(err, errors.CategoryAuth, "invalid credential").
			WithTextCode(session.TextCodeInvalidCredential).
			WithCode(errors.CodeUnauthorized)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, session.ErrInvalidToken
	}

	out := &session.IdentityClaims{
		UID:           claims.subject(),
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.AuthTime > 0 {
		out.AuthTime = time.Unix(claims.AuthTime, 0)
	} else {
		out.AuthTime = out.IssuedAt
	}

	return out, nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

package localjwt

import (
	"time"
)

// Config holds provider options.
type Config struct {
	// SigningKey verifies HS256 identity tokens. Required unless JWKSURL
	// is set.
	SigningKey []byte

	// SessionSigningKey signs session artifacts. Defaults to SigningKey.
	SessionSigningKey []byte

	// JWKSURL enables RS256 identity token verification against a remote
	// JWK set.
	JWKSURL string

	// Issuer and Audience are enforced on both token kinds when set.
	Issuer   string
	Audience []string

	// Leeway loosens time-based claim validation.
	Leeway time.Duration

	// ArtifactExpiry is the default session artifact lifetime when the
	// caller does not specify one.
	ArtifactExpiry time.Duration
}

func (c Config) artifactExpiry() time.Duration {
	if c.ArtifactExpiry > 0 {
		return c.ArtifactExpiry
	}
	return 5 * 24 * time.Hour
}

func (c Config) sessionKey() []byte {
	if len(c.SessionSigningKey) > 0 {
		return c.SessionSigningKey
	}
	return c.SigningKey
}

package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// CSRFTokenLength is the number of random bytes behind each token.
const CSRFTokenLength = 32

// CSRFManager issues, rotates, and validates the double-submit CSRF token.
// The token value embeds its own issuance timestamp so expiry never has to
// be inferred from cookie metadata; a value that cannot be parsed is
// treated as expired and rotated.
type CSRFManager struct {
	cfg    Config
	logger Logger
	now    func() time.Time
}

// CSRFOption customizes a CSRFManager.
type CSRFOption func(*CSRFManager)

// WithCSRFClock injects a custom clock (useful for tests).
func WithCSRFClock(clock func() time.Time) CSRFOption {
	return func(m *CSRFManager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithCSRFLogger overrides the default logger.
func WithCSRFLogger(logger Logger) CSRFOption {
	return func(m *CSRFManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewCSRFManager creates a manager bound to the given config.
func NewCSRFManager(cfg Config, opts ...CSRFOption) *CSRFManager {
	if cfg == nil {
		panic("session: CSRFManager requires a Config")
	}

	m := &CSRFManager{
		cfg:    cfg,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Ensure returns the current valid token, minting and storing a fresh one
// when the cookie is absent, expired, or unparseable.
func (m *CSRFManager) Ensure(jar CookieJar) (string, error) {
	if current := jar.Get(CSRFCookieName); current != "" {
		if issued, ok := parseCSRFIssuedAt(current); ok {
			if m.now().Sub(issued) <= m.cfg.GetCSRFDuration() {
				return current, nil
			}
		}
	}

	token, err := m.generate()
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "unable to generate CSRF token").
			WithTextCode(TextCodeInternalError)
	}

	jar.Set(csrfCookie(m.cfg, token, m.cfg.GetCSRFDuration()))
	return token, nil
}

// Validate compares the presented value against the token read directly
// from the cookie, never against an Ensure result, so a request cannot
// validate against a token it just caused to be minted.
func (m *CSRFManager) Validate(jar CookieJar, presented string) bool {
	cookie := jar.Get(CSRFCookieName)
	if cookie == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(presented)) == 1
}

func (m *CSRFManager) generate() (string, error) {
	buf := make([]byte, CSRFTokenLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}

	payload := fmt.Sprintf("%d:%s", m.now().UTC().Unix(), hex.EncodeToString(buf))
	return base64.RawURLEncoding.EncodeToString([]byte(payload)), nil
}

// parseCSRFIssuedAt recovers the embedded issuance timestamp. Any parse
// failure means "expired": the caller rotates the token.
func parseCSRFIssuedAt(token string) (time.Time, bool) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, false
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}

	unix, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	if _, err := hex.DecodeString(parts[1]); err != nil {
		return time.Time{}, false
	}

	return time.Unix(unix, 0), true
}

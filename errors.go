package session

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Closed error taxonomy for the session protocol. Provider-sourced
// failures are normalized into the same space; raw provider errors never
// escape the protocol boundary.
const (
	TextCodeInvalidCSRFToken  = "INVALID_CSRF_TOKEN"
	TextCodeCSRFCookieMissing = "CSRF_COOKIE_MISSING"
	TextCodeCSRFTokenMismatch = "CSRF_TOKEN_MISMATCH"
	TextCodeInvalidToken      = "INVALID_TOKEN"
	TextCodeExpiredToken      = "EXPIRED_TOKEN"
	TextCodeCookieSetFailed   = "COOKIE_SET_FAILED"
	TextCodeInternalError     = "INTERNAL_ERROR"
	TextCodeInvalidCredential = "INVALID_CREDENTIAL"
	TextCodeTooManyRequests   = "TOO_MANY_REQUESTS"
	TextCodeNetworkError      = "NETWORK_ERROR"
	TextCodeUserDisabled      = "USER_DISABLED"
	TextCodeNotInitialized    = "NOT_INITIALIZED"
)

// ErrInvalidCSRFToken is returned when the request carries no CSRF token.
var ErrInvalidCSRFToken = errors.New("CSRF token required", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidCSRFToken).
	WithCode(errors.CodeBadRequest)

// ErrCSRFCookieMissing is returned when no CSRF cookie exists on the request.
var ErrCSRFCookieMissing = errors.New("CSRF cookie missing", errors.CategoryAuth).
	WithTextCode(TextCodeCSRFCookieMissing).
	WithCode(errors.CodeForbidden)

// ErrCSRFTokenMismatch is returned when the presented token does not equal
// the cookie value.
var ErrCSRFTokenMismatch = errors.New("CSRF token mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeCSRFTokenMismatch).
	WithCode(errors.CodeForbidden)

// ErrInvalidToken is returned for an absent or unverifiable identity token.
var ErrInvalidToken = errors.New("invalid identity token", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeBadRequest)

// ErrExpiredToken is returned when the provider reports an expired credential.
var ErrExpiredToken = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeExpiredToken).
	WithCode(errors.CodeUnauthorized)

// ErrCookieSetFailed is returned when the session cookie could not be
// confirmed after minting. The mint succeeded upstream but the caller must
// not assume a working session.
var ErrCookieSetFailed = errors.New("session cookie could not be persisted", errors.CategoryInternal).
	WithTextCode(TextCodeCookieSetFailed).
	WithCode(errors.CodeInternal)

// ErrInternal covers faults with no more specific classification.
var ErrInternal = errors.New("internal session error", errors.CategoryInternal).
	WithTextCode(TextCodeInternalError).
	WithCode(errors.CodeInternal)

// ErrNotInitialized is returned by Instance operations issued before an
// underlying delegate has been attached. The side effect is queued; the
// caller is not.
var ErrNotInitialized = errors.New("session instance not initialized", errors.CategoryOperation).
	WithTextCode(TextCodeNotInitialized).
	WithCode(errors.CodeConflict)

// ErrNoValidSession is the non-exceptional outcome of a resolution chain
// that found nothing verifiable.
var ErrNoValidSession = errors.New("No valid session found", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// TextCode extracts the taxonomy code from an error, defaulting to
// INTERNAL_ERROR for anything outside the closed set.
func TextCode(err error) string {
	if err == nil {
		return ""
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode != "" {
		return rich.TextCode
	}
	return TextCodeInternalError
}

// StatusForTextCode maps taxonomy codes to HTTP statuses per the protocol
// contract: shape/CSRF-shape errors are 400, CSRF security failures are
// 403, expiry is 401, everything else is 500.
func StatusForTextCode(code string) int {
	switch code {
	case TextCodeInvalidToken, TextCodeInvalidCSRFToken:
		return 400
	case TextCodeCSRFCookieMissing, TextCodeCSRFTokenMismatch:
		return 403
	case TextCodeExpiredToken:
		return 401
	default:
		return 500
	}
}

// NormalizeProviderError converts a raw provider failure into the closed
// taxonomy. Already-normalized errors pass through unchanged.
func NormalizeProviderError(err error) *errors.Error {
	if err == nil {
		return nil
	}

	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode != "" {
		return rich
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "expired") || strings.Contains(msg, "revoked"):
		return wrapProviderError(err, ErrExpiredToken)
	case strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit"):
		return errors.Wrap(err, errors.CategoryRateLimit, "provider rejected request").
			WithTextCode(TextCodeTooManyRequests)
	case strings.Contains(msg, "network") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return errors.Wrap(err, errors.CategoryInternal, "provider unreachable").
			WithTextCode(TextCodeNetworkError)
	case strings.Contains(msg, "disabled"):
		return errors.Wrap(err, errors.CategoryAuth, "user account disabled").
			WithTextCode(TextCodeUserDisabled).
			WithCode(errors.CodeUnauthorized)
	case strings.Contains(msg, "credential") || strings.Contains(msg, "signature") ||
		strings.Contains(msg, "malformed"):
		return errors.Wrap(err, errors.CategoryAuth, "invalid credential").
			WithTextCode(TextCodeInvalidCredential).
			WithCode(errors.CodeUnauthorized)
	default:
		return wrapProviderError(err, ErrInvalidToken)
	}
}

func wrapProviderError(err error, template *errors.Error) *errors.Error {
	return errors.Wrap(err, template.Category, template.Message).
		WithTextCode(template.TextCode).
		WithCode(template.Code)
}

// IsExpiredError reports whether err normalizes to EXPIRED_TOKEN.
func IsExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return TextCode(err) == TextCodeExpiredToken ||
		strings.Contains(err.Error(), "token is expired")
}

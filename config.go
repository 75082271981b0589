package session

import "time"

// DefaultSessionDuration is the fixed lifetime of a minted session cookie.
const DefaultSessionDuration = 5 * 24 * time.Hour

// DefaultCSRFDuration is the lifetime of the double-submit CSRF cookie.
const DefaultCSRFDuration = time.Hour

// DefaultSignInPath is where unauthenticated traffic is redirected.
const DefaultSignInPath = "/sign-in"

var _ Config = Options{}

// Options is the concrete Config used by most deployments. The zero value
// is usable; getters fall back to package defaults.
type Options struct {
	SessionDuration     time.Duration
	CSRFDuration        time.Duration
	CookieDomain        string
	CookieSecure        *bool
	CookieSameSite      string
	SignInPath          string
	PublicPaths         []string
	RequireVerification bool
}

func (o Options) GetSessionDuration() time.Duration {
	if o.SessionDuration > 0 {
		return o.SessionDuration
	}
	return DefaultSessionDuration
}

func (o Options) GetCSRFDuration() time.Duration {
	if o.CSRFDuration > 0 {
		return o.CSRFDuration
	}
	return DefaultCSRFDuration
}

func (o Options) GetCookieDomain() string {
	return o.CookieDomain
}

// GetCookieSecure defaults to true; only an explicit false (e.g. local
// development over plain HTTP) disables the Secure attribute.
func (o Options) GetCookieSecure() bool {
	if o.CookieSecure == nil {
		return true
	}
	return *o.CookieSecure
}

func (o Options) GetCookieSameSite() string {
	if o.CookieSameSite == "" {
		return "Strict"
	}
	return o.CookieSameSite
}

func (o Options) GetSignInPath() string {
	if o.SignInPath == "" {
		return DefaultSignInPath
	}
	return o.SignInPath
}

func (o Options) GetPublicPaths() []string {
	return o.PublicPaths
}

func (o Options) GetRequireVerification() bool {
	return o.RequireVerification
}

// Bool is a convenience for Options.CookieSecure.
func Bool(v bool) *bool {
	return &v
}

package session_test

import (
	"context"
	"time"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session"
)

// memJar is a map-backed CookieJar. DropWrites simulates environments
// that silently discard Set-Cookie.
type memJar struct {
	values     map[string]string
	cookies    map[string]*router.Cookie
	deleted    []string
	DropWrites bool
}

func newMemJar() *memJar {
	return &memJar{
		values:  map[string]string{},
		cookies: map[string]*router.Cookie{},
	}
}

func (j *memJar) Get(name string) string {
	return j.values[name]
}

func (j *memJar) Set(cookie *router.Cookie) {
	if j.DropWrites {
		return
	}
	j.values[cookie.Name] = cookie.Value
	j.cookies[cookie.Name] = cookie
}

func (j *memJar) Delete(name string) {
	delete(j.values, name)
	delete(j.cookies, name)
	j.deleted = append(j.deleted, name)
}

func (j *memJar) wasDeleted(name string) bool {
	for _, n := range j.deleted {
		if n == name {
			return true
		}
	}
	return false
}

// fakeProvider implements session.IdentityProvider with function fields
// so each test overrides exactly what it needs.
type fakeProvider struct {
	verifyIdentityFn func(ctx context.Context, token string) (*session.IdentityClaims, error)
	createArtifactFn func(ctx context.Context, token string, opts session.ArtifactOptions) (string, error)
	verifyArtifactFn func(ctx context.Context, artifact string, checkRevoked bool) (*session.IdentityClaims, error)
	revokeFn         func(ctx context.Context, uid string) error

	verifyIdentityCalls int
	verifyArtifactCalls int
	revokedUIDs         []string
}

func (p *fakeProvider) VerifyIdentityToken(ctx context.Context, token string) (*session.IdentityClaims, error) {
	p.verifyIdentityCalls++
	if p.verifyIdentityFn != nil {
		return p.verifyIdentityFn(ctx, token)
	}
	return &session.IdentityClaims{
		UID:           "user-1",
		Email:         "person@example.com",
		EmailVerified: true,
		AuthTime:      time.Now(),
	}, nil
}

func (p *fakeProvider) CreateSessionArtifact(ctx context.Context, token string, opts session.ArtifactOptions) (string, error) {
	if p.createArtifactFn != nil {
		return p.createArtifactFn(ctx, token, opts)
	}
	return "artifact-for-" + token, nil
}

func (p *fakeProvider) VerifySessionArtifact(ctx context.Context, artifact string, checkRevoked bool) (*session.IdentityClaims, error) {
	p.verifyArtifactCalls++
	if p.verifyArtifactFn != nil {
		return p.verifyArtifactFn(ctx, artifact, checkRevoked)
	}
	return &session.IdentityClaims{
		UID:           "user-1",
		Email:         "person@example.com",
		EmailVerified: true,
	}, nil
}

func (p *fakeProvider) RevokeSessionsFor(ctx context.Context, uid string) error {
	p.revokedUIDs = append(p.revokedUIDs, uid)
	if p.revokeFn != nil {
		return p.revokeFn(ctx, uid)
	}
	return nil
}

func testOptions() session.Options {
	return session.Options{
		CookieSecure: session.Bool(true),
	}
}

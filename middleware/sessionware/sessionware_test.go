package sessionware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session"
	"github.com/goliatone/go-session/middleware/sessionware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	claims *session.IdentityClaims
	err    error
}

func (p *stubProvider) VerifyIdentityToken(ctx context.Context, token string) (*session.IdentityClaims, error) {
	return p.claims, p.err
}

func (p *stubProvider) CreateSessionArtifact(ctx context.Context, token string, opts session.ArtifactOptions) (string, error) {
	return "", errors.New("not implemented")
}

func (p *stubProvider) VerifySessionArtifact(ctx context.Context, artifact string, checkRevoked bool) (*session.IdentityClaims, error) {
	return p.claims, p.err
}

func (p *stubProvider) RevokeSessionsFor(ctx context.Context, uid string) error {
	return nil
}

func TestSessionwareStoresResolvedUser(t *testing.T) {
	resolver := session.NewResolver(&stubProvider{
		claims: &session.IdentityClaims{UID: "u1", Email: "u1@example.com"},
	})

	handler := sessionware.New(sessionware.Config{
		Resolver: resolver,
	})(func(ctx router.Context) error { return nil })

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.CookiesM[session.SessionCookieName] = "artifact"
	ctx.On("Locals", sessionware.DefaultContextKey, mock.Anything).Return(nil)
	ctx.On("SetContext", mock.Anything).Return()

	require.NoError(t, handler(ctx))
	assert.True(t, ctx.NextCalled)
}

func TestSessionwareRejectsAnonymous(t *testing.T) {
	resolver := session.NewResolver(&stubProvider{err: errors.New("bad artifact")})

	var handled error
	handler := sessionware.New(sessionware.Config{
		Resolver: resolver,
		ErrorHandler: func(ctx router.Context, err error) error {
			handled = err
			return nil
		},
	})(func(ctx router.Context) error { return nil })

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.CookiesM[session.SessionCookieName] = ""
	ctx.CookiesM[session.TokenCookieName] = ""

	require.NoError(t, handler(ctx))
	assert.False(t, ctx.NextCalled)
	assert.ErrorIs(t, handled, session.ErrNoValidSession)
}

func TestSessionwareOptionalContinues(t *testing.T) {
	resolver := session.NewResolver(&stubProvider{err: errors.New("bad artifact")})

	handler := sessionware.New(sessionware.Config{
		Resolver: resolver,
		Optional: true,
	})(func(ctx router.Context) error { return nil })

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.CookiesM[session.SessionCookieName] = ""
	ctx.CookiesM[session.TokenCookieName] = ""

	require.NoError(t, handler(ctx))
	assert.True(t, ctx.NextCalled)
}

func TestSessionwareSkip(t *testing.T) {
	resolver := session.NewResolver(&stubProvider{})

	handler := sessionware.New(sessionware.Config{
		Resolver: resolver,
		Skip:     func(router.Context) bool { return true },
	})(func(ctx router.Context) error { return nil })

	ctx := router.NewMockContext()

	require.NoError(t, handler(ctx))
	assert.True(t, ctx.NextCalled)
}

func TestSessionwareRequiresResolver(t *testing.T) {
	assert.Panics(t, func() {
		sessionware.New()(func(ctx router.Context) error { return nil })
	})
}

func TestUserHelper(t *testing.T) {
	ctx := router.NewMockContext()
	want := &session.ResolvedUser{UID: "u1"}
	ctx.LocalsMock[sessionware.DefaultContextKey] = want

	user, ok := sessionware.User(ctx)
	require.True(t, ok)
	assert.Equal(t, want, user)

	empty := router.NewMockContext()

	_, ok = sessionware.User(empty)
	assert.False(t, ok)
}

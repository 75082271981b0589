package session_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRouterCookieJarOverlaysWrites(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.On("Cookie", mock.Anything).Return()

	jar := session.NewRouterCookieJar(ctx)

	jar.Set(&router.Cookie{Name: "k", Value: "v"})
	assert.Equal(t, "v", jar.Get("k"), "write must be visible within the same request")
}

func TestRouterCookieJarReadsRequestCookies(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.CookiesM["k"] = "from-request"

	jar := session.NewRouterCookieJar(ctx)
	assert.Equal(t, "from-request", jar.Get("k"))
}

func TestRouterCookieJarDelete(t *testing.T) {
	ctx := router.NewMockContext()

	var expired *router.Cookie
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "k"
	})).Run(func(args mock.Arguments) {
		expired = args.Get(0).(*router.Cookie)
	}).Return()

	jar := session.NewRouterCookieJar(ctx)
	jar.Delete("k")

	require.NotNil(t, expired)
	assert.Empty(t, expired.Value)
	assert.True(t, expired.Expires.Before(time.Now()), "delete must expire the cookie in the past")
	assert.Empty(t, jar.Get("k"), "deleted cookie must read empty afterwards")
}

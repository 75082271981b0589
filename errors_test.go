package session_test

import (
	stderrors "errors"
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProviderError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"expired", stderrors.New("id token is expired"), session.TextCodeExpiredToken},
		{"revoked", stderrors.New("session has been revoked"), session.TextCodeExpiredToken},
		{"rate limited", stderrors.New("quota exceeded: too many requests"), session.TextCodeTooManyRequests},
		{"network", stderrors.New("dial tcp: connection refused"), session.TextCodeNetworkError},
		{"disabled", stderrors.New("the user account has been disabled"), session.TextCodeUserDisabled},
		{"signature", stderrors.New("signature verification failed"), session.TextCodeInvalidCredential},
		{"unknown", stderrors.New("something odd"), session.TextCodeInvalidToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			normalized := session.NormalizeProviderError(tc.err)
			require.NotNil(t, normalized)
			assert.Equal(t, tc.code, normalized.TextCode)
		})
	}
}

func TestNormalizeProviderErrorPassthrough(t *testing.T) {
	normalized := session.NormalizeProviderError(session.ErrExpiredToken)
	assert.Equal(t, session.ErrExpiredToken, normalized)

	assert.Nil(t, session.NormalizeProviderError(nil))
}

func TestTextCode(t *testing.T) {
	assert.Equal(t, session.TextCodeExpiredToken, session.TextCode(session.ErrExpiredToken))
	assert.Equal(t, session.TextCodeInternalError, session.TextCode(stderrors.New("opaque")))
	assert.Empty(t, session.TextCode(nil))
}

func TestIsExpiredError(t *testing.T) {
	assert.True(t, session.IsExpiredError(session.ErrExpiredToken))
	assert.True(t, session.IsExpiredError(stderrors.New("token is expired")))
	assert.False(t, session.IsExpiredError(stderrors.New("bad signature")))
	assert.False(t, session.IsExpiredError(nil))
}

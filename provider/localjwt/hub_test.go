package localjwt

import (
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHubFanOut(t *testing.T) {
	hub := NewUserHub()

	var got []*session.ProviderUser
	unsubscribe := hub.OnCurrentUserChanged(func(user *session.ProviderUser) {
		got = append(got, user)
	})
	defer unsubscribe()

	user := &session.ProviderUser{UID: "u1"}
	hub.Publish(user)
	hub.Publish(nil)

	require.Len(t, got, 2)
	assert.Equal(t, user, got[0])
	assert.Nil(t, got[1])
}

func TestUserHubReplaysCurrentToLateSubscribers(t *testing.T) {
	hub := NewUserHub()
	user := &session.ProviderUser{UID: "u1"}
	hub.Publish(user)

	var got *session.ProviderUser
	called := 0
	hub.OnCurrentUserChanged(func(u *session.ProviderUser) {
		got = u
		called++
	})

	assert.Equal(t, 1, called)
	assert.Equal(t, user, got)
}

func TestUserHubNoReplayBeforeFirstPublish(t *testing.T) {
	hub := NewUserHub()

	called := 0
	hub.OnCurrentUserChanged(func(*session.ProviderUser) {
		called++
	})

	assert.Zero(t, called)
	assert.Nil(t, hub.Current())
}

func TestUserHubUnsubscribe(t *testing.T) {
	hub := NewUserHub()

	called := 0
	unsubscribe := hub.OnCurrentUserChanged(func(*session.ProviderUser) {
		called++
	})

	hub.Publish(&session.ProviderUser{UID: "u1"})
	unsubscribe()
	hub.Publish(nil)

	assert.Equal(t, 1, called)
}

func TestUserHubDrivesStateMachine(t *testing.T) {
	hub := NewUserHub()
	machine := session.NewStateMachine(hub, false)
	machine.Start()
	defer machine.Stop()

	hub.Publish(&session.ProviderUser{UID: "u1", EmailVerified: true})
	assert.Equal(t, session.StatusAuthenticated, machine.Current().Status)

	hub.Publish(nil)
	assert.Equal(t, session.StatusUnauthenticated, machine.Current().Status)
}

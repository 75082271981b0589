package localjwt

import (
	"sync"

	"github.com/goliatone/go-session"
)

// UserHub is an in-process current-user stream implementing
// session.UserEventSource. Publish replaces the current user and fans the
// event out; new subscribers immediately receive the current value once
// anything has been published, mirroring how provider SDKs deliver the
// initial auth state.
type UserHub struct {
	mu          sync.Mutex
	subscribers map[int]func(*session.ProviderUser)
	nextID      int
	current     *session.ProviderUser
	published   bool
}

var _ session.UserEventSource = (*UserHub)(nil)

func NewUserHub() *UserHub {
	return &UserHub{
		subscribers: map[int]func(*session.ProviderUser){},
	}
}

// Publish records user as current and notifies subscribers. A nil user
// means signed out.
func (h *UserHub) Publish(user *session.ProviderUser) {
	h.mu.Lock()
	h.current = user
	h.published = true
	fns := make([]func(*session.ProviderUser), 0, len(h.subscribers))
	for _, fn := range h.subscribers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

// OnCurrentUserChanged registers fn and returns its unsubscribe.
func (h *UserHub) OnCurrentUserChanged(fn func(user *session.ProviderUser)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = fn
	replay := h.published
	current := h.current
	h.mu.Unlock()

	if replay {
		fn(current)
	}

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers, id)
	}
}

// Current returns the last published user, or nil.
func (h *UserHub) Current() *session.ProviderUser {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

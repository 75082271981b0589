package session

import (
	"context"
	"sync"
)

// AuthStatus is the discriminant of an AuthState. Exactly one status holds
// at any time.
type AuthStatus string

const (
	StatusLoading         AuthStatus = "loading"
	StatusAuthenticated   AuthStatus = "authenticated"
	StatusUnauthenticated AuthStatus = "unauthenticated"
	StatusUnverified      AuthStatus = "unverified"
)

// AuthState is the derived authentication snapshot exposed to application
// code.
type AuthState struct {
	UserID               string     `json:"userId,omitempty"`
	IsLoaded             bool       `json:"isLoaded"`
	IsValid              bool       `json:"isValid"`
	IsVerified           bool       `json:"isVerified"`
	IsAuthenticated      bool       `json:"isAuthenticated"`
	Token                string     `json:"token,omitempty"`
	Email                string     `json:"email,omitempty"`
	Status               AuthStatus `json:"status"`
	RequiresVerification bool       `json:"requiresVerification"`
	Error                error      `json:"-"`
}

// StateListener receives state snapshots when a significant field changed.
type StateListener func(AuthState)

// StateMachine folds provider user-change events into an AuthState.
// Handler invocations are serialized internally, and every derivation
// reads only the event payload, so re-entrant events (a handler that
// triggers another user change) cannot observe stale closures.
type StateMachine struct {
	mu                   sync.Mutex
	requiresVerification bool
	state                AuthState
	listeners            map[int]StateListener
	nextListenerID       int
	source               UserEventSource
	unsubscribe          func()
	logger               Logger
}

// StateMachineOption customizes construction.
type StateMachineOption func(*StateMachine)

// WithStateLogger overrides the default logger.
func WithStateLogger(logger Logger) StateMachineOption {
	return func(sm *StateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewStateMachine builds a machine bound to a user-change source.
// requiresVerification is fixed here, at construction, never derived
// per-event. The source may be nil when events are driven manually via
// HandleUserChanged (tests, custom wiring).
func NewStateMachine(source UserEventSource, requiresVerification bool, opts ...StateMachineOption) *StateMachine {
	sm := &StateMachine{
		requiresVerification: requiresVerification,
		listeners:            map[int]StateListener{},
		source:               source,
		logger:               defLogger{},
		state: AuthState{
			Status:               StatusLoading,
			IsLoaded:             false,
			RequiresVerification: requiresVerification,
		},
	}

	for _, opt := range opts {
		opt(sm)
	}

	return sm
}

// Start subscribes to the provider's user-change stream. Idempotent.
func (sm *StateMachine) Start() {
	sm.mu.Lock()
	if sm.unsubscribe != nil || sm.source == nil {
		sm.mu.Unlock()
		return
	}
	source := sm.source
	sm.mu.Unlock()

	unsub := source.OnCurrentUserChanged(sm.HandleUserChanged)

	sm.mu.Lock()
	sm.unsubscribe = unsub
	sm.mu.Unlock()
}

// Stop detaches from the stream and resets to the initial loading state.
func (sm *StateMachine) Stop() {
	sm.mu.Lock()
	unsub := sm.unsubscribe
	sm.unsubscribe = nil
	sm.state = AuthState{
		Status:               StatusLoading,
		IsLoaded:             false,
		RequiresVerification: sm.requiresVerification,
	}
	sm.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Current returns the latest derived state.
func (sm *StateMachine) Current() AuthState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// OnChange registers a listener; it fires only when userId,
// isAuthenticated, status, or isLoaded differ from the previous state, so
// no-op events (e.g. a silent token refresh with unchanged identity) do
// not wake subscribers.
func (sm *StateMachine) OnChange(fn StateListener) (unsubscribe func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	id := sm.nextListenerID
	sm.nextListenerID++
	sm.listeners[id] = fn

	return func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		delete(sm.listeners, id)
	}
}

// HandleUserChanged processes one user-change event. Exported so hosts
// with their own event plumbing can drive the machine directly.
func (sm *StateMachine) HandleUserChanged(user *ProviderUser) {
	next := sm.derive(user)

	sm.mu.Lock()
	prev := sm.state
	sm.state = next
	var listeners []StateListener
	if significantChange(prev, next) {
		listeners = make([]StateListener, 0, len(sm.listeners))
		for _, fn := range sm.listeners {
			listeners = append(listeners, fn)
		}
	}
	sm.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

func (sm *StateMachine) derive(user *ProviderUser) AuthState {
	if user == nil {
		return AuthState{
			Status:               StatusUnauthenticated,
			IsLoaded:             true,
			RequiresVerification: sm.requiresVerification,
		}
	}

	token := ""
	if user.TokenSource != nil {
		fresh, err := user.TokenSource(context.Background())
		if err != nil {
			sm.logger.Error("auth state token fetch failed", "uid", user.UID, "error", err)
			return AuthState{
				Status:               StatusUnauthenticated,
				IsLoaded:             true,
				RequiresVerification: sm.requiresVerification,
				Error:                err,
			}
		}
		token = fresh
	}

	isValid := user.UID != ""
	isVerified := user.EmailVerified
	isAuthenticated := isValid && (!sm.requiresVerification || isVerified)

	status := StatusUnauthenticated
	switch {
	case isValid && sm.requiresVerification && !isVerified:
		status = StatusUnverified
	case isAuthenticated:
		status = StatusAuthenticated
	}

	return AuthState{
		UserID:               user.UID,
		IsLoaded:             true,
		IsValid:              isValid,
		IsVerified:           isVerified,
		IsAuthenticated:      isAuthenticated,
		Token:                token,
		Email:                user.Email,
		Status:               status,
		RequiresVerification: sm.requiresVerification,
	}
}

func significantChange(prev, next AuthState) bool {
	return prev.UserID != next.UserID ||
		prev.IsAuthenticated != next.IsAuthenticated ||
		prev.Status != next.Status ||
		prev.IsLoaded != next.IsLoaded
}

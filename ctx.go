package session

import "context"

var userCtxKey = &contextKey{"session_user"}

type contextKey struct {
	name string
}

// WithUserContext sets the resolved user in the given context.
func WithUserContext(ctx context.Context, user *ResolvedUser) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the resolved user from the context.
func UserFromContext(ctx context.Context) (*ResolvedUser, bool) {
	raw, ok := ctx.Value(userCtxKey).(*ResolvedUser)
	return raw, ok
}

package core

import (
	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// CallerResolver maps a session token to a user id.
type CallerResolver interface {
	ResolveCaller(token string) (int64, error)
}

// CallerResolverFunc adapts a function to CallerResolver.
type CallerResolverFunc func(token string) (int64, error)

// ResolveCaller calls f(token).
func (f CallerResolverFunc) ResolveCaller(token string) (int64, error) {
	return f(token)
}

// resolveCaller turns a token into the active user issuing the request.
// Tokens of removed or unknown users are rejected.
func (h *Hub) resolveCaller(token string) (int64, error) {
	if token == "" || h.resolver == nil {
		return 0, authError("missing session token")
	}
	userID, err := h.resolver.ResolveCaller(token)
	if err != nil {
		return 0, authError("invalid session token")
	}
	return userID, nil
}

func callerIn(snap *store.Snapshot, userID int64) (*store.User, error) {
	u := snap.User(userID)
	if u == nil {
		return nil, authError("unknown user")
	}
	return u, nil
}

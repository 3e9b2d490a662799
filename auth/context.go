package auth

import (
	"context"

	"chatter-box/domain"
)

type contextKey string

const identityKey contextKey = "session_identity"

// ContextWithIdentity binds a connection's SessionIdentity to the context of
// a single inbound frame or request. Frames of one connection may be handled
// on different goroutines, so the identity is re-attached on every dispatch
// rather than assumed to survive from the handshake.
func ContextWithIdentity(ctx context.Context, identity domain.SessionIdentity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity installed for the current call.
// Callers performing authorization must treat a missing or anonymous
// identity as unauthenticated, never as an implicit anonymous subject.
func IdentityFromContext(ctx context.Context) (domain.SessionIdentity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.SessionIdentity)
	if !ok || identity.Anonymous() {
		return domain.SessionIdentity{}, false
	}
	return identity, true
}

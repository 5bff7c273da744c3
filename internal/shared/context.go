package shared

import (
	"context"

	"github.com/google/uuid"
)

type sessionContextKey struct{}

type userContextKey struct{}

// CurrentUser identifies the signed-in user of a request.
type CurrentUser struct {
	ID    uuid.UUID
	Email string
}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithUser stores the signed-in user in context.
func ContextWithUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the signed-in user, if any.
func UserFromContext(ctx context.Context) (CurrentUser, bool) {
	user, ok := ctx.Value(userContextKey{}).(CurrentUser)
	return user, ok && user.ID != uuid.Nil
}

// OwnerID returns the id that scopes every record of the request.
func OwnerID(ctx context.Context) (uuid.UUID, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}
	return user.ID, nil
}

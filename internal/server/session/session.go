// Package session carries the signed-in user's id through a request context.
package session

import "context"

type ctxKey struct{}

// WithUserID returns a child context that carries userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the user id stored by WithUserID. ok is false when the
// request is anonymous.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Package authctx carries the authenticated identity through a request
// context.
package authctx

import (
	"context"
	"strconv"
	"time"
)

// Identity is what the auth middleware learned from a verified token.
type Identity struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity and whether the request was authenticated.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// UserID returns the authenticated user id as a string, or "" for
// anonymous requests.
func UserID(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return strconv.FormatInt(id.UserID, 10)
}

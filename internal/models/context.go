package models

import (
	"context"
)

type sessionContextKey struct{}

// Session carries the authenticated account through a request context
// so handlers can enforce that callers only touch their own account.
type Session struct {
	AccountId string
	TokenId   string // jti of the bearer token
}

// WithSession attaches an authenticated session to a context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// GetSession retrieves the session from context, or nil if absent.
func GetSession(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey{}).(*Session)
	return s
}

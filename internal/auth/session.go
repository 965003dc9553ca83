package auth

import (
	"context"
	"time"
)

const RoleAdmin = "admin"

// Session is the storefront session record. Token is the upstream bearer
// token; it is empty for guests and after a 401 cleared it.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reports whether the session holds an upstream token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// IsAdmin reports whether the session belongs to an admin account.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

type sessionCtxKey struct{}

// ContextWithSession stores the session on the request context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sess)
}

// SessionFromContext returns the session seeded by the session middleware,
// or nil.
func SessionFromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	if sess, ok := ctx.Value(sessionCtxKey{}).(*Session); ok {
		return sess
	}
	return nil
}

package session

import (
	"context"
	"net/http"
	"strings"
)

// Session is the authenticated caller attached to a request context.
type Session struct {
	UserID string
	Email  string
	Token  string
	Roles  []string
}

// HasRole reports whether the session carries the given role. Admin
// sessions satisfy every role check.
func (s *Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == "admin" || r == role {
			return true
		}
	}
	return false
}

type contextKey struct{}

// WithSession attaches a session to the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached to the context, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

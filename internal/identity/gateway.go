package identity

import (
	"context"
	"time"
)

// Claims describes a verified session token.
type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Gateway is the authentication boundary. The rest of the platform never
// sees passwords or token internals, only opaque tokens and Claims, so the
// local implementation can be swapped for a hosted provider.
type Gateway interface {
	// Authenticate checks credentials and returns a session token. Missing
	// accounts and wrong passwords both return ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (string, error)

	// CreateIdentity stores credentials for a new account and returns its id.
	CreateIdentity(ctx context.Context, email, password string) (string, error)

	// Verify validates a session token and returns its claims.
	Verify(ctx context.Context, token string) (*Claims, error)

	// EndSession revokes a token ahead of its expiry.
	EndSession(ctx context.Context, token string) error
}

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/hospital-platform/pkg/logging"
)

const minPasswordLength = 6

// LocalGateway implements Gateway with bcrypt password hashes and HMAC
// signed session tokens. Revocation is optional; without a list, EndSession
// is a no-op and tokens live until expiry.
type LocalGateway struct {
	creds      CredentialRepository
	revoked    RevocationList
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	logger     *logging.Logger
}

// LocalGatewayOption configures a LocalGateway.
type LocalGatewayOption func(*LocalGateway)

// WithRevocationList enables early token revocation.
func WithRevocationList(list RevocationList) LocalGatewayOption {
	return func(g *LocalGateway) { g.revoked = list }
}

// WithBcryptCost overrides the default hash cost.
func WithBcryptCost(cost int) LocalGatewayOption {
	return func(g *LocalGateway) { g.bcryptCost = cost }
}

// NewLocalGateway creates a gateway signing tokens with the given secret.
func NewLocalGateway(creds CredentialRepository, secret string, tokenTTL time.Duration, logger *logging.Logger, opts ...LocalGatewayOption) *LocalGateway {
	if secret == "" {
		panic("identity: signing secret required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	g := &LocalGateway{
		creds:      creds,
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticate checks the password against the stored hash and issues a
// fresh session token.
func (g *LocalGateway) Authenticate(ctx context.Context, email, password string) (string, error) {
	rec, err := g.creds.ByEmail(ctx, email)
	if err != nil {
		// Burn a comparison anyway so the timing of unknown accounts
		// matches known ones.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinvalx"), []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := sessionClaims{
		Email: rec.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rec.UserID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return token, nil
}

// CreateIdentity hashes the password and stores credentials for a new
// account, returning its generated id.
func (g *LocalGateway) CreateIdentity(ctx context.Context, email, password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("identity: hash password: %w", err)
	}

	id := uuid.New().String()
	err = g.creds.Save(ctx, &credentialRecord{
		UserID:       id,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Verify parses and validates a session token.
func (g *LocalGateway) Verify(ctx context.Context, token string) (*Claims, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if g.revoked != nil {
		revoked, err := g.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("identity: revocation lookup: %w", err)
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}

	return &Claims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// EndSession revokes the token for its remaining lifetime.
func (g *LocalGateway) EndSession(ctx context.Context, token string) error {
	claims, err := g.Verify(ctx, token)
	if err != nil {
		return err
	}
	if g.revoked == nil {
		g.logger.Debug("no revocation list configured, token expires naturally", "token_id", claims.TokenID)
		return nil
	}
	return g.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt)
}

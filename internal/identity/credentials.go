package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errCredentialsNotFound = errors.New("identity: credentials not found")

// credentialRecord pairs an account id with its password hash.
type credentialRecord struct {
	UserID       string
	Email        string
	PasswordHash string
}

// CredentialRepository stores password hashes keyed by email.
type CredentialRepository interface {
	Save(ctx context.Context, rec *credentialRecord) error
	ByEmail(ctx context.Context, email string) (*credentialRecord, error)
}

// InMemoryCredentials is a map-backed CredentialRepository for tests and
// local runs.
type InMemoryCredentials struct {
	mu   sync.RWMutex
	recs map[string]*credentialRecord
}

// NewInMemoryCredentials creates an empty credential store.
func NewInMemoryCredentials() *InMemoryCredentials {
	return &InMemoryCredentials{recs: make(map[string]*credentialRecord)}
}

func (s *InMemoryCredentials) Save(ctx context.Context, rec *credentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(rec.Email)
	if _, ok := s.recs[key]; ok {
		return ErrIdentityExists
	}
	cp := *rec
	cp.Email = key
	s.recs[key] = &cp
	return nil
}

func (s *InMemoryCredentials) ByEmail(ctx context.Context, email string) (*credentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[normalizeEmail(email)]
	if !ok {
		return nil, errCredentialsNotFound
	}
	cp := *rec
	return &cp, nil
}

// PGQuerier is the subset of pgxpool.Pool the store needs.
type PGQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCredentials stores password hashes in the relational database.
type PostgresCredentials struct {
	db PGQuerier
}

// NewPostgresCredentials initializes a store backed by pgxpool.
func NewPostgresCredentials(pool *pgxpool.Pool) *PostgresCredentials {
	if pool == nil {
		panic("identity: pgx pool required")
	}
	return &PostgresCredentials{db: pool}
}

// NewPostgresCredentialsWithQuerier allows injecting mocks for tests.
func NewPostgresCredentialsWithQuerier(db PGQuerier) *PostgresCredentials {
	return &PostgresCredentials{db: db}
}

func (s *PostgresCredentials) Save(ctx context.Context, rec *credentialRecord) error {
	query := `
		INSERT INTO credentials (user_id, email, password_hash)
		VALUES ($1, $2, $3)
	`
	_, err := s.db.Exec(ctx, query, rec.UserID, normalizeEmail(rec.Email), rec.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdentityExists
		}
		return fmt.Errorf("identity: save credentials: %w", err)
	}
	return nil
}

func (s *PostgresCredentials) ByEmail(ctx context.Context, email string) (*credentialRecord, error) {
	query := `SELECT user_id, email, password_hash FROM credentials WHERE email = $1`
	var rec credentialRecord
	err := s.db.QueryRow(ctx, query, normalizeEmail(email)).Scan(&rec.UserID, &rec.Email, &rec.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errCredentialsNotFound
		}
		return nil, fmt.Errorf("identity: load credentials: %w", err)
	}
	return &rec, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

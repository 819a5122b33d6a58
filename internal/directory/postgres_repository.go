package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, roles, is_logged_in, created_at`

// PGQuerier is the subset of pgxpool.Pool the repository needs; it allows
// injecting pgxmock in tests.
type PGQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores the user directory in the relational database.
type PostgresRepository struct {
	db PGQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithQuerier allows injecting mocks for tests.
func NewPostgresRepositoryWithQuerier(db PGQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a directory entry. A partial unique index on staff roles
// backstops the service's pre-check, so a constraint violation surfaces as
// ErrRoleTaken rather than a raw database error.
func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	id := user.ID
	if id == "" {
		id = uuid.New().String()
	}

	roles := make([]string, len(user.Roles))
	for i, role := range user.Roles {
		roles[i] = string(role)
	}

	query := fmt.Sprintf(`
		INSERT INTO users (id, email, roles, is_logged_in)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, userColumns)

	u, err := scanUser(r.db.QueryRow(ctx, query, id, normalizeEmail(user.Email), roles, user.IsLoggedIn))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_email_key" {
				return nil, ErrEmailTaken
			}
			return nil, ErrRoleTaken
		}
		return nil, fmt.Errorf("directory: insert failed: %w", err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("directory: load by id: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, normalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("directory: load by email: %w", err)
	}
	return u, nil
}

// List returns every user in creation order.
func (r *PostgresRepository) List(ctx context.Context) ([]*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at, id`, userColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("directory: list: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// RoleHolder returns the account holding the given role, or ErrUserNotFound.
func (r *PostgresRepository) RoleHolder(ctx context.Context, role Role) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE $1 = ANY(roles) LIMIT 1`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, string(role)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("directory: role holder: %w", err)
	}
	return u, nil
}

// SetLoggedIn flips the presence flag and returns the updated record.
func (r *PostgresRepository) SetLoggedIn(ctx context.Context, id string, loggedIn bool) (*User, error) {
	query := fmt.Sprintf(`UPDATE users SET is_logged_in = $1 WHERE id = $2 RETURNING %s`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, loggedIn, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("directory: set logged in: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var roles []string
	err := row.Scan(&u.ID, &u.Email, &roles, &u.IsLoggedIn, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Roles = make([]Role, len(roles))
	for i, r := range roles {
		u.Roles[i] = Role(r)
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]*User, error) {
	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("directory: scan row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: iterate rows: %w", err)
	}
	return out, nil
}

package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for directory storage
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	RoleHolder(ctx context.Context, role Role) (*User, error)
	SetLoggedIn(ctx context.Context, id string, loggedIn bool) (*User, error)
}

// InMemoryRepository is a map-backed Repository used in tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
	order []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*User)}
}

// Create adds a directory entry. Email uniqueness is enforced here; role
// uniqueness is the service's concern.
func (r *InMemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(user.Email)
	for _, u := range r.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}

	u := user.Clone()
	u.Email = email
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	r.users[u.ID] = u
	r.order = append(r.order, u.ID)
	return u.Clone(), nil
}

// GetByID retrieves a user by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.Clone(), nil
}

// GetByEmail retrieves a user by email
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = normalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, ErrUserNotFound
}

// List returns every user in creation order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id].Clone())
	}
	return out, nil
}

// RoleHolder returns the account holding the given role, or ErrUserNotFound.
func (r *InMemoryRepository) RoleHolder(ctx context.Context, role Role) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		for _, have := range r.users[id].Roles {
			if have == role {
				return r.users[id].Clone(), nil
			}
		}
	}
	return nil, ErrUserNotFound
}

// SetLoggedIn flips the presence flag and returns the updated record.
func (r *InMemoryRepository) SetLoggedIn(ctx context.Context, id string, loggedIn bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.IsLoggedIn = loggedIn
	return u.Clone(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

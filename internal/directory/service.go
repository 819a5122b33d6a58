package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicore/hospital-platform/internal/identity"
	"github.com/clinicore/hospital-platform/internal/session"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

// Notifier pushes directory changes to realtime subscribers. Implementations
// must not block.
type Notifier interface {
	UserChanged(ctx context.Context, u *User)
}

// AuthRecorder appends authentication events to the audit trail.
// Implementations must not fail the calling operation.
type AuthRecorder interface {
	LogAuth(ctx context.Context, event, actorID, subjectID string)
}

// Service coordinates the user directory with the identity gateway.
type Service struct {
	repo    Repository
	gateway identity.Gateway
	notify  Notifier
	authlog AuthRecorder
	logger  *logging.Logger
}

// NewService creates the directory service. notify and authlog may be nil.
func NewService(repo Repository, gateway identity.Gateway, notify Notifier, authlog AuthRecorder, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, gateway: gateway, notify: notify, authlog: authlog, logger: logger}
}

// RoleOption is one selectable workspace for accounts holding several roles.
type RoleOption struct {
	Role  Role   `json:"role"`
	Route string `json:"route"`
}

// LoginResult is the outcome of a successful credential check. Exactly one
// of Route or Options is populated: Route when the account holds a single
// role, Options when the account must pick a workspace.
type LoginResult struct {
	Token   string       `json:"token"`
	User    *User        `json:"user"`
	Route   string       `json:"route,omitempty"`
	Options []RoleOption `json:"options,omitempty"`
}

// Login verifies credentials, marks the account present and resolves which
// workspace to open. Gateway failures pass through unchanged so the client
// sees the same message for a missing account and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	token, err := s.gateway.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("directory: load account after login: %w", err)
	}

	roles := user.EffectiveRoles()
	if len(roles) == 1 && !roles[0].Valid() {
		return nil, ErrNoWorkspace
	}

	user, err = s.repo.SetLoggedIn(ctx, user.ID, true)
	if err != nil {
		return nil, fmt.Errorf("directory: mark present: %w", err)
	}
	s.changed(ctx, user)
	s.recordAuth(ctx, "auth.login", user.ID, user.ID)

	result := &LoginResult{Token: token, User: user}
	if len(roles) == 1 {
		result.Route = roles[0].Route()
		return result, nil
	}
	for _, r := range roles {
		result.Options = append(result.Options, RoleOption{Role: r, Route: r.Route()})
	}
	return result, nil
}

// Logout ends the session and clears the presence flag. Both steps are
// advisory cleanup, so a missing account is not an error here.
func (s *Service) Logout(ctx context.Context, token, userID string) error {
	if err := s.gateway.EndSession(ctx, token); err != nil {
		s.logger.Warn("session end failed", "error", err)
	}
	user, err := s.repo.SetLoggedIn(ctx, userID, false)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("directory: clear presence: %w", err)
	}
	s.changed(ctx, user)
	s.recordAuth(ctx, "auth.logout", userID, userID)
	return nil
}

// Register creates credentials at the gateway and a directory entry holding
// the requested role. Every staff role except admin is held by at most one
// account; the database's partial unique index backstops this check against
// concurrent registrations.
func (s *Service) Register(ctx context.Context, req *AddUserRequest) (*User, error) {
	return s.register(ctx, req, true)
}

// AdminRegister creates an account on behalf of an admin. The application
// level role pre-check is skipped; the database index still rejects a
// duplicate staff role.
func (s *Service) AdminRegister(ctx context.Context, req *AddUserRequest) (*User, error) {
	return s.register(ctx, req, false)
}

func (s *Service) register(ctx context.Context, req *AddUserRequest, checkRole bool) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	role := ParseRole(req.Role)

	if checkRole && role != RoleAdmin {
		if _, err := s.repo.RoleHolder(ctx, role); err == nil {
			return nil, ErrRoleTaken
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("directory: role check: %w", err)
		}
	}

	id, err := s.gateway.CreateIdentity(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, &User{ID: id, Email: req.Email, Roles: []Role{role}})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", role)
	s.changed(ctx, user)
	s.recordAuth(ctx, "auth.user_registered", s.actorFrom(ctx, user.ID), user.ID)
	return user, nil
}

// Get returns a single directory entry.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns the directory entry for an email address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Roster returns every directory entry for the admin screen.
func (s *Service) Roster(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// ActiveRoster returns the accounts currently marked present.
func (s *Service) ActiveRoster(ctx context.Context) ([]*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	active := users[:0]
	for _, u := range users {
		if u.IsLoggedIn {
			active = append(active, u)
		}
	}
	return active, nil
}

// ForceLogout clears another account's presence flag. The flag is advisory:
// it hides the account from the active roster but does not revoke tokens,
// so an open session keeps working until it expires.
func (s *Service) ForceLogout(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.SetLoggedIn(ctx, id, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("forced logout", "user_id", id)
	s.changed(ctx, user)
	s.recordAuth(ctx, "auth.forced_logout", s.actorFrom(ctx, ""), id)
	return user, nil
}

func (s *Service) recordAuth(ctx context.Context, event, actorID, subjectID string) {
	if s.authlog != nil {
		s.authlog.LogAuth(ctx, event, actorID, subjectID)
	}
}

// actorFrom prefers the authenticated caller, falling back to the subject
// for unauthenticated flows like self-registration.
func (s *Service) actorFrom(ctx context.Context, fallback string) string {
	if sess, ok := session.FromContext(ctx); ok {
		return sess.UserID
	}
	return fallback
}

// RolesFor satisfies the route guard's role lookup. Accounts that
// authenticate but have no directory entry get no roles, which the guard
// turns into the fallback role.
func (s *Service) RolesFor(ctx context.Context, userID, email string) ([]string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) && email != "" {
		user, err = s.repo.GetByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	roles := make([]string, len(user.Roles))
	for i, r := range user.Roles {
		roles[i] = string(r)
	}
	return roles, nil
}

func (s *Service) changed(ctx context.Context, u *User) {
	if s.notify != nil {
		s.notify.UserChanged(ctx, u)
	}
}

package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/hospital-platform/internal/identity"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

type recordingNotifier struct {
	changed []*User
}

func (n *recordingNotifier) UserChanged(_ context.Context, u *User) {
	n.changed = append(n.changed, u)
}

func newTestDirectory(t *testing.T) (*Service, *InMemoryRepository, *recordingNotifier) {
	t.Helper()
	repo := NewInMemoryRepository()
	gateway := identity.NewLocalGateway(
		identity.NewInMemoryCredentials(), "test-secret", time.Hour,
		logging.New("error"), identity.WithBcryptCost(4),
	)
	notify := &recordingNotifier{}
	return NewService(repo, gateway, notify, nil, logging.New("error")), repo, notify
}

func registerTestUser(t *testing.T, svc *Service, email, role string) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), &AddUserRequest{
		Email:    email,
		Password: "s3cret1",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestRegisterAssignsRole(t *testing.T) {
	svc, _, notify := newTestDirectory(t)

	u := registerTestUser(t, svc, "doc@hospital.test", "doctor")

	assert.Equal(t, []Role{RoleDoctor}, u.Roles)
	assert.False(t, u.IsLoggedIn)
	require.Len(t, notify.changed, 1)
}

func TestRegisterRejectsTakenRole(t *testing.T) {
	svc, _, _ := newTestDirectory(t)
	registerTestUser(t, svc, "doc@hospital.test", "doctor")

	_, err := svc.Register(context.Background(), &AddUserRequest{
		Email:    "doc2@hospital.test",
		Password: "s3cret1",
		Role:     "doctor",
	})
	assert.ErrorIs(t, err, ErrRoleTaken)
}

func TestRegisterAllowsMultipleAdmins(t *testing.T) {
	svc, _, _ := newTestDirectory(t)
	registerTestUser(t, svc, "admin1@hospital.test", "admin")
	registerTestUser(t, svc, "admin2@hospital.test", "admin")
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newTestDirectory(t)

	_, err := svc.Register(context.Background(), &AddUserRequest{
		Email:    "x@hospital.test",
		Password: "s3cret1",
		Role:     "janitor",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestLoginSingleRoleRoutesDirectly(t *testing.T) {
	svc, repo, _ := newTestDirectory(t)
	registerTestUser(t, svc, "doc@hospital.test", "doctor")

	result, err := svc.Login(context.Background(), "doc@hospital.test", "s3cret1")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "/doctor", result.Route)
	assert.Empty(t, result.Options)

	stored, _ := repo.GetByEmail(context.Background(), "doc@hospital.test")
	assert.True(t, stored.IsLoggedIn, "login must mark the account present")
}

func TestLoginMultipleRolesOffersSelection(t *testing.T) {
	svc, repo, _ := newTestDirectory(t)
	u := registerTestUser(t, svc, "multi@hospital.test", "doctor")
	repo.users[u.ID].Roles = append(repo.users[u.ID].Roles, RoleLab)

	result, err := svc.Login(context.Background(), "multi@hospital.test", "s3cret1")
	require.NoError(t, err)

	assert.Empty(t, result.Route)
	require.Len(t, result.Options, 2)
	assert.Equal(t, "/doctor", result.Options[0].Route)
	assert.Equal(t, "/lab", result.Options[1].Route)
}

func TestLoginNoRolesHasNoWorkspace(t *testing.T) {
	svc, repo, _ := newTestDirectory(t)
	registerTestUser(t, svc, "bare@hospital.test", "cashier")

	stored, err := repo.GetByEmail(context.Background(), "bare@hospital.test")
	require.NoError(t, err)
	repo.users[stored.ID].Roles = nil

	_, err = svc.Login(context.Background(), "bare@hospital.test", "s3cret1")
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func TestLoginWrongPasswordIsGeneric(t *testing.T) {
	svc, _, _ := newTestDirectory(t)
	registerTestUser(t, svc, "doc@hospital.test", "doctor")

	_, err := svc.Login(context.Background(), "doc@hospital.test", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestLogoutClearsPresence(t *testing.T) {
	svc, repo, _ := newTestDirectory(t)
	u := registerTestUser(t, svc, "doc@hospital.test", "doctor")

	result, err := svc.Login(context.Background(), "doc@hospital.test", "s3cret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.Token, u.ID))

	stored, _ := repo.GetByID(context.Background(), u.ID)
	assert.False(t, stored.IsLoggedIn)
}

func TestForceLogoutIsAdvisory(t *testing.T) {
	svc, repo, _ := newTestDirectory(t)
	u := registerTestUser(t, svc, "doc@hospital.test", "doctor")

	_, err := svc.Login(context.Background(), "doc@hospital.test", "s3cret1")
	require.NoError(t, err)

	updated, err := svc.ForceLogout(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsLoggedIn)

	stored, _ := repo.GetByID(context.Background(), u.ID)
	assert.False(t, stored.IsLoggedIn)
}

func TestRolesForFallsBackToEmpty(t *testing.T) {
	svc, _, _ := newTestDirectory(t)

	roles, err := svc.RolesFor(context.Background(), "missing-id", "missing@hospital.test")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

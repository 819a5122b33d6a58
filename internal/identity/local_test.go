package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/hospital-platform/pkg/logging"
)

func newTestGateway(t *testing.T, opts ...LocalGatewayOption) *LocalGateway {
	t.Helper()
	opts = append([]LocalGatewayOption{WithBcryptCost(4)}, opts...)
	return NewLocalGateway(NewInMemoryCredentials(), "test-secret", time.Hour, logging.New("error"), opts...)
}

func TestAuthenticateRoundTrip(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	id, err := g.CreateIdentity(ctx, "Doctor@Hospital.test", "s3cret1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	token, err := g.Authenticate(ctx, "doctor@hospital.test", "s3cret1")
	require.NoError(t, err)

	claims, err := g.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "doctor@hospital.test", claims.Email)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestAuthenticateWrongPassword(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	_, err := g.CreateIdentity(ctx, "doctor@hospital.test", "s3cret1")
	require.NoError(t, err)

	_, err = g.Authenticate(ctx, "doctor@hospital.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = g.Authenticate(ctx, "nobody@hospital.test", "s3cret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown account must look like a wrong password")
}

func TestCreateIdentityRejectsWeakPassword(t *testing.T) {
	g := newTestGateway(t)

	_, err := g.CreateIdentity(context.Background(), "doctor@hospital.test", "abc")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestCreateIdentityRejectsDuplicateEmail(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	_, err := g.CreateIdentity(ctx, "doctor@hospital.test", "s3cret1")
	require.NoError(t, err)

	_, err = g.CreateIdentity(ctx, "DOCTOR@hospital.test", "another1")
	assert.ErrorIs(t, err, ErrIdentityExists)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	_, err := g.CreateIdentity(ctx, "doctor@hospital.test", "s3cret1")
	require.NoError(t, err)
	token, err := g.Authenticate(ctx, "doctor@hospital.test", "s3cret1")
	require.NoError(t, err)

	other := NewLocalGateway(NewInMemoryCredentials(), "different-secret", time.Hour, logging.New("error"))
	_, err = other.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEndSessionRevokesToken(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	g := newTestGateway(t, WithRevocationList(NewRedisRevocationList(client)))
	ctx := context.Background()

	_, err := g.CreateIdentity(ctx, "doctor@hospital.test", "s3cret1")
	require.NoError(t, err)
	token, err := g.Authenticate(ctx, "doctor@hospital.test", "s3cret1")
	require.NoError(t, err)

	_, err = g.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, g.EndSession(ctx, token))

	_, err = g.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

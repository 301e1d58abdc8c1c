package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	started []string
	revoked []string
	err     error
}

func (f *fakeSessions) Start(_ context.Context, accessID string) error {
	if f.err != nil {
		return f.err
	}
	f.started = append(f.started, accessID)
	return nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 60}

func TestLoginWithPlainPassword(t *testing.T) {
	sessions := &fakeSessions{}
	auth, err := NewAuthenticator(config.AdminConfig{Password: "admin123"}, testJWT, sessions)
	require.NoError(t, err)

	result, err := auth.Login(context.Background(), "admin123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.TokenType)

	claims, err := auth.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.ActorRoleAdmin, claims.Role)
	require.Len(t, sessions.started, 1)
	assert.Equal(t, sessions.started[0], claims.ID)
	assert.True(t, claims.ExpiresAt.Time.Equal(result.ExpiresAt.Truncate(time.Second)))

	_, err = auth.Login(context.Background(), "wrong")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = auth.Login(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginPrefersHash(t *testing.T) {
	hash, err := security.HashPassword("s3cret", config.PasswordConfig{
		ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
	})
	require.NoError(t, err)

	auth, err := NewAuthenticator(config.AdminConfig{Password: "admin123", PasswordHash: hash}, testJWT, &fakeSessions{})
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), "s3cret")
	require.NoError(t, err)
	_, err = auth.Login(context.Background(), "admin123")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginSessionFailure(t *testing.T) {
	auth, err := NewAuthenticator(config.AdminConfig{Password: "admin123"}, testJWT, &fakeSessions{err: errors.New("redis down")})
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), "admin123")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestLogout(t *testing.T) {
	sessions := &fakeSessions{}
	auth, err := NewAuthenticator(config.AdminConfig{Password: "admin123"}, testJWT, sessions)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(context.Background(), "jti-1"))
	assert.Equal(t, []string{"jti-1"}, sessions.revoked)
	assert.True(t, pkgerrors.IsCode(auth.Logout(context.Background(), " "), pkgerrors.CodeUnauthorized))
}

func TestNewAuthenticatorRejectsBadJWTConfig(t *testing.T) {
	_, err := NewAuthenticator(config.AdminConfig{Password: "admin123"}, config.JWTConfig{Issuer: "storefront", ExpirationMinutes: 5}, &fakeSessions{})
	assert.Error(t, err)
}

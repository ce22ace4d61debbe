package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
)

func TestTokenPairRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, 24*time.Hour)

	pair, err := svc.IssuePair(42, "ana@example.com", acl.RoleUser)
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := svc.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", claims.Email)
	require.Equal(t, acl.RoleUser, claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	refresh, err := svc.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Empty(t, refresh.Email)
}

func TestTokenUseIsEnforced(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, 24*time.Hour)

	pair, err := svc.IssuePair(42, "ana@example.com", acl.RoleUser)
	require.NoError(t, err)

	_, err = svc.ParseAccess(pair.RefreshToken)
	require.ErrorIs(t, err, httpx.ErrUnauthorized)

	_, err = svc.ParseRefresh(pair.AccessToken)
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute, 24*time.Hour)

	pair, err := svc.IssuePair(42, "ana@example.com", acl.RoleUser)
	require.NoError(t, err)

	_, err = svc.ParseAccess(pair.AccessToken)
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestForeignSecretRejected(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour, 24*time.Hour)
	verifier := NewTokenService("secret-b", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(42, "ana@example.com", acl.RoleUser)
	require.NoError(t, err)

	_, err = verifier.ParseAccess(pair.AccessToken)
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

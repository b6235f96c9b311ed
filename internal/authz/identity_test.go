package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T) *TokenVerifier {
	t.Helper()
	v, err := NewTokenVerifier("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return v
}

func TestTokenRoundTrip(t *testing.T) {
	v := newTestVerifier(t)
	id := Identity{UserID: 42, Email: "budi@kantor.go.id"}

	access, err := v.SignAccess(id)
	require.NoError(t, err)
	got, err := v.VerifyAccess(access)
	require.NoError(t, err)
	require.Equal(t, id, got)

	refresh, err := v.SignRefresh(id)
	require.NoError(t, err)
	got, err = v.VerifyRefresh(refresh)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestTokenKindsNotInterchangeable(t *testing.T) {
	v := newTestVerifier(t)
	id := Identity{UserID: 42, Email: "budi@kantor.go.id"}

	access, err := v.SignAccess(id)
	require.NoError(t, err)
	refresh, err := v.SignRefresh(id)
	require.NoError(t, err)

	_, err = v.VerifyRefresh(access)
	require.Error(t, err, "access token must not verify as refresh")
	_, err = v.VerifyAccess(refresh)
	require.Error(t, err, "refresh token must not verify as access")

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, CodeAuthenticationRequired, code)
}

func TestExpiredTokenRejected(t *testing.T) {
	v, err := NewTokenVerifier("access-secret", "refresh-secret", -time.Minute, 24*time.Hour)
	require.NoError(t, err)
	// Negative TTL falls back to the default, so force expiry directly.
	v.accessTTL = -time.Minute

	token, err := v.SignAccess(Identity{UserID: 1})
	require.NoError(t, err)
	_, err = v.VerifyAccess(token)
	require.Error(t, err)
	code, _ := CodeOf(err)
	require.Equal(t, CodeAuthenticationRequired, code)
}

func TestGarbageTokenRejected(t *testing.T) {
	v := newTestVerifier(t)
	_, err := v.VerifyAccess("not.a.token")
	require.Error(t, err)
}

func TestMissingSecretsAreConfigurationErrors(t *testing.T) {
	_, err := NewTokenVerifier("", "refresh", 0, 0)
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, CodeConfigurationError, code)

	_, err = NewTokenVerifier("same", "same", 0, 0)
	require.Error(t, err)
	code, _ = CodeOf(err)
	require.Equal(t, CodeConfigurationError, code)
}

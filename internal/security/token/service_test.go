package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("test-secret-0123456789", "authpool-test", 2*time.Hour, 168*time.Hour, NewMemoryRevocations())
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	signed, issued, err := svc.IssueAccess("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.NotEmpty(t, issued.JTI)

	got, err := svc.Verify(ctx, signed, TypeAccess)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, TypeAccess, got.Type)
	require.Equal(t, issued.JTI, got.JTI)
}

func TestVerifyRejectsWrongType(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	refresh, _, err := svc.IssueRefresh("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, refresh, TypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify(ctx, refresh, TypeRefresh)
	require.NoError(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	other := NewService("another-secret-entirely", "authpool-test", time.Hour, time.Hour, nil)

	signed, _, err := svc.IssueAccess("user-1")
	require.NoError(t, err)

	_, err = other.Verify(ctx, signed, TypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestService()
	_, err := svc.Verify(context.Background(), "not.a.jwt", TypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	now := base
	svc := newTestService().WithClock(func() time.Time { return now })
	ctx := context.Background()

	signed, _, err := svc.IssueAccess("user-1")
	require.NoError(t, err)

	now = base.Add(time.Hour)
	_, err = svc.Verify(ctx, signed, TypeAccess)
	require.NoError(t, err)

	now = base.Add(2*time.Hour + time.Minute)
	_, err = svc.Verify(ctx, signed, TypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeInvalidatesToken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	signed, claims, err := svc.IssueAccess("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, signed, TypeAccess)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, claims))

	_, err = svc.Verify(ctx, signed, TypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeDoesNotAffectOtherTokens(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a, aClaims, err := svc.IssueAccess("user-1")
	require.NoError(t, err)
	b, _, err := svc.IssueAccess("user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, aClaims))

	_, err = svc.Verify(ctx, a, TypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Verify(ctx, b, TypeAccess)
	require.NoError(t, err)
}

func TestDecodeUnverified(t *testing.T) {
	svc := newTestService()

	signed, issued, err := svc.IssueRefresh("user-9")
	require.NoError(t, err)

	got, err := DecodeUnverified(signed)
	require.NoError(t, err)
	require.Equal(t, "user-9", got.UserID)
	require.Equal(t, issued.JTI, got.JTI)
}

func TestOpaqueSecretGeneration(t *testing.T) {
	a, err := GenerateOpaqueSecret(32)
	require.NoError(t, err)
	b, err := GenerateOpaqueSecret(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.NotEmpty(t, a)

	require.Len(t, SHA256Hex("anything"), 64)
	require.Equal(t, SHA256Hex("x"), SHA256Hex("x"))
}

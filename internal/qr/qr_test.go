package qr

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/store/memory"
)

func strptr(s string) *string { return &s }

func newTestService(t *testing.T) (*Service, *repository.User, *time.Time) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := &base

	st := memory.New()
	user := &repository.User{
		ID:         uuid.NewString(),
		UserPoolID: "pool-1",
		Email:      strptr("alice@example.com"),
		Status:     repository.UserActive,
		CreatedAt:  base,
		UpdatedAt:  base,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user, nil))

	svc := NewService(st.QR(), st.Users(), DefaultTTL).
		WithClock(func() time.Time { return *now })
	return svc, user, now
}

func TestHappyPathConfirm(t *testing.T) {
	svc, user, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "pool-1", "app-1", CreateMeta{IP: "1.2.3.4"})
	require.NoError(t, err)
	require.Equal(t, repository.QRPending, sess.Status)
	require.NotEmpty(t, sess.SceneID)

	got, err := svc.GetStatus(ctx, sess.SceneID)
	require.NoError(t, err)
	require.Equal(t, repository.QRPending, got.Status)

	scanned, err := svc.Scan(ctx, sess.SceneID)
	require.NoError(t, err)
	require.Equal(t, repository.QRScanned, scanned.Status)
	require.NotNil(t, scanned.ScannedAt)

	confirmed, err := svc.Confirm(ctx, sess.SceneID, user, true)
	require.NoError(t, err)
	require.Equal(t, repository.QRConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.UserID)
	require.Equal(t, user.ID, *confirmed.UserID)
	require.NotNil(t, confirmed.ConfirmedAt)
}

func TestDecline(t *testing.T) {
	svc, user, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "pool-1", "app-1", CreateMeta{})
	require.NoError(t, err)
	_, err = svc.Scan(ctx, sess.SceneID)
	require.NoError(t, err)

	cancelled, err := svc.Confirm(ctx, sess.SceneID, user, false)
	require.NoError(t, err)
	require.Equal(t, repository.QRCancelled, cancelled.Status)
	require.Nil(t, cancelled.UserID)
}

func TestScanRequiresPending(t *testing.T) {
	svc, user, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "pool-1", "app-1", CreateMeta{})
	require.NoError(t, err)
	_, err = svc.Scan(ctx, sess.SceneID)
	require.NoError(t, err)

	// Doble scan.
	_, err = svc.Scan(ctx, sess.SceneID)
	require.ErrorIs(t, err, ErrSessionState)

	// Confirmada tampoco admite scan.
	_, err = svc.Confirm(ctx, sess.SceneID, user, true)
	require.NoError(t, err)
	_, err = svc.Scan(ctx, sess.SceneID)
	require.ErrorIs(t, err, ErrSessionState)
}

func TestConfirmIsTerminal(t *testing.T) {
	svc, user, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "pool-1", "app-1", CreateMeta{})
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, sess.SceneID, user, true)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, sess.SceneID, user, true)
	require.ErrorIs(t, err, ErrSessionState)
	_, err = svc.Confirm(ctx, sess.SceneID, user, false)
	require.ErrorIs(t, err, ErrSessionState)
}

func TestConfirmRejectsForeignPool(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "pool-1", "app-1", CreateMeta{})
	require.NoError(t, err)

	outsider := &repository.User{ID: uuid.NewString(), UserPoolID: "pool-2", Status: repository.UserActive}
	_, err = svc.Confirm(ctx, sess.SceneID, outsider, true)
	require.ErrorIs(t, err, repository.ErrUnauthorized)

	_, err = svc.Confirm(ctx, sess.SceneID, nil, true)
	require.ErrorIs(t, err, repository.ErrUnauthorized)
}

func TestLazyExpiry(t *testing.T) {
	svc, user, now := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "pool-1", "app-1", CreateMeta{})
	require.NoError(t, err)

	*now = now.Add(DefaultTTL + time.Second)

	// GetStatus reporta expired sin escribir.
	got, err := svc.GetStatus(ctx, sess.SceneID)
	require.NoError(t, err)
	require.Equal(t, repository.QRExpired, got.Status)

	_, err = svc.Scan(ctx, sess.SceneID)
	require.ErrorIs(t, err, ErrSessionExpired)

	// Confirm tardío persiste el estado expired.
	_, err = svc.Confirm(ctx, sess.SceneID, user, true)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestEffectiveStatusIsPure(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.Equal(t, repository.QRExpired, EffectiveStatus(repository.QRPending, at, at))
	require.Equal(t, repository.QRExpired, EffectiveStatus(repository.QRScanned, at, at.Add(time.Minute)))
	require.Equal(t, repository.QRPending, EffectiveStatus(repository.QRPending, at.Add(time.Minute), at))

	// Los estados terminales nunca expiran.
	require.Equal(t, repository.QRConfirmed, EffectiveStatus(repository.QRConfirmed, at, at.Add(time.Hour)))
	require.Equal(t, repository.QRCancelled, EffectiveStatus(repository.QRCancelled, at, at.Add(time.Hour)))
}

func TestGetStatusUnknownScene(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.GetStatus(context.Background(), "no-such-scene")
	require.True(t, repository.IsNotFound(err))
}

func TestPollDeliversConfirmedSessionOnce(t *testing.T) {
	svc, user, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "pool-1", "app-1", CreateMeta{})
	require.NoError(t, err)

	// Antes de confirmar, un poll no habilita entrega.
	got, deliver, err := svc.Poll(ctx, sess.SceneID)
	require.NoError(t, err)
	require.False(t, deliver)
	require.Equal(t, repository.QRPending, got.Status)

	_, err = svc.Scan(ctx, sess.SceneID)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, sess.SceneID, user, true)
	require.NoError(t, err)

	got, deliver, err = svc.Poll(ctx, sess.SceneID)
	require.NoError(t, err)
	require.True(t, deliver)
	require.Equal(t, repository.QRConfirmed, got.Status)
	require.NotNil(t, got.ConsumedAt)

	// Los polls siguientes ven la sesión confirmada pero ya consumida.
	for i := 0; i < 3; i++ {
		got, deliver, err = svc.Poll(ctx, sess.SceneID)
		require.NoError(t, err)
		require.False(t, deliver)
		require.Equal(t, repository.QRConfirmed, got.Status)
	}
}

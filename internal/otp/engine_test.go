package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/notify"
	"github.com/dropDatabas3/authpool/internal/store/memory"
)

var codeRe = regexp.MustCompile(`\d{6}`)

// captureSender guarda el último mensaje despachado.
type captureSender struct {
	mu   sync.Mutex
	last notify.Message
	fail bool
}

func (c *captureSender) Send(ctx context.Context, msg notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("smtp down")
	}
	c.last = msg
	return nil
}

func (c *captureSender) lastCode(t *testing.T) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := codeRe.FindString(c.last.Body)
	require.NotEmpty(t, code, "no code in %q", c.last.Body)
	return code
}

func newTestEngine(t *testing.T) (*Engine, *captureSender, *time.Time) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := &base
	sender := &captureSender{}
	eng := NewEngine(memory.New().OTP(), sender, Defaults).
		WithClock(func() time.Time { return *now })
	return eng, sender, now
}

func TestSendAndVerify(t *testing.T) {
	eng, sender, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{IP: "1.2.3.4"}))
	code := sender.lastCode(t)

	require.NoError(t, eng.Verify(ctx, "alice@example.com", repository.OTPLogin, code))
}

func TestCodeIsSingleUse(t *testing.T) {
	eng, sender, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{}))
	code := sender.lastCode(t)

	require.NoError(t, eng.Verify(ctx, "alice@example.com", repository.OTPLogin, code))

	err := eng.Verify(ctx, "alice@example.com", repository.OTPLogin, code)
	require.ErrorAs(t, err, &ErrNotFound{})
}

func TestVerifyCountsDownAndExhausts(t *testing.T) {
	eng, sender, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{}))
	good := sender.lastCode(t)
	bad := "000000"
	if bad == good {
		bad = "000001"
	}

	for want := 4; want >= 0; want-- {
		err := eng.Verify(ctx, "alice@example.com", repository.OTPLogin, bad)
		var inv ErrInvalid
		require.ErrorAs(t, err, &inv)
		require.Equal(t, want, inv.RemainingAttempts)
	}

	// Agotado: ni siquiera el código correcto entra.
	err := eng.Verify(ctx, "alice@example.com", repository.OTPLogin, good)
	require.ErrorAs(t, err, &ErrExhausted{})
}

func TestResendCooldown(t *testing.T) {
	eng, _, now := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{}))

	err := eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{})
	var thr ErrThrottled
	require.ErrorAs(t, err, &thr)
	require.Greater(t, thr.RetryAfterSeconds, 0)

	// Pasado el cooldown, el reenvío procede.
	*now = now.Add(61 * time.Second)
	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{}))
}

func TestCooldownIsPerIdentifierAndType(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{}))
	require.NoError(t, eng.Send(ctx, "bob@example.com", repository.OTPLogin, SendMeta{}))
	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPResetPassword, SendMeta{}))
}

func TestExpiredCodeIsGone(t *testing.T) {
	eng, sender, now := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{}))
	code := sender.lastCode(t)

	*now = now.Add(6 * time.Minute)
	err := eng.Verify(ctx, "alice@example.com", repository.OTPLogin, code)
	require.ErrorAs(t, err, &ErrNotFound{})
}

func TestNewestCodeWins(t *testing.T) {
	eng, sender, now := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{}))
	first := sender.lastCode(t)

	*now = now.Add(2 * time.Minute)
	require.NoError(t, eng.Send(ctx, "alice@example.com", repository.OTPLogin, SendMeta{}))
	second := sender.lastCode(t)

	if first == second {
		t.Skip("collision between generated codes")
	}

	// El código viejo ya no verifica, el nuevo sí.
	var inv ErrInvalid
	require.ErrorAs(t, eng.Verify(ctx, "alice@example.com", repository.OTPLogin, first), &inv)
	require.NoError(t, eng.Verify(ctx, "alice@example.com", repository.OTPLogin, second))
}

func TestSenderFailureDoesNotAbort(t *testing.T) {
	eng, sender, _ := newTestEngine(t)
	sender.fail = true
	require.NoError(t, eng.Send(context.Background(), "alice@example.com", repository.OTPLogin, SendMeta{}))
}

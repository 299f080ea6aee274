// Package otp implementa el ciclo de vida de códigos de un solo uso:
// emisión con cooldown de reenvío, verificación con contador de
// intentos persistido y expiración dura.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/notify"
	"github.com/dropDatabas3/authpool/internal/observability/logger"
	"github.com/dropDatabas3/authpool/internal/security/token"
)

// Config parametriza el engine. Zero value no es usable; ver Defaults.
type Config struct {
	TTL            time.Duration
	Digits         int
	MaxAttempts    int
	ResendCooldown time.Duration
}

// Defaults son los parámetros de producción.
var Defaults = Config{
	TTL:            5 * time.Minute,
	Digits:         6,
	MaxAttempts:    5,
	ResendCooldown: 60 * time.Second,
}

// Engine emite y verifica códigos OTP contra el repositorio.
type Engine struct {
	repo   repository.OTPRepository
	sender notify.Sender
	cfg    Config

	now func() time.Time
}

func NewEngine(repo repository.OTPRepository, sender notify.Sender, cfg Config) *Engine {
	if cfg.TTL <= 0 {
		cfg.TTL = Defaults.TTL
	}
	if cfg.Digits <= 0 {
		cfg.Digits = Defaults.Digits
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = Defaults.MaxAttempts
	}
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = Defaults.ResendCooldown
	}
	return &Engine{repo: repo, sender: sender, cfg: cfg, now: time.Now}
}

// WithClock fija el reloj. Sólo para tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// SendMeta acompaña la emisión con datos del request para auditoría.
type SendMeta struct {
	IP        string
	UserAgent string
}

// Send genera y persiste un código nuevo para (identifier, typ) y lo
// despacha al sink de notificación. Si el código activo más reciente
// tiene menos de ResendCooldown de vida, rechaza con ErrThrottled.
// El fallo del sink se loguea y no aborta: el código ya está persistido.
func (e *Engine) Send(ctx context.Context, identifier string, typ repository.OTPType, meta SendMeta) error {
	now := e.now().UTC()

	if prev, err := e.repo.NewestActiveOTP(ctx, identifier, typ, now); err == nil {
		elapsed := now.Sub(prev.CreatedAt)
		if elapsed < e.cfg.ResendCooldown {
			retry := int((e.cfg.ResendCooldown - elapsed).Round(time.Second).Seconds())
			if retry < 1 {
				retry = 1
			}
			return ErrThrottled{RetryAfterSeconds: retry}
		}
	} else if !repository.IsNotFound(err) {
		return err
	}

	code, err := randomCode(e.cfg.Digits)
	if err != nil {
		return err
	}
	salt, err := randomSalt()
	if err != nil {
		return err
	}

	rec := &repository.OTPCode{
		ID:          uuid.NewString(),
		Identifier:  identifier,
		CodeHash:    hashCode(code, salt),
		Salt:        salt,
		Type:        typ,
		Attempts:    0,
		MaxAttempts: e.cfg.MaxAttempts,
		ExpiresAt:   now.Add(e.cfg.TTL),
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		CreatedAt:   now,
	}
	if err := e.repo.CreateOTP(ctx, rec); err != nil {
		return err
	}

	msg := notify.Message{
		To:      identifier,
		Subject: "Your verification code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(e.cfg.TTL.Minutes())),
	}
	if err := e.sender.Send(ctx, msg); err != nil {
		logger.From(ctx).Warn("otp delivery failed",
			logger.Component("otp"),
			logger.Identifier(identifier),
			logger.OTPType(string(typ)),
			logger.Err(err),
		)
	}
	return nil
}

// Verify valida code contra el código activo más reciente para
// (identifier, typ). El incremento de intentos se persiste antes de
// conocer el resultado de la comparación.
func (e *Engine) Verify(ctx context.Context, identifier string, typ repository.OTPType, code string) error {
	now := e.now().UTC()

	rec, err := e.repo.NewestActiveOTP(ctx, identifier, typ, now)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound{}
		}
		return err
	}

	if rec.Attempts >= rec.MaxAttempts {
		return ErrExhausted{}
	}

	rec.Attempts++
	if err := e.repo.UpdateOTP(ctx, rec); err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(hashCode(code, rec.Salt)), []byte(rec.CodeHash)) != 1 {
		// El último intento fallido reporta 0 restantes; recién el
		// siguiente verify corta con ErrExhausted.
		return ErrInvalid{RemainingAttempts: rec.MaxAttempts - rec.Attempts}
	}

	rec.Used = true
	return e.repo.UpdateOTP(ctx, rec)
}

// randomCode genera un código decimal de n dígitos con crypto/rand.
// Conserva ceros a la izquierda.
func randomCode(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

func randomSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashCode(code, salt string) string {
	return token.SHA256Hex(code + salt)
}

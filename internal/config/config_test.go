package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithSecretFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, "memory", cfg.Cache.Kind)
	require.Equal(t, "authpool", cfg.JWT.Issuer)
	require.Equal(t, 2*time.Hour, cfg.AccessTTL())
	require.Equal(t, 168*time.Hour, cfg.RefreshTTL())
	require.Equal(t, 5*time.Minute, cfg.OTPTTL())
	require.Equal(t, 6, cfg.OTP.Digits)
	require.Equal(t, 5, cfg.OTP.MaxAttempts)
	require.Equal(t, 60*time.Second, cfg.OTPResendCooldown())
	require.Equal(t, 2*time.Minute, cfg.QRTTL())
	require.Equal(t, 5, cfg.Rate.Login.Limit)
	require.Equal(t, time.Minute, cfg.LoginRateWindow())
	require.Equal(t, 8, cfg.Password.MinLength)
	require.Equal(t, "default", cfg.Bootstrap.DefaultPoolName)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "jwt.secret")
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9999"
jwt:
  secret: file-secret
  access_ttl: 30m
otp:
  digits: 4
  max_attempts: 3
bootstrap:
  seed: true
  default_pool_name: main
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Server.Addr)
	require.Equal(t, "file-secret", cfg.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.AccessTTL())
	require.Equal(t, 4, cfg.OTP.Digits)
	require.Equal(t, 3, cfg.OTP.MaxAttempts)
	require.True(t, cfg.Bootstrap.Seed)
	require.Equal(t, "main", cfg.Bootstrap.DefaultPoolName)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  secret: file-secret\n"), 0o600))

	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("OTP_MAX_ATTEMPTS", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.JWT.Secret)
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, 9, cfg.OTP.MaxAttempts)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "oracle")
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
		_, err := Load("")
		require.Error(t, err)
	})
}

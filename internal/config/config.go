package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ShutdownTimeout    string   `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis. Respalda revocación de tokens y rate limiting.
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Secret     string `yaml:"secret"`
		Issuer     string `yaml:"issuer"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	OTP struct {
		TTL            string `yaml:"ttl"`
		Digits         int    `yaml:"digits"`
		MaxAttempts    int    `yaml:"max_attempts"`
		ResendCooldown string `yaml:"resend_cooldown"`
	} `yaml:"otp"`

	QR struct {
		TTL string `yaml:"ttl"`
	} `yaml:"qr"`

	Rate struct {
		Enabled bool `yaml:"enabled"`

		Login struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`

		OTPSend struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"otp_send"`
	} `yaml:"rate"`

	Password struct {
		MinLength int `yaml:"min_length"`
	} `yaml:"password"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Bootstrap struct {
		// Crea el pool/app default y el RBAC base al arrancar.
		Seed            bool   `yaml:"seed"`
		DefaultPoolName string `yaml:"default_pool_name"`
	} `yaml:"bootstrap"`
}

// Load lee el YAML, aplica defaults, overrides por env y valida.
// path puede ser vacío: en ese caso se parte de un Config vacío
// y todo sale de defaults + variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "authpool"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "authpool"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "2h"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "168h" // 7d
	}
	if c.OTP.TTL == "" {
		c.OTP.TTL = "5m"
	}
	if c.OTP.Digits == 0 {
		c.OTP.Digits = 6
	}
	if c.OTP.MaxAttempts == 0 {
		c.OTP.MaxAttempts = 5
	}
	if c.OTP.ResendCooldown == "" {
		c.OTP.ResendCooldown = "60s"
	}
	if c.QR.TTL == "" {
		c.QR.TTL = "2m"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 5
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.OTPSend.Limit == 0 {
		c.Rate.OTPSend.Limit = 10
	}
	if c.Rate.OTPSend.Window == "" {
		c.Rate.OTPSend.Window = "1m"
	}
	if c.Password.MinLength == 0 {
		c.Password.MinLength = 8
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Bootstrap.DefaultPoolName == "" {
		c.Bootstrap.DefaultPoolName = "default"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate chequea invariantes mínimos y que las duraciones parseen.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret is required (JWT_SECRET)")
	}
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.dsn is required for postgres driver")
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	if c.Cache.Kind == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return fmt.Errorf("config: cache.redis.addr is required for redis cache")
	}
	for name, s := range map[string]string{
		"server.shutdown_timeout":            c.Server.ShutdownTimeout,
		"storage.postgres.conn_max_lifetime": c.Storage.Postgres.ConnMaxLifetime,
		"jwt.access_ttl":                     c.JWT.AccessTTL,
		"jwt.refresh_ttl":                    c.JWT.RefreshTTL,
		"otp.ttl":                            c.OTP.TTL,
		"otp.resend_cooldown":                c.OTP.ResendCooldown,
		"qr.ttl":                             c.QR.TTL,
		"rate.login.window":                  c.Rate.Login.Window,
		"rate.otp_send.window":               c.Rate.OTPSend.Window,
	} {
		if s == "" {
			continue
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// ---- Duraciones ya validadas ----

func (c *Config) AccessTTL() time.Duration         { return mustDur(c.JWT.AccessTTL) }
func (c *Config) RefreshTTL() time.Duration        { return mustDur(c.JWT.RefreshTTL) }
func (c *Config) OTPTTL() time.Duration            { return mustDur(c.OTP.TTL) }
func (c *Config) OTPResendCooldown() time.Duration { return mustDur(c.OTP.ResendCooldown) }
func (c *Config) QRTTL() time.Duration             { return mustDur(c.QR.TTL) }
func (c *Config) LoginRateWindow() time.Duration   { return mustDur(c.Rate.Login.Window) }
func (c *Config) OTPSendRateWindow() time.Duration { return mustDur(c.Rate.OTPSend.Window) }
func (c *Config) ShutdownTimeout() time.Duration   { return mustDur(c.Server.ShutdownTimeout) }

func mustDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	// OTP
	if v, ok := getEnvStr("OTP_TTL"); ok {
		c.OTP.TTL = v
	}
	if v, ok := getEnvInt("OTP_DIGITS"); ok {
		c.OTP.Digits = v
	}
	if v, ok := getEnvInt("OTP_MAX_ATTEMPTS"); ok {
		c.OTP.MaxAttempts = v
	}
	if v, ok := getEnvStr("OTP_RESEND_COOLDOWN"); ok {
		c.OTP.ResendCooldown = v
	}

	// QR
	if v, ok := getEnvStr("QR_TTL"); ok {
		c.QR.TTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvStr("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_OTP_SEND_LIMIT"); ok {
		c.Rate.OTPSend.Limit = v
	}
	if v, ok := getEnvStr("RATE_OTP_SEND_WINDOW"); ok {
		c.Rate.OTPSend.Window = v
	}

	// PASSWORD
	if v, ok := getEnvInt("PASSWORD_MIN_LENGTH"); ok {
		c.Password.MinLength = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = v
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}

	// BOOTSTRAP
	if v, ok := getEnvBool("BOOTSTRAP_SEED"); ok {
		c.Bootstrap.Seed = v
	}
	if v, ok := getEnvStr("BOOTSTRAP_DEFAULT_POOL_NAME"); ok {
		c.Bootstrap.DefaultPoolName = v
	}
}

// Command authpool arranca el servicio de identidad multi-tenant.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/authpool/internal/audit"
	"github.com/dropDatabas3/authpool/internal/auth"
	"github.com/dropDatabas3/authpool/internal/bootstrap"
	"github.com/dropDatabas3/authpool/internal/config"
	httpserver "github.com/dropDatabas3/authpool/internal/http"
	adminctrl "github.com/dropDatabas3/authpool/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/authpool/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/authpool/internal/http/controllers/health"
	rbacctrl "github.com/dropDatabas3/authpool/internal/http/controllers/rbac"
	"github.com/dropDatabas3/authpool/internal/http/router"
	"github.com/dropDatabas3/authpool/internal/metrics"
	"github.com/dropDatabas3/authpool/internal/notify"
	"github.com/dropDatabas3/authpool/internal/observability/logger"
	"github.com/dropDatabas3/authpool/internal/otp"
	"github.com/dropDatabas3/authpool/internal/qr"
	"github.com/dropDatabas3/authpool/internal/rate"
	"github.com/dropDatabas3/authpool/internal/rbac"
	"github.com/dropDatabas3/authpool/internal/security/password"
	"github.com/dropDatabas3/authpool/internal/security/token"
	"github.com/dropDatabas3/authpool/internal/store"
	"github.com/dropDatabas3/authpool/internal/store/memory"
	"github.com/dropDatabas3/authpool/internal/store/pg"
	"github.com/dropDatabas3/authpool/internal/tenant"
	migrations "github.com/dropDatabas3/authpool/migrations/postgres"
)

var configPath string

func main() {
	// .env es opcional; los overrides vienen de config.Load.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "authpool",
		Short:         "Servicio de identidad multi-tenant con user pools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "ruta al config YAML")

	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "authpool:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		ServiceName: "authpool",
	})
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return pg.Connect(ctx, pg.Config{
			DSN:          cfg.Storage.DSN,
			MaxOpenConns: cfg.Storage.Postgres.MaxConns,
			MaxIdleConns: cfg.Storage.Postgres.MinConns,
		})
	default:
		return memory.New(), nil
	}
}

func redisClient(cfg *config.Config) *rdb.Client {
	return rdb.NewClient(&rdb.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
}

func buildSender(cfg *config.Config) notify.Sender {
	if cfg.SMTP.Host == "" {
		return notify.NewLogSender()
	}
	s := notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	s.TLSMode = cfg.SMTP.TLS
	s.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
	s.Fallback = notify.NewLogSender()
	return s
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			// Revocación de tokens y rate limiting comparten backend.
			var (
				revocations token.RevocationStore
				loginLim    rate.Limiter
				otpSendLim  rate.Limiter
			)
			if cfg.Cache.Kind == "redis" {
				client := redisClient(cfg)
				defer client.Close()
				if err := client.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
				prefix := cfg.Cache.Redis.Prefix
				revocations = token.NewRedisRevocations(client, prefix)
				loginLim = rate.NewRedisLimiter(client, prefix+":rl:login", cfg.Rate.Login.Limit, cfg.LoginRateWindow())
				otpSendLim = rate.NewRedisLimiter(client, prefix+":rl:otp", cfg.Rate.OTPSend.Limit, cfg.OTPSendRateWindow())
			} else {
				revocations = token.NewMemoryRevocations()
				loginLim = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.LoginRateWindow())
				otpSendLim = rate.NewMemoryLimiter(cfg.Rate.OTPSend.Limit, cfg.OTPSendRateWindow())
			}
			if !cfg.Rate.Enabled {
				loginLim, otpSendLim = nil, nil
			}

			tokens := token.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTTL(), cfg.RefreshTTL(), revocations)
			recorder := audit.NewRecorder(st.Audit())
			policy := password.Policy{MinLength: cfg.Password.MinLength}

			otpEngine := otp.NewEngine(st.OTP(), buildSender(cfg), otp.Config{
				TTL:            cfg.OTPTTL(),
				Digits:         cfg.OTP.Digits,
				MaxAttempts:    cfg.OTP.MaxAttempts,
				ResendCooldown: cfg.OTPResendCooldown(),
			})
			qrSvc := qr.NewService(st.QR(), st.Users(), cfg.QRTTL())
			authSvc := auth.NewService(st.Users(), otpEngine, tokens, recorder, policy)
			engine := rbac.NewEngine(st.RBAC(), st.Users(), recorder)
			tenants := tenant.NewService(st.Pools(), st.Users(), recorder, policy)

			defaultPoolID, defaultAppID := "", ""
			if cfg.Bootstrap.Seed {
				res, err := bootstrap.Seed(ctx, tenants, engine, cfg.Bootstrap.DefaultPoolName)
				if err != nil {
					return fmt.Errorf("bootstrap: %w", err)
				}
				defaultPoolID = res.Pool.ID
				defaultAppID = res.App.AppID
				logger.L().Info("bootstrap ready",
					logger.PoolID(defaultPoolID),
					logger.Bool("created", res.CreatedNew),
				)
			}

			if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
				return fmt.Errorf("metrics: %w", err)
			}

			handler := router.New(router.Deps{
				Auth:           authctrl.NewController(authSvc, qrSvc, defaultPoolID, defaultAppID),
				RBAC:           rbacctrl.NewController(engine, defaultPoolID),
				Admin:          adminctrl.NewController(tenants, defaultPoolID),
				Health:         healthctrl.NewController(st),
				Tokens:         tokens,
				Users:          st.Users(),
				Engine:         engine,
				LoginLimiter:   loginLim,
				OTPSendLimiter: otpSendLim,
				AllowedOrigins: cfg.Server.CORSAllowedOrigins,
			})

			srv := httpserver.NewServer(cfg.Server.Addr, handler, cfg.ShutdownTimeout())
			return srv.Run(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de esquema en PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual: %q)", cfg.Storage.Driver)
			}

			ctx := context.Background()
			pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("pgxpool: %w", err)
			}
			defer pool.Close()

			names, err := fs.Glob(migrations.SchemaFS, migrations.SchemaDir+"/*.sql")
			if err != nil {
				return err
			}
			sort.Strings(names)
			for _, name := range names {
				sql, err := fs.ReadFile(migrations.SchemaFS, name)
				if err != nil {
					return err
				}
				if _, err := pool.Exec(ctx, string(sql)); err != nil {
					return fmt.Errorf("aplicando %s: %w", name, err)
				}
				logger.L().Info("migration applied", logger.String("file", name))
			}
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Crea el pool default, su aplicación y los roles base",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := context.Background()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			recorder := audit.NewRecorder(st.Audit())
			policy := password.Policy{MinLength: cfg.Password.MinLength}
			tenants := tenant.NewService(st.Pools(), st.Users(), recorder, policy)
			engine := rbac.NewEngine(st.RBAC(), st.Users(), recorder)

			res, err := bootstrap.Seed(ctx, tenants, engine, cfg.Bootstrap.DefaultPoolName)
			if err != nil {
				return err
			}
			fmt.Printf("pool: %s (%s)\napp_id: %s\ncreated: %v\n",
				res.Pool.Name, res.Pool.ID, res.App.AppID, res.CreatedNew)
			return nil
		},
	}
}

// Package router define las rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	adminctrl "github.com/dropDatabas3/authpool/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/authpool/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/authpool/internal/http/controllers/health"
	rbacctrl "github.com/dropDatabas3/authpool/internal/http/controllers/rbac"
	httperrors "github.com/dropDatabas3/authpool/internal/http/errors"
	mw "github.com/dropDatabas3/authpool/internal/http/middlewares"
	"github.com/dropDatabas3/authpool/internal/rate"
	"github.com/dropDatabas3/authpool/internal/rbac"
	"github.com/dropDatabas3/authpool/internal/security/token"
)

// Deps contiene las dependencias para construir el router completo.
type Deps struct {
	Auth   *authctrl.Controller
	RBAC   *rbacctrl.Controller
	Admin  *adminctrl.Controller
	Health *healthctrl.Controller

	Tokens *token.Service
	Users  repository.UserRepository
	Engine *rbac.Engine

	// Limiters por flujo. Nil desactiva el límite de ese flujo.
	LoginLimiter   rate.Limiter
	OTPSendLimiter rate.Limiter

	AllowedOrigins []string
}

// New construye el router con todas las rutas y middlewares globales.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithRecover())
	r.Use(mw.WithLogging())
	r.Use(mw.WithMetrics())
	r.Use(mw.WithCORS(d.AllowedOrigins))

	requireAuth := mw.RequireAuth(d.Tokens, d.Users)
	loginLimit := mw.WithRateLimit(d.LoginLimiter, "login")
	otpSendLimit := mw.WithRateLimit(d.OTPSendLimiter, "otp_send")

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrMethodNotAllowed)
	})

	r.Get("/healthz", d.Health.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ─── Flujos de autenticación ───
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(loginLimit)
				r.Post("/login", d.Auth.Login)
				r.Post("/otp/login", d.Auth.LoginOTP)
				r.Post("/register", d.Auth.Register)
				r.Post("/reset-password", d.Auth.ResetPassword)
			})
			r.With(otpSendLimit).Post("/otp/send", d.Auth.SendOTP)
			r.Post("/refresh", d.Auth.Refresh)
			r.With(requireAuth).Post("/logout", d.Auth.Logout)

			r.Route("/qr", func(r chi.Router) {
				r.Post("/create", d.Auth.QRCreate)
				r.Get("/{scene_id}/status", d.Auth.QRStatus)
				// Scan y confirm los ejecuta el dispositivo ya autenticado.
				r.With(requireAuth).Post("/{scene_id}/scan", d.Auth.QRScan)
				r.With(requireAuth).Post("/{scene_id}/confirm", d.Auth.QRConfirm)
			})
		})

		// ─── RBAC ───
		r.Route("/rbac", func(r chi.Router) {
			r.Use(requireAuth)

			roleRead := mw.RequirePermission(d.Engine, "role", "read")
			roleWrite := mw.RequirePermission(d.Engine, "role", "write")
			permRead := mw.RequirePermission(d.Engine, "permission", "read")
			permWrite := mw.RequirePermission(d.Engine, "permission", "write")
			userWrite := mw.RequirePermission(d.Engine, "user", "write")
			userRead := mw.RequirePermission(d.Engine, "user", "read")

			r.With(roleWrite).Post("/roles", d.RBAC.CreateRole)
			r.With(roleRead).Get("/roles", d.RBAC.ListRoles)
			r.With(roleRead).Get("/roles/{id}", d.RBAC.GetRole)
			r.With(roleWrite).Put("/roles/{id}", d.RBAC.UpdateRole)
			r.With(roleWrite).Delete("/roles/{id}", d.RBAC.DeleteRole)
			r.With(roleWrite).Post("/roles/{id}/permissions", d.RBAC.AssignRolePermissions)
			r.With(roleRead).Get("/roles/{id}/permissions", d.RBAC.GetRolePermissions)

			r.With(permWrite).Post("/permissions", d.RBAC.CreatePermission)
			r.With(permRead).Get("/permissions", d.RBAC.ListPermissions)
			r.With(permRead).Get("/permissions/{id}", d.RBAC.GetPermission)
			r.With(permWrite).Put("/permissions/{id}", d.RBAC.UpdatePermission)
			r.With(permWrite).Delete("/permissions/{id}", d.RBAC.DeletePermission)

			r.With(userWrite).Post("/users/{id}/roles", d.RBAC.AssignUserRoles)
			r.With(userWrite).Delete("/users/{id}/roles", d.RBAC.RevokeUserRoles)
			r.With(userRead).Get("/users/{id}/roles", d.RBAC.GetUserRoles)
			r.With(userRead).Get("/users/{id}/permissions", d.RBAC.GetUserPermissions)
			r.With(userRead).Post("/users/{id}/check", d.RBAC.CheckPermission)

			r.With(roleWrite).Post("/init", d.RBAC.InitDefaults)
		})

		// ─── Gestión de pools y aplicaciones ───
		r.Route("/pools", func(r chi.Router) {
			r.Use(requireAuth)
			poolRead := mw.RequirePermission(d.Engine, "role", "read")
			poolWrite := mw.RequirePermission(d.Engine, "role", "write")

			r.With(poolWrite).Post("/", d.Admin.CreatePool)
			r.With(poolRead).Get("/", d.Admin.ListPools)
			r.With(poolRead).Get("/{id}", d.Admin.GetPool)
			r.With(poolWrite).Put("/{id}", d.Admin.UpdatePool)
			r.With(poolWrite).Post("/{id}/applications", d.Admin.CreateApplication)
			r.With(poolRead).Get("/{id}/applications", d.Admin.ListApplications)
		})

		// ─── Gestión de usuarios ───
		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			userRead := mw.RequirePermission(d.Engine, "user", "read")
			userWrite := mw.RequirePermission(d.Engine, "user", "write")
			userDelete := mw.RequirePermission(d.Engine, "user", "delete")

			// Rutas "me" primero: solo requieren sesión válida.
			r.Get("/me", d.Auth.Me)
			r.Post("/me/change-password", d.Admin.ChangePassword)

			r.With(userWrite).Post("/", d.Admin.CreateUser)
			r.With(userRead).Get("/", d.Admin.ListUsers)
			r.With(userRead).Get("/{id}", d.Admin.GetUser)
			r.With(userWrite).Put("/{id}", d.Admin.UpdateUser)
			r.With(userDelete).Delete("/{id}", d.Admin.DeleteUser)
			r.With(userWrite).Post("/{id}/reset-password", d.Admin.ResetPassword)
		})
	})

	return r
}

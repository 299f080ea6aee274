package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/security/token"
)

// RequireAuth valida Authorization: Bearer <JWT access> y carga el
// usuario en el contexto. Token inválido, revocado o de tipo refresh
// responde 401; usuario inexistente o bloqueado también corta acá.
func RequireAuth(tokens *token.Service, users repository.UserRepository) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, r, errors.ErrTokenMissing)
				return
			}

			claims, err := tokens.Verify(r.Context(), raw, token.TypeAccess)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, r, errors.ErrTokenInvalid)
				return
			}

			user, err := users.GetUser(r.Context(), claims.UserID)
			if err != nil {
				if repository.IsNotFound(err) {
					errors.WriteError(w, r, errors.ErrTokenInvalid)
					return
				}
				errors.WriteError(w, r, err)
				return
			}
			if user.Status == repository.UserBlocked {
				errors.WriteError(w, r, errors.ErrUserBlocked)
				return
			}

			ctx := setClaims(r.Context(), claims)
			ctx = setUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(ah[len("Bearer "):]), true
}

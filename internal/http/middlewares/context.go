package middlewares

import (
	"context"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/security/token"
)

type ridKey struct{}
type claimsKey struct{}
type userKey struct{}

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ridKey{}, rid)
}

// GetRequestID retorna el request ID inyectado por WithRequestID, o "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ridKey{}).(string)
	return v
}

func setClaims(ctx context.Context, c token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// GetClaims retorna las claims del access token validado por RequireAuth.
func GetClaims(ctx context.Context) (token.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(token.Claims)
	return c, ok
}

func setUser(ctx context.Context, u *repository.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// GetUser retorna el usuario autenticado cargado por RequireAuth.
func GetUser(ctx context.Context) *repository.User {
	u, _ := ctx.Value(userKey{}).(*repository.User)
	return u
}

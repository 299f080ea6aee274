package auth

import (
	"net/http"

	authsvc "github.com/dropDatabas3/authpool/internal/auth"
	dto "github.com/dropDatabas3/authpool/internal/http/dto/auth"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/metrics"
)

// Login maneja POST /api/v1/auth/login
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Identifier == "" || req.Password == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("identifier and password are required"))
		return
	}

	pair, err := c.auth.LoginByPassword(r.Context(), c.poolID(req.PoolID), req.Identifier, req.Password, requestMeta(r))
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("password", "fail").Inc()
		errors.WriteError(w, r, err)
		return
	}
	metrics.LoginAttempts.WithLabelValues("password", "ok").Inc()
	helpers.WriteJSON(w, http.StatusOK, dto.NewTokenResponse(pair))
}

func requestMeta(r *http.Request) authsvc.RequestMeta {
	return authsvc.RequestMeta{
		IP:        helpers.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

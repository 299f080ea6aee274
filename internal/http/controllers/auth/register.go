package auth

import (
	"net/http"

	authsvc "github.com/dropDatabas3/authpool/internal/auth"
	dto "github.com/dropDatabas3/authpool/internal/http/dto/auth"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
)

// Register maneja POST /api/v1/auth/register
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("password is required"))
		return
	}

	user, err := c.auth.Register(r.Context(), c.poolID(req.PoolID), authsvc.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Nickname: req.Nickname,
		Profile:  req.Profile,
	}, requestMeta(r))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.NewUserView(user))
}

// Refresh maneja POST /api/v1/auth/refresh
func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("refresh_token is required"))
		return
	}

	pair, err := c.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewTokenResponse(pair))
}

// ResetPassword maneja POST /api/v1/auth/reset-password
func (c *Controller) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Identifier == "" || req.Code == "" || req.NewPassword == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("identifier, code and new_password are required"))
		return
	}

	if err := c.auth.ResetPasswordByOTP(r.Context(), c.poolID(req.PoolID), req.Identifier, req.Code, req.NewPassword, requestMeta(r)); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

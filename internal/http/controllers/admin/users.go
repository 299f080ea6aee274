package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	dto "github.com/dropDatabas3/authpool/internal/http/dto/admin"
	authdto "github.com/dropDatabas3/authpool/internal/http/dto/auth"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/http/middlewares"
	"github.com/dropDatabas3/authpool/internal/tenant"
)

// CreateUser maneja POST /api/v1/users (alta administrativa)
func (c *Controller) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	user, err := c.tenants.CreateUser(r.Context(), c.poolID(req.PoolID), tenant.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Nickname:  req.Nickname,
		AvatarURL: req.AvatarURL,
		Profile:   req.Profile,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, authdto.NewUserView(user))
}

// GetUser maneja GET /api/v1/users/{id}
func (c *Controller) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := c.tenants.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, authdto.NewUserView(user))
}

// UpdateUser maneja PUT /api/v1/users/{id}
func (c *Controller) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	in := repository.UpdateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Phone:     req.Phone,
		Nickname:  req.Nickname,
		AvatarURL: req.AvatarURL,
		Profile:   req.Profile,
	}
	if req.Status != nil {
		st := repository.UserStatus(*req.Status)
		switch st {
		case repository.UserActive, repository.UserBlocked, repository.UserPending:
			in.Status = &st
		default:
			errors.WriteError(w, r, errors.ErrValidation.WithDetail("unknown user status"))
			return
		}
	}
	user, err := c.tenants.UpdateUser(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, authdto.NewUserView(user))
}

// ListUsers maneja GET /api/v1/users
func (c *Controller) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	users, total, err := c.tenants.ListUsers(r.Context(), c.poolID(r.URL.Query().Get("pool_id")), repository.ListUsersFilter{
		Status:  repository.UserStatus(r.URL.Query().Get("status")),
		Keyword: r.URL.Query().Get("keyword"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	items := make([]authdto.UserView, 0, len(users))
	for i := range users {
		items = append(items, *authdto.NewUserView(&users[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ListResponse[authdto.UserView]{
		Items: items, Total: total, Page: page, PerPage: perPage,
	})
}

// DeleteUser maneja DELETE /api/v1/users/{id}
// Baja lógica: el usuario queda bloqueado, no se borran sus filas.
func (c *Controller) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := c.tenants.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword maneja POST /api/v1/users/me/change-password
func (c *Controller) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor := middlewares.GetUser(r.Context())
	if actor == nil {
		errors.WriteError(w, r, errors.ErrTokenMissing)
		return
	}
	var req dto.ChangePasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.tenants.ChangePassword(r.Context(), actor.ID, req.OldPassword, req.NewPassword); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"changed": true})
}

// ResetPassword maneja POST /api/v1/users/{id}/reset-password (admin)
func (c *Controller) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.tenants.ResetPassword(r.Context(), chi.URLParam(r, "id"), req.NewPassword); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

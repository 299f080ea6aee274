package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	dto "github.com/dropDatabas3/authpool/internal/http/dto/admin"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/tenant"
)

// CreatePool maneja POST /api/v1/pools
func (c *Controller) CreatePool(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePoolRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("name is required"))
		return
	}
	pool, err := c.tenants.CreatePool(r.Context(), tenant.CreatePoolInput{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.NewPoolView(pool))
}

// GetPool maneja GET /api/v1/pools/{id}
func (c *Controller) GetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := c.tenants.GetPool(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewPoolView(pool))
}

// UpdatePool maneja PUT /api/v1/pools/{id}
func (c *Controller) UpdatePool(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePoolRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	in := repository.UpdatePoolInput{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	}
	if req.Status != nil {
		st := repository.PoolStatus(*req.Status)
		if st != repository.PoolActive && st != repository.PoolDisabled {
			errors.WriteError(w, r, errors.ErrValidation.WithDetail("unknown pool status"))
			return
		}
		in.Status = &st
	}
	pool, err := c.tenants.UpdatePool(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewPoolView(pool))
}

// ListPools maneja GET /api/v1/pools
func (c *Controller) ListPools(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	pools, total, err := c.tenants.ListPools(r.Context(), repository.ListPoolsFilter{
		Status:  repository.PoolStatus(r.URL.Query().Get("status")),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	items := make([]dto.PoolView, 0, len(pools))
	for i := range pools {
		items = append(items, dto.NewPoolView(&pools[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ListResponse[dto.PoolView]{
		Items: items, Total: total, Page: page, PerPage: perPage,
	})
}

// CreateApplication maneja POST /api/v1/pools/{id}/applications
// La respuesta incluye el app_secret completo una única vez.
func (c *Controller) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateApplicationRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("name is required"))
		return
	}
	app, err := c.tenants.CreateApplication(r.Context(), chi.URLParam(r, "id"), tenant.CreateApplicationInput{
		Name:                 req.Name,
		Type:                 repository.AppType(req.Type),
		Description:          req.Description,
		CallbackURLs:         req.CallbackURLs,
		LogoutURLs:           req.LogoutURLs,
		AllowedOrigins:       req.AllowedOrigins,
		TokenLifetime:        req.TokenLifetime,
		RefreshTokenLifetime: req.RefreshTokenLifetime,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.NewApplicationView(app, true))
}

// ListApplications maneja GET /api/v1/pools/{id}/applications
func (c *Controller) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := c.tenants.ListApplications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	items := make([]dto.ApplicationView, 0, len(apps))
	for i := range apps {
		items = append(items, dto.NewApplicationView(&apps[i], false))
	}
	helpers.WriteJSON(w, http.StatusOK, items)
}

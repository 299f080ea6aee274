package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/authpool/internal/http/dto/auth"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/http/middlewares"
	"github.com/dropDatabas3/authpool/internal/metrics"
	"github.com/dropDatabas3/authpool/internal/qr"
)

// QRCreate maneja POST /api/v1/auth/qr/create
func (c *Controller) QRCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.QRCreateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	appID := req.AppID
	if appID == "" {
		appID = c.defaultAppID
	}
	sess, err := c.qr.Create(r.Context(), c.poolID(req.PoolID), appID, qr.CreateMeta{
		IP:        helpers.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.NewQRSessionView(sess))
}

// QRStatus maneja GET /api/v1/auth/qr/{scene_id}/status
// Una sesión confirmada responde los tokens del usuario en el primer
// poll y sólo en ese: la entrega consume la sesión.
func (c *Controller) QRStatus(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "scene_id")
	sess, deliver, err := c.qr.Poll(r.Context(), sceneID)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	view := dto.NewQRSessionView(sess)
	if deliver {
		pair, err := c.auth.TokensForUserID(r.Context(), *sess.UserID)
		if err != nil {
			errors.WriteError(w, r, err)
			return
		}
		view.Tokens = dto.NewTokenResponse(pair)
		metrics.LoginAttempts.WithLabelValues("qr", "ok").Inc()
	}
	helpers.WriteJSON(w, http.StatusOK, view)
}

// QRScan maneja POST /api/v1/auth/qr/{scene_id}/scan (requiere auth).
func (c *Controller) QRScan(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "scene_id")
	sess, err := c.qr.Scan(r.Context(), sceneID)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewQRSessionView(sess))
}

// QRConfirm maneja POST /api/v1/auth/qr/{scene_id}/confirm (requiere auth).
func (c *Controller) QRConfirm(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "scene_id")
	var req dto.QRConfirmRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	user := middlewares.GetUser(r.Context())
	sess, err := c.qr.Confirm(r.Context(), sceneID, user, req.Confirm)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewQRSessionView(sess))
}

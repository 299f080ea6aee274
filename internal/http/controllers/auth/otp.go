package auth

import (
	"net/http"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	dto "github.com/dropDatabas3/authpool/internal/http/dto/auth"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/metrics"
	"github.com/dropDatabas3/authpool/internal/otp"
)

// SendOTP maneja POST /api/v1/auth/otp/send
func (c *Controller) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.OTPSendRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Identifier == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("identifier is required"))
		return
	}
	typ := repository.OTPType(req.Type)
	if req.Type == "" {
		typ = repository.OTPLogin
	}
	switch typ {
	case repository.OTPLogin, repository.OTPRegister, repository.OTPResetPassword, repository.OTPVerify:
	default:
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("unknown otp type"))
		return
	}

	if err := c.auth.SendOTP(r.Context(), req.Identifier, typ, requestMeta(r)); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	metrics.OTPSent.Inc()
	helpers.WriteJSON(w, http.StatusOK, dto.OTPSendResponse{Sent: true})
}

// LoginOTP maneja POST /api/v1/auth/otp/login
func (c *Controller) LoginOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.OTPLoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Identifier == "" || req.Code == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("identifier and code are required"))
		return
	}

	pair, err := c.auth.LoginByOTP(r.Context(), c.poolID(req.PoolID), req.Identifier, req.Code, requestMeta(r))
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("otp", "fail").Inc()
		metrics.OTPVerifications.WithLabelValues(otpResultLabel(err)).Inc()
		errors.WriteError(w, r, err)
		return
	}
	metrics.LoginAttempts.WithLabelValues("otp", "ok").Inc()
	metrics.OTPVerifications.WithLabelValues("ok").Inc()
	helpers.WriteJSON(w, http.StatusOK, dto.NewTokenResponse(pair))
}

func otpResultLabel(err error) string {
	switch err.(type) {
	case otp.ErrInvalid:
		return "invalid"
	case otp.ErrExhausted:
		return "exhausted"
	case otp.ErrNotFound:
		return "not_found"
	}
	return "error"
}

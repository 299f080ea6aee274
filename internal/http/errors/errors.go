// Package errors centraliza el contrato de error HTTP: un registro de
// AppError y el mapeo desde los errores de dominio. La causa interna
// de un 500 se loguea y nunca viaja al cliente.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/authpool/internal/observability/logger"
)

// errorResponse estructura interna para la serialización JSON.
type errorResponse struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	Detail            string `json:"detail,omitempty"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`
	RetryAfterSeconds *int   `json:"retry_after_seconds,omitempty"`
	RequestID         string `json:"request_id,omitempty"`
}

// WriteError escribe la respuesta HTTP para err, mapeando errores de
// dominio a AppError. Los 500 loguean la causa.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, extra := FromError(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed",
			logger.Component("http"),
			logger.Path(r.URL.Path),
			logger.Err(err),
		)
	}

	resp := errorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Detail:    appErr.Detail,
		RequestID: w.Header().Get("X-Request-ID"),
	}
	if extra != nil {
		resp.RemainingAttempts = extra.RemainingAttempts
		resp.RetryAfterSeconds = extra.RetryAfterSeconds
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if extra != nil && extra.RetryAfterSeconds != nil {
		w.Header().Set("Retry-After", itoa(*extra.RetryAfterSeconds))
	}
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

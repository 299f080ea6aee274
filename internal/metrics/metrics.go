// Package metrics define las métricas Prometheus del servicio. Package
// standalone para evitar ciclos de import entre services y HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duración de requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Intentos de login por método y resultado",
	}, []string{"method", "result"}) // method: password|otp|qr, result: ok|fail

	OTPSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otp_codes_sent_total",
		Help: "Códigos OTP emitidos",
	})

	OTPVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_verifications_total",
		Help: "Verificaciones de OTP por resultado",
	}, []string{"result"}) // ok|invalid|exhausted|not_found

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_total",
		Help: "Requests rechazados por rate limiting",
	}, []string{"scope"}) // login|otp_send
)

// Register registra todas las métricas en el registry dado
// (o el default si es nil). Idempotente.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		HTTPRequestDuration,
		LoginAttempts,
		OTPSent,
		OTPVerifications,
		RateLimited,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

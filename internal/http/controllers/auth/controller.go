// Package auth contiene los controllers de autenticación. Son capas
// finas: parsean, delegan al service y proyectan DTOs.
package auth

import (
	authsvc "github.com/dropDatabas3/authpool/internal/auth"
	"github.com/dropDatabas3/authpool/internal/qr"
)

// Controller agrupa los endpoints de /api/v1/auth.
type Controller struct {
	auth *authsvc.Service
	qr   *qr.Service

	// DefaultPoolID se usa cuando el request no trae pool_id.
	defaultPoolID string
	defaultAppID  string
}

func NewController(auth *authsvc.Service, qrSvc *qr.Service, defaultPoolID, defaultAppID string) *Controller {
	return &Controller{auth: auth, qr: qrSvc, defaultPoolID: defaultPoolID, defaultAppID: defaultAppID}
}

func (c *Controller) poolID(requested string) string {
	if requested != "" {
		return requested
	}
	return c.defaultPoolID
}

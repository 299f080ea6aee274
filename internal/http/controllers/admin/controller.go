// Package admin contiene los controllers del plano de gestión:
// pools, aplicaciones y usuarios.
package admin

import (
	"net/http"
	"strconv"

	"github.com/dropDatabas3/authpool/internal/tenant"
)

// Controller agrupa los endpoints de /api/v1/pools y /api/v1/users.
type Controller struct {
	tenants       *tenant.Service
	defaultPoolID string
}

func NewController(tenants *tenant.Service, defaultPoolID string) *Controller {
	return &Controller{tenants: tenants, defaultPoolID: defaultPoolID}
}

func (c *Controller) poolID(requested string) string {
	if requested != "" {
		return requested
	}
	return c.defaultPoolID
}

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

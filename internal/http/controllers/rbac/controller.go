// Package rbac contiene los controllers de roles y permisos.
package rbac

import (
	"net/http"
	"strconv"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/rbac"
)

// Controller agrupa los endpoints de /api/v1/rbac.
type Controller struct {
	engine        *rbac.Engine
	defaultPoolID string
}

func NewController(engine *rbac.Engine, defaultPoolID string) *Controller {
	return &Controller{engine: engine, defaultPoolID: defaultPoolID}
}

func (c *Controller) poolID(requested string) string {
	if requested != "" {
		return requested
	}
	return c.defaultPoolID
}

// listFilter arma la paginación desde la query string.
func listFilter(r *http.Request) repository.ListFilter {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return repository.ListFilter{Page: page, PerPage: perPage}
}

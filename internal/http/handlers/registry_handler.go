// Registry HTTP handlers.
//
// Read-only access to the seeded category and status registries:
//   - GET /categories  (active categories with running complaint counts)
//   - GET /statuses    (workflow statuses in progression order)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListCategories godoc
// @ID          listCategories
// @Summary     List complaint categories
// @Description Returns the active categories ordered by name, including their
// @Description running complaint counts.
// @Tags        Registries
// @Produce     json
//
// @Success     200  {object} handlers.Envelope
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	out, err := h.registrySvc.Categories(c.Request.Context())
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ListStatuses godoc
// @ID          listStatuses
// @Summary     List workflow statuses
// @Description Returns every workflow status in progression order.
// @Tags        Registries
// @Produce     json
//
// @Success     200  {object} handlers.Envelope
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /statuses [get]
func (h *Handlers) ListStatuses(c *gin.Context) {
	out, err := h.registrySvc.Statuses(c.Request.Context())
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

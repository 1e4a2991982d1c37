// Administrative HTTP handlers.
//
// This file exposes REST endpoints for complaint administration:
//   - GET /admin/complaints             (unscoped listing with filters and search)
//   - GET /admin/complaints/{id}        (full record with status history)
//   - PUT /admin/complaints/{id}/status (status transition with history entry)
//   - PUT /admin/complaints/{id}/assign (assign a responsible admin)
//
// Role enforcement (admin/super_admin) happens in routing middleware; these
// handlers assume the caller already passed it.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civicconnect/go-complaints-backend/internal/http/middleware"
	"github.com/civicconnect/go-complaints-backend/internal/services"
)

//
// DTOs
//

// UpdateStatusRequest is the JSON payload for a status transition.
type UpdateStatusRequest struct {
	// Status is the target status registry id.
	Status string `json:"status" binding:"required" example:"5f0b0d7e-26e7-4b43-9c3b-0a87a2b1e001"`
	// Notes optionally documents the transition; also stored as resolution notes.
	Notes string `json:"notes,omitempty" example:"Road crew scheduled for Monday"`
	// EstimatedResolutionDate optionally forecasts completion (RFC 3339).
	EstimatedResolutionDate *time.Time `json:"estimatedResolutionDate,omitempty"`
}

// AssignRequest is the JSON payload for assigning a responsible admin.
type AssignRequest struct {
	AdminID string `json:"adminId" binding:"required" example:"adm-42"`
}

//
// Handlers
//

// AdminListComplaints godoc
// @ID          adminListComplaints
// @Summary     List all complaints (admin)
// @Description Returns a page of complaints across all submitters with optional
// @Description status/category/priority filters, city/state matching, and free-text search.
// @Tags        Admin
// @Produce     json
//
// @Param       page      query  int     false "Page number"      minimum(1) default(1)
// @Param       limit     query  int     false "Items per page"   minimum(1) maximum(100) default(10)
// @Param       status    query  string  false "Status ID filter"
// @Param       category  query  string  false "Category ID filter"
// @Param       priority  query  string  false "Priority filter"  Enums(Low, Medium, High, Critical)
// @Param       city      query  string  false "City filter (case-insensitive)"
// @Param       state     query  string  false "State filter (case-insensitive)"
// @Param       search    query  string  false "Free-text search over title, description, complaint number"
// @Param       sort      query  string  false "Sort key, '-' prefix for descending"  example(-created_at)
//
// @Success     200  {object} handlers.ListEnvelope
// @Failure     403  {object} handlers.Envelope "Admin role required"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /admin/complaints [get]
func (h *Handlers) AdminListComplaints(c *gin.Context) {
	page, limit := clampPagination(c)

	items, total, err := h.adminSvc.List(c.Request.Context(), services.AdminListOptions{
		Page:       page,
		Limit:      limit,
		StatusID:   c.Query("status"),
		CategoryID: c.Query("category"),
		Priority:   c.Query("priority"),
		City:       c.Query("city"),
		State:      c.Query("state"),
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	okList(c, items, len(items), page, limit, total)
}

// AdminGetComplaint godoc
// @ID          adminGetComplaint
// @Summary     Get one complaint (admin)
// @Description Returns the full complaint record including its status history.
// @Tags        Admin
// @Produce     json
//
// @Param       id  path  string  true  "Complaint ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.Envelope
// @Failure     404  {object} handlers.Envelope "Complaint not found"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /admin/complaints/{id} [get]
func (h *Handlers) AdminGetComplaint(c *gin.Context) {
	out, err := h.adminSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// AdminUpdateStatus godoc
// @ID          adminUpdateStatus
// @Summary     Transition a complaint's status
// @Description Updates the live status, appends a history entry, and on the first
// @Description transition into Resolved stamps the actual resolution date.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Complaint ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateStatusRequest  true  "Target status and notes"
//
// @Success     200  {object} handlers.Envelope
// @Failure     400  {object} handlers.Envelope "Invalid status reference"
// @Failure     404  {object} handlers.Envelope "Complaint not found"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /admin/complaints/{id}/status [put]
func (h *Handlers) AdminUpdateStatus(c *gin.Context) {
	uid, _ := actor(c)

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	out, err := h.adminSvc.UpdateStatus(c.Request.Context(), uid, c.Param("id"), services.StatusUpdateInput{
		StatusID:                req.Status,
		Notes:                   req.Notes,
		EstimatedResolutionDate: req.EstimatedResolutionDate,
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	if out.Status != nil {
		middleware.ObserveStatusTransition(out.Status.Name)
	}
	ok(c, http.StatusOK, out)
}

// AdminAssignComplaint godoc
// @ID          adminAssignComplaint
// @Summary     Assign a complaint to an admin
// @Description Sets the admin responsible for the complaint. The target account
// @Description must exist and hold an administrative role.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Complaint ID (UUID)"  format(uuid)
// @Param       body  body  handlers.AssignRequest  true  "Assignee"
//
// @Success     200  {object} handlers.Envelope
// @Failure     400  {object} handlers.Envelope "Target is not an admin account"
// @Failure     404  {object} handlers.Envelope "Complaint not found"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /admin/complaints/{id}/assign [put]
func (h *Handlers) AdminAssignComplaint(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "adminId required")
		return
	}

	out, err := h.adminSvc.Assign(c.Request.Context(), c.Param("id"), req.AdminID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

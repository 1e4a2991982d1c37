// Public (unauthenticated) HTTP handlers.
//
// This file exposes the read-only public surface:
//   - GET /public/complaints       (publicly visible complaints, paginated)
//   - GET /public/complaints/{id}  (public detail; private reads as 404)
//   - GET /public/search           (free-text search, status-gated)
//
// Redaction happens here, at the transport layer: public responses never
// carry the status history, resolution notes, or the assigned admin, the
// detail view additionally drops the submitter id, and anonymous complaints
// hide the submitter entirely.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
	"github.com/civicconnect/go-complaints-backend/internal/repo"
	"github.com/civicconnect/go-complaints-backend/internal/services"
)

//
// DTOs
//

// PublicComplaint is the redacted rendering of a complaint for the
// unauthenticated surface.
type PublicComplaint struct {
	ID                      string                  `json:"id"`
	ComplaintNumber         string                  `json:"complaintNumber"`
	Title                   string                  `json:"title"`
	Description             string                  `json:"description"`
	Category                *domain.Category        `json:"category,omitempty"`
	Status                  *domain.Status          `json:"status,omitempty"`
	Priority                string                  `json:"priority"`
	Location                domain.Location         `json:"location"`
	UserID                  string                  `json:"userId,omitempty"`
	SubmittedBy             string                  `json:"submittedBy,omitempty"`
	IsAnonymous             bool                    `json:"isAnonymous"`
	Tags                    []string                `json:"tags"`
	Photos                  []domain.ComplaintPhoto `json:"photos"`
	ViewCount               int64                   `json:"viewCount"`
	Upvotes                 int64                   `json:"upvotes"`
	Downvotes               int64                   `json:"downvotes"`
	EstimatedResolutionDate *time.Time              `json:"estimatedResolutionDate,omitempty"`
	ActualResolutionDate    *time.Time              `json:"actualResolutionDate,omitempty"`
	CreatedAt               time.Time               `json:"createdAt"`
	UpdatedAt               time.Time               `json:"updatedAt"`
}

// publicView renders one complaint for the public surface. includeSubmitterID
// controls whether the submitter id is kept (listing) or dropped (detail);
// anonymous complaints never expose the submitter either way.
func publicView(c *domain.Complaint, includeSubmitterID bool) PublicComplaint {
	out := PublicComplaint{
		ID:                      c.ID,
		ComplaintNumber:         c.ComplaintNumber,
		Title:                   c.Title,
		Description:             c.Description,
		Category:                c.Category,
		Status:                  c.Status,
		Priority:                c.Priority,
		Location:                c.Location,
		IsAnonymous:             c.IsAnonymous,
		Tags:                    c.Tags,
		Photos:                  c.Photos,
		ViewCount:               c.ViewCount,
		Upvotes:                 c.Upvotes,
		Downvotes:               c.Downvotes,
		EstimatedResolutionDate: c.EstimatedResolutionDate,
		ActualResolutionDate:    c.ActualResolutionDate,
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Photos == nil {
		out.Photos = []domain.ComplaintPhoto{}
	}
	if !c.IsAnonymous {
		if includeSubmitterID {
			out.UserID = c.UserID
		}
		if c.User != nil {
			out.SubmittedBy = c.User.Name
		}
	}
	return out
}

// publicViews renders a listing page.
func publicViews(items []domain.Complaint) []PublicComplaint {
	out := make([]PublicComplaint, 0, len(items))
	for i := range items {
		out = append(out, publicView(&items[i], true))
	}
	return out
}

//
// Handlers
//

// PublicListComplaints godoc
// @ID          publicListComplaints
// @Summary     List public complaints
// @Description Returns a page of publicly visible complaints, redacted for
// @Description unauthenticated consumption. Supports weak ETag via If-None-Match.
// @Tags        Public
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page      query  int     false "Page number"      minimum(1) default(1)
// @Param       limit     query  int     false "Items per page"   minimum(1) maximum(100) default(10)
// @Param       category  query  string  false "Category ID filter"
// @Param       status    query  string  false "Status ID filter"
// @Param       city      query  string  false "City filter (case-insensitive)"
// @Param       sort      query  string  false "Sort key, '-' prefix for descending"  example(-upvotes)
//
// @Success     200  {object} handlers.ListEnvelope
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /public/complaints [get]
func (h *Handlers) PublicListComplaints(c *gin.Context) {
	ctx := c.Request.Context()
	page, limit := clampPagination(c)

	// ETag pre-check (best effort).
	if svc, okSvc := h.publicSvc.(*services.PublicService); okSvc && svc.DB != nil {
		count, maxTS, err := repo.PublicComplaintsStats(ctx, svc.DB)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"public:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.publicSvc.List(ctx, services.PublicListOptions{
		Page:       page,
		Limit:      limit,
		CategoryID: c.Query("category"),
		StatusID:   c.Query("status"),
		City:       c.Query("city"),
		Sort:       c.Query("sort"),
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	okList(c, publicViews(items), len(items), page, limit, total)
}

// PublicGetComplaint godoc
// @ID          publicGetComplaint
// @Summary     Get one public complaint
// @Description Returns a redacted single complaint. Complaints flagged private
// @Description are indistinguishable from missing ones (404).
// @Tags        Public
// @Produce     json
//
// @Param       id  path  string  true  "Complaint ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.Envelope
// @Failure     404  {object} handlers.Envelope "Complaint not found or private"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /public/complaints/{id} [get]
func (h *Handlers) PublicGetComplaint(c *gin.Context) {
	out, err := h.publicSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, publicView(out, false))
}

// PublicSearchComplaints godoc
// @ID          publicSearchComplaints
// @Summary     Search public complaints
// @Description Matches publicly visible complaints in the Resolved or In Progress
// @Description stages against q, over title, description, complaint number, and tags.
// @Tags        Public
// @Produce     json
//
// @Param       q      query  string  true  "Search text"
// @Param       page   query  int     false "Page number"     minimum(1) default(1)
// @Param       limit  query  int     false "Items per page"  minimum(1) maximum(100) default(10)
//
// @Success     200  {object} handlers.ListEnvelope
// @Failure     400  {object} handlers.Envelope "Missing search text"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /public/search [get]
func (h *Handlers) PublicSearchComplaints(c *gin.Context) {
	page, limit := clampPagination(c)

	items, total, err := h.publicSvc.Search(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	okList(c, publicViews(items), len(items), page, limit, total)
}

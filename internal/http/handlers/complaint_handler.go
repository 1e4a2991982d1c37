// Complaint HTTP handlers (citizen surface).
//
// This file exposes REST endpoints for complaint resources:
//   - POST   /complaints            (create, idempotent via Idempotency-Key)
//   - GET    /complaints            (list caller's own, paginated, ETag support)
//   - GET    /complaints/{id}       (detail with status history)
//   - PUT    /complaints/{id}       (owner edit, state-gated)
//   - DELETE /complaints/{id}       (owner delete, state-gated)
//   - POST   /complaints/{id}/vote  (up/down vote)
//
// Handlers are transport-thin: they validate input shape, call application
// services, and translate results into HTTP envelopes. Lifecycle rules
// (ownership, state gates, numbering) live in the service layer.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// submission exists for (user, key), the handler returns the recorded
// complaint and sets `Idempotency-Replayed: true` instead of creating a
// duplicate.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
	"github.com/civicconnect/go-complaints-backend/internal/http/middleware"
	"github.com/civicconnect/go-complaints-backend/internal/repo"
	"github.com/civicconnect/go-complaints-backend/internal/services"
	"github.com/civicconnect/go-complaints-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ComplaintService defines the citizen-facing lifecycle operations consumed
// by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ComplaintService interface {
	// Create validates and persists a new complaint for userID.
	Create(ctx context.Context, userID string, in services.CreateComplaintInput) (*domain.Complaint, error)
	// Get returns one complaint; citizens may only read their own.
	Get(ctx context.Context, actorID, role, id string) (*domain.Complaint, error)
	// ListMine returns a page of the caller's complaints and the total count.
	ListMine(ctx context.Context, userID string, opts services.ListOptions) ([]domain.Complaint, int64, error)
	// Update applies an owner edit, gated on the current workflow state.
	Update(ctx context.Context, userID, id string, in services.UpdateComplaintInput) (*domain.Complaint, error)
	// Delete removes a complaint while it is still in the Submitted state.
	Delete(ctx context.Context, userID, id string) error
	// Vote increments the up or down counter and returns the fresh totals.
	Vote(ctx context.Context, id, direction string) (up, down int64, err error)
}

// AdminService defines the administrative lifecycle operations consumed by
// HTTP handlers. Role enforcement happens in routing middleware.
type AdminService interface {
	// List returns a page of complaints across all submitters.
	List(ctx context.Context, opts services.AdminListOptions) ([]domain.Complaint, int64, error)
	// Get returns the full record including status history.
	Get(ctx context.Context, id string) (*domain.Complaint, error)
	// UpdateStatus transitions a complaint and appends a history entry.
	UpdateStatus(ctx context.Context, adminID, complaintID string, in services.StatusUpdateInput) (*domain.Complaint, error)
	// Assign sets the admin responsible for a complaint.
	Assign(ctx context.Context, complaintID, adminID string) (*domain.Complaint, error)
}

// PublicService defines the unauthenticated read operations consumed by
// HTTP handlers. Responses are redacted at this transport layer.
type PublicService interface {
	// List returns a page of publicly visible complaints.
	List(ctx context.Context, opts services.PublicListOptions) ([]domain.Complaint, int64, error)
	// Get returns one publicly visible complaint; private ones read as absent.
	Get(ctx context.Context, id string) (*domain.Complaint, error)
	// Search matches public complaints in searchable statuses against q.
	Search(ctx context.Context, q string, page, limit int) ([]domain.Complaint, int64, error)
}

// RegistryService defines read access to the category and status registries.
type RegistryService interface {
	// Categories returns the active categories ordered by name.
	Categories(ctx context.Context) ([]domain.Category, error)
	// Statuses returns every workflow status in progression order.
	Statuses(ctx context.Context) ([]domain.Status, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for complaints, administration, the public
// surface, and the registries. It depends on abstract service interfaces to
// keep transport concerns separate from business logic.
type Handlers struct {
	complaintSvc ComplaintService
	adminSvc     AdminService
	publicSvc    PublicService
	registrySvc  RegistryService
	idemTTL      time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
// idemTTL bounds how long a recorded Idempotency-Key replays; zero or negative
// falls back to 24h.
func New(complaintSvc ComplaintService, adminSvc AdminService, publicSvc PublicService, registrySvc RegistryService, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{
		complaintSvc: complaintSvc,
		adminSvc:     adminSvc,
		publicSvc:    publicSvc,
		registrySvc:  registrySvc,
		idemTTL:      idemTTL,
	}
}

// actor extracts the authenticated user id and role from Gin context (set by
// upstream auth middleware). If absent, it falls back to the demo headers
// (tests use them) and the citizen role. It never touches c.Request if it's nil.
func actor(c *gin.Context) (id, role string) {
	id = middleware.UserID(c)
	role = middleware.UserRole(c)
	if id == "" && c != nil && c.Request != nil {
		id = strings.TrimSpace(c.GetHeader("X-User-ID"))
	}
	if role == "" && c != nil && c.Request != nil {
		role = strings.TrimSpace(c.GetHeader("X-User-Role"))
	}
	if role == "" {
		role = domain.RoleCitizen
	}
	return id, role
}

//
// DTOs
//

// LocationPayload is the embedded address block in complaint payloads.
type LocationPayload struct {
	Lat     float64 `json:"lat" example:"12.9"`
	Lng     float64 `json:"lng" example:"77.6"`
	Address string  `json:"address" example:"Main St"`
	City    string  `json:"city" example:"Bangalore"`
	State   string  `json:"state" example:"KA"`
	Pincode string  `json:"pincode" example:"560001"`
}

// PhotoPayload references one externally hosted photo.
type PhotoPayload struct {
	URL      string `json:"url" example:"https://img.example.com/pothole.jpg"`
	PublicID string `json:"publicId" example:"civic/abc123"`
	Caption  string `json:"caption,omitempty" example:"Close-up of the pothole"`
}

// CreateComplaintRequest is the JSON payload for submitting a complaint.
type CreateComplaintRequest struct {
	Title       string          `json:"title" binding:"required" example:"Pothole on Main St"`
	Description string          `json:"description" binding:"required" example:"Deep pothole near the bus stop"`
	Category    string          `json:"category" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Priority    string          `json:"priority,omitempty" example:"High"`
	Location    LocationPayload `json:"location"`
	Photos      []PhotoPayload  `json:"photos,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	IsPublic    *bool           `json:"isPublic,omitempty"`
	IsAnonymous bool            `json:"isAnonymous,omitempty"`
}

// UpdateComplaintRequest is the JSON payload for an owner edit. Absent fields
// are left unchanged; tags and photos replace the stored sets when present.
type UpdateComplaintRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Priority    *string          `json:"priority,omitempty"`
	Location    *LocationPayload `json:"location,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Photos      []PhotoPayload   `json:"photos,omitempty"`
	IsPublic    *bool            `json:"isPublic,omitempty"`
	IsAnonymous *bool            `json:"isAnonymous,omitempty"`
}

// VoteRequest is the JSON payload for voting on a complaint.
type VoteRequest struct {
	Vote string `json:"vote" binding:"required" example:"up"`
}

// VoteResult carries the fresh vote totals after a vote.
type VoteResult struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

//
// Helpers
//

// clampPagination parses and bounds page and limit query params to sane
// defaults and limits, returning (page, limit).
func clampPagination(c *gin.Context) (page, limit int) {
	const (
		defaultPage  = 1
		defaultLimit = 10
		maxLimit     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	limit = utils.AtoiDefault(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return
}

// photoInputs converts payload photo references to service inputs.
func photoInputs(photos []PhotoPayload) []services.PhotoInput {
	if photos == nil {
		return nil
	}
	out := make([]services.PhotoInput, 0, len(photos))
	for _, p := range photos {
		out = append(out, services.PhotoInput{URL: p.URL, PublicID: p.PublicID, Caption: p.Caption})
	}
	return out
}

// toLocation converts a payload address block to the embedded domain value.
func toLocation(l LocationPayload) domain.Location {
	return domain.Location{
		Lat:     l.Lat,
		Lng:     l.Lng,
		Address: l.Address,
		City:    l.City,
		State:   l.State,
		Pincode: l.Pincode,
	}
}

//
// Handlers
//

// CreateComplaint godoc
// @ID          createComplaint
// @Summary     Submit a new complaint
// @Description Creates a complaint for the current user, assigns the complaint number,
// @Description and records the first status history entry.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Complaints
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateComplaintRequest  true  "Complaint payload"
//
// @Success     201  {object}  handlers.Envelope
// @Failure     400  {object}  handlers.Envelope  "Validation or reference error"
// @Failure     500  {object}  handlers.Envelope  "Internal error"
// @Router      /complaints [post]
func (h *Handlers) CreateComplaint(c *gin.Context) {
	ctx := c.Request.Context()
	uid, _ := actor(c)

	var req CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey == "" {
		idemKey = strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	}
	if idemKey != "" {
		if db := h.complaintDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, uid, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetComplaint(ctx, db, rec.ComplaintID, false); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, prev)
					return
				}
			}
		}
	}

	out, err := h.complaintSvc.Create(ctx, uid, services.CreateComplaintInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.Category,
		Priority:    req.Priority,
		Location:    toLocation(req.Location),
		Photos:      photoInputs(req.Photos),
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.complaintDB(); db != nil {
			_, _ = repo.CreateIdempotency(ctx, db, uid, idemKey, out.ID, http.StatusCreated, h.idemTTL)
		}
	}

	middleware.ObserveComplaintCreated()
	ok(c, http.StatusCreated, out)
}

// ListComplaints godoc
// @ID          listComplaints
// @Summary     List the caller's complaints (paginated)
// @Description Returns a page of the user's own complaints. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Complaints
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"      minimum(1) default(1)
// @Param       limit          query   int     false "Items per page"   minimum(1) maximum(100) default(10)
// @Param       status         query   string  false "Status ID filter"
// @Param       category       query   string  false "Category ID filter"
// @Param       priority       query   string  false "Priority filter"  Enums(Low, Medium, High, Critical)
// @Param       sort           query   string  false "Sort key, '-' prefix for descending"  example(-created_at)
//
// @Success     200  {object} handlers.ListEnvelope
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /complaints [get]
func (h *Handlers) ListComplaints(c *gin.Context) {
	ctx := c.Request.Context()
	uid, _ := actor(c)
	page, limit := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.complaintDB(); db != nil {
		count, maxTS, err := repo.UserComplaintsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"complaints:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.complaintSvc.ListMine(ctx, uid, services.ListOptions{
		Page:       page,
		Limit:      limit,
		StatusID:   c.Query("status"),
		CategoryID: c.Query("category"),
		Priority:   c.Query("priority"),
		Sort:       c.Query("sort"),
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	okList(c, items, len(items), page, limit, total)
}

// GetComplaint godoc
// @ID          getComplaint
// @Summary     Get one complaint
// @Description Returns a single complaint with its status history. Citizens can only
// @Description read their own complaints; reading bumps the view counter.
// @Tags        Complaints
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Complaint ID (UUID)"    format(uuid)
//
// @Success     200  {object} handlers.Envelope
// @Failure     403  {object} handlers.Envelope "Not the owner"
// @Failure     404  {object} handlers.Envelope "Complaint not found"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /complaints/{id} [get]
func (h *Handlers) GetComplaint(c *gin.Context) {
	uid, role := actor(c)
	out, err := h.complaintSvc.Get(c.Request.Context(), uid, role, c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// UpdateComplaint godoc
// @ID          updateComplaint
// @Summary     Edit a complaint
// @Description Owner-only edit, allowed while the complaint is still in the
// @Description Submitted or Under Review status.
// @Tags        Complaints
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Complaint ID (UUID)"    format(uuid)
// @Param       body       body    handlers.UpdateComplaintRequest  true  "Fields to change"
//
// @Success     200  {object} handlers.Envelope
// @Failure     400  {object} handlers.Envelope "Validation error or state conflict"
// @Failure     403  {object} handlers.Envelope "Not the owner"
// @Failure     404  {object} handlers.Envelope "Complaint not found"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /complaints/{id} [put]
func (h *Handlers) UpdateComplaint(c *gin.Context) {
	uid, _ := actor(c)

	var req UpdateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	in := services.UpdateComplaintInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Tags:        req.Tags,
		Photos:      photoInputs(req.Photos),
		IsPublic:    req.IsPublic,
		IsAnonymous: req.IsAnonymous,
	}
	if req.Location != nil {
		loc := toLocation(*req.Location)
		in.Location = &loc
	}

	out, err := h.complaintSvc.Update(c.Request.Context(), uid, c.Param("id"), in)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// DeleteComplaint godoc
// @ID          deleteComplaint
// @Summary     Delete a complaint
// @Description Owner-only delete, allowed only while the status is Submitted.
// @Description Reverses the category and submitter counters.
// @Tags        Complaints
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Complaint ID (UUID)"    format(uuid)
//
// @Success     200  {object} handlers.Envelope
// @Failure     400  {object} handlers.Envelope "State conflict"
// @Failure     403  {object} handlers.Envelope "Not the owner"
// @Failure     404  {object} handlers.Envelope "Complaint not found"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /complaints/{id} [delete]
func (h *Handlers) DeleteComplaint(c *gin.Context) {
	uid, _ := actor(c)
	if err := h.complaintSvc.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		mapServiceError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "complaint deleted successfully")
}

// VoteComplaint godoc
// @ID          voteComplaint
// @Summary     Vote on a complaint
// @Description Increments the up or down vote counter. Votes are not deduplicated.
// @Tags        Complaints
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Complaint ID (UUID)"  format(uuid)
// @Param       body  body  handlers.VoteRequest  true  "Vote direction"
//
// @Success     200  {object} handlers.Envelope
// @Failure     400  {object} handlers.Envelope "Invalid direction"
// @Failure     404  {object} handlers.Envelope "Complaint not found"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /complaints/{id}/vote [post]
func (h *Handlers) VoteComplaint(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `vote must be "up" or "down"`)
		return
	}

	up, down, err := h.complaintSvc.Vote(c.Request.Context(), c.Param("id"), req.Vote)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	middleware.ObserveVote(req.Vote)
	ok(c, http.StatusOK, VoteResult{Upvotes: up, Downvotes: down})
}

// complaintDB exposes the concrete service's DB handle for transport-level
// extras (ETag pre-checks, idempotency records). Returns nil when the
// handler is wired to a test double.
func (h *Handlers) complaintDB() *gorm.DB {
	if svc, okSvc := h.complaintSvc.(*services.ComplaintService); okSvc {
		return svc.DB
	}
	return nil
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
)

func TestAdminListComplaints_FiltersAndSearch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := wiredHandlers(db)
	r := gin.New()
	r.POST("/complaints", h.CreateComplaint)
	r.GET("/admin/complaints", h.AdminListComplaints)

	mustCreateVia(t, r, db, "u1", nil)
	mustCreateVia(t, r, db, "u2", func(p map[string]any) {
		p["title"] = "Streetlight out on 5th Cross"
		p["priority"] = "High"
	})

	// Unscoped: both submitters' complaints visible
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/complaints", nil)
	req.Header.Set("X-User-ID", "adm1")
	req.Header.Set("X-User-Role", "admin")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d body=%s", w.Code, w.Body.String())
	}
	var out listEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Total != 2 || out.Count != 2 {
		t.Fatalf("unscoped list: %+v", out)
	}

	// Priority filter
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/complaints?priority=High", nil)
	req.Header.Set("X-User-ID", "adm1")
	r.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Total != 1 {
		t.Fatalf("priority filter total = %d", out.Total)
	}

	// Free-text search over title
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/complaints?search=streetlight", nil)
	req.Header.Set("X-User-ID", "adm1")
	r.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Total != 1 {
		t.Fatalf("search total = %d", out.Total)
	}

	// No matches: empty data, zero pages
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/complaints?search=zzz-no-match", nil)
	req.Header.Set("X-User-ID", "adm1")
	r.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Total != 0 || out.Count != 0 {
		t.Fatalf("empty search: %+v", out)
	}
}

func TestAdminGetComplaint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := wiredHandlers(db)
	r := gin.New()
	r.POST("/complaints", h.CreateComplaint)
	r.GET("/admin/complaints/:id", h.AdminGetComplaint)

	c := mustCreateVia(t, r, db, "u1", nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/complaints/"+c.ID, nil)
	req.Header.Set("X-User-ID", "adm1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get -> %d body=%s", w.Code, w.Body.String())
	}
	var out domain.Complaint
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.StatusHistory) != 1 {
		t.Fatalf("expected history in admin read, got %d entries", len(out.StatusHistory))
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/complaints/"+uuid.NewString(), nil)
	req.Header.Set("X-User-ID", "adm1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}
}

func TestAdminUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := wiredHandlers(db)
	r := gin.New()
	r.POST("/complaints", h.CreateComplaint)
	r.PUT("/admin/complaints/:id/status", h.AdminUpdateStatus)

	c := mustCreateVia(t, r, db, "u1", nil)

	put := func(id, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/admin/complaints/"+id+"/status", bytes.NewBufferString(body))
		req.Header.Set("X-User-ID", "adm1")
		req.Header.Set("X-User-Role", "admin")
		r.ServeHTTP(w, req)
		return w
	}

	// Missing status -> 400 bad_request
	if w := put(c.ID, `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing status -> %d", w.Code)
	}

	// Unknown status id -> 400 invalid_reference
	w := put(c.ID, fmt.Sprintf(`{"status":%q}`, uuid.NewString()))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status -> %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error == nil || env.Error.Code != ErrCodeInvalidReference {
		t.Fatalf("unknown status envelope: %s", w.Body.String())
	}

	// In Progress with a note -> 200, history grows, note recorded
	w = put(c.ID, fmt.Sprintf(`{"status":%q,"notes":"crew dispatched"}`, handlerStatusID(t, db, "In Progress")))
	if w.Code != http.StatusOK {
		t.Fatalf("transition -> %d body=%s", w.Code, w.Body.String())
	}
	var out domain.Complaint
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Status == nil || out.Status.Name != "In Progress" {
		t.Fatalf("status not applied: %+v", out.Status)
	}
	if len(out.StatusHistory) != 2 {
		t.Fatalf("history length = %d", len(out.StatusHistory))
	}
	if out.AdminID == nil || *out.AdminID != "adm1" {
		t.Fatalf("acting admin not recorded: %v", out.AdminID)
	}

	// Resolved -> actualResolutionDate stamped once
	w = put(c.ID, fmt.Sprintf(`{"status":%q,"notes":"repaved"}`, handlerStatusID(t, db, "Resolved")))
	if w.Code != http.StatusOK {
		t.Fatalf("resolve -> %d body=%s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.ActualResolutionDate == nil {
		t.Fatalf("resolution date not stamped")
	}
	stamp := *out.ActualResolutionDate

	// Re-resolve keeps the original stamp
	w = put(c.ID, fmt.Sprintf(`{"status":%q}`, handlerStatusID(t, db, "Resolved")))
	if w.Code != http.StatusOK {
		t.Fatalf("re-resolve -> %d", w.Code)
	}
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.ActualResolutionDate == nil || !out.ActualResolutionDate.Equal(stamp) {
		t.Fatalf("resolution date rewritten: %v vs %v", out.ActualResolutionDate, stamp)
	}

	// Unknown complaint -> 404
	if w := put(uuid.NewString(), fmt.Sprintf(`{"status":%q}`, handlerStatusID(t, db, "In Progress"))); w.Code != http.StatusNotFound {
		t.Fatalf("missing complaint -> %d", w.Code)
	}
}

func TestAdminAssignComplaint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := wiredHandlers(db)
	r := gin.New()
	r.POST("/complaints", h.CreateComplaint)
	r.PUT("/admin/complaints/:id/assign", h.AdminAssignComplaint)

	c := mustCreateVia(t, r, db, "u1", nil)

	put := func(id, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/admin/complaints/"+id+"/assign", bytes.NewBufferString(body))
		req.Header.Set("X-User-ID", "adm1")
		r.ServeHTTP(w, req)
		return w
	}

	// Citizen assignee -> 400 invalid_reference
	w := put(c.ID, `{"adminId":"u2"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("citizen assignee -> %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error == nil || env.Error.Code != ErrCodeInvalidReference {
		t.Fatalf("assignee envelope: %s", w.Body.String())
	}

	// Unknown assignee -> 400
	if w := put(c.ID, fmt.Sprintf(`{"adminId":%q}`, uuid.NewString())); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown assignee -> %d", w.Code)
	}

	// Admin assignee -> 200 with adminId set
	w = put(c.ID, `{"adminId":"adm1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("assign -> %d body=%s", w.Code, w.Body.String())
	}
	var out domain.Complaint
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.AdminID == nil || *out.AdminID != "adm1" {
		t.Fatalf("assignment not applied: %v", out.AdminID)
	}

	// Unknown complaint -> 404
	if w := put(uuid.NewString(), `{"adminId":"adm1"}`); w.Code != http.StatusNotFound {
		t.Fatalf("missing complaint -> %d", w.Code)
	}
}

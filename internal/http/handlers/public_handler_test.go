package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/civicconnect/go-complaints-backend/internal/repo"
)

// decodeItems decodes the list payload into loose maps so field-absence
// assertions catch accidental leaks regardless of struct shape.
func decodeItems(t *testing.T, raw json.RawMessage) []map[string]any {
	t.Helper()
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		t.Fatalf("items json: %v", err)
	}
	return items
}

func assertRedacted(t *testing.T, item map[string]any) {
	t.Helper()
	for _, k := range []string{"statusHistory", "resolutionNotes", "adminId", "admin", "user"} {
		if _, ok := item[k]; ok {
			t.Fatalf("redacted field %q leaked: %v", k, item[k])
		}
	}
}

func TestPublicListComplaints_RedactionAndETag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := wiredHandlers(db)
	r := gin.New()
	r.POST("/complaints", h.CreateComplaint)
	r.GET("/public/complaints", h.PublicListComplaints)

	open := mustCreateVia(t, r, db, "u1", nil)
	mustCreateVia(t, r, db, "u2", func(p map[string]any) {
		p["title"] = "Anonymous tip about dumping"
		p["isAnonymous"] = true
	})
	mustCreateVia(t, r, db, "u2", func(p map[string]any) {
		p["title"] = "Private note to the ward office"
		p["isPublic"] = false
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/complaints", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d body=%s", w.Code, w.Body.String())
	}
	var out listEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Total != 2 {
		t.Fatalf("private complaint leaked into public list: total=%d", out.Total)
	}

	items := decodeItems(t, out.Data)
	for _, it := range items {
		assertRedacted(t, it)
		if it["isAnonymous"] == true {
			if _, ok := it["userId"]; ok {
				t.Fatalf("anonymous submitter leaked: %v", it)
			}
			if _, ok := it["submittedBy"]; ok {
				t.Fatalf("anonymous submitter name leaked: %v", it)
			}
		} else {
			if it["userId"] != open.UserID {
				t.Fatalf("list item missing submitter id: %v", it)
			}
			if it["submittedBy"] != "Asha" {
				t.Fatalf("list item missing submitter name: %v", it)
			}
		}
		// Collections render as empty arrays, never null
		if it["tags"] == nil || it["photos"] == nil {
			t.Fatalf("nil collection in public view: %v", it)
		}
	}

	// ETag pre-check
	count, maxTS, err := repo.PublicComplaintsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public/complaints", nil)
	req.Header.Set("If-None-Match", fmt.Sprintf(`W/"public:%d:%d"`, count, ts))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("etag -> %d", w.Code)
	}
}

func TestPublicGetComplaint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := wiredHandlers(db)
	r := gin.New()
	r.POST("/complaints", h.CreateComplaint)
	r.GET("/public/complaints/:id", h.PublicGetComplaint)

	open := mustCreateVia(t, r, db, "u1", nil)
	private := mustCreateVia(t, r, db, "u1", func(p map[string]any) {
		p["title"] = "Private streetlight issue"
		p["isPublic"] = false
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/complaints/"+open.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get -> %d body=%s", w.Code, w.Body.String())
	}
	var item map[string]any
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &item); err != nil {
		t.Fatalf("json: %v", err)
	}
	assertRedacted(t, item)
	// Detail view keeps the display name but never the submitter id
	if _, ok := item["userId"]; ok {
		t.Fatalf("submitter id leaked in detail view: %v", item)
	}
	if item["submittedBy"] != "Asha" {
		t.Fatalf("detail missing submitter name: %v", item)
	}

	// Private and missing are indistinguishable
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/complaints/"+private.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("private get -> %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/complaints/"+uuid.NewString(), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing get -> %d", w.Code)
	}
}

func TestPublicSearchComplaints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := wiredHandlers(db)
	r := gin.New()
	r.POST("/complaints", h.CreateComplaint)
	r.PUT("/admin/complaints/:id/status", h.AdminUpdateStatus)
	r.GET("/public/search", h.PublicSearchComplaints)

	// One searchable (In Progress), one still Submitted
	active := mustCreateVia(t, r, db, "u1", func(p map[string]any) {
		p["title"] = "Pothole near the flyover"
	})
	mustCreateVia(t, r, db, "u2", func(p map[string]any) {
		p["title"] = "Pothole on 2nd Main"
	})

	w := httptest.NewRecorder()
	body := fmt.Sprintf(`{"status":%q}`, handlerStatusID(t, db, "In Progress"))
	req := httptest.NewRequest(http.MethodPut, "/admin/complaints/"+active.ID+"/status", bytes.NewBufferString(body))
	req.Header.Set("X-User-ID", "adm1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("transition -> %d body=%s", w.Code, w.Body.String())
	}

	// Blank q -> 400 validation_error
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/search?q=%20", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank q -> %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error == nil || env.Error.Code != ErrCodeValidation {
		t.Fatalf("blank q envelope: %s", w.Body.String())
	}

	// Only the In Progress complaint matches
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/search?q=pothole", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("search -> %d body=%s", w.Code, w.Body.String())
	}
	var out listEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Total != 1 {
		t.Fatalf("search total = %d", out.Total)
	}
	items := decodeItems(t, out.Data)
	if len(items) != 1 || items[0]["id"] != active.ID {
		t.Fatalf("wrong search hit: %v", items)
	}
	assertRedacted(t, items[0])

	// No hits is a success with an empty page
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/search?q=zzz-no-match", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("empty search -> %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Total != 0 || out.Count != 0 {
		t.Fatalf("empty search envelope: %+v", out)
	}
}

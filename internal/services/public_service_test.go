package services

import (
	"context"
	"errors"
	"testing"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
	"github.com/civicconnect/go-complaints-backend/internal/notify"
)

func TestPublicList_OnlyPublicComplaints(t *testing.T) {
	db := newTestDB(t)
	citizens := &ComplaintService{DB: db, Notifier: notify.Nop{}}
	public := &PublicService{DB: db}
	ctx := context.Background()

	visible := mustCreate(t, citizens, "u1", validInput(t, db))

	hiddenIn := validInput(t, db)
	f := false
	hiddenIn.IsPublic = &f
	hidden := mustCreate(t, citizens, "u1", hiddenIn)

	items, total, err := public.List(ctx, PublicListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != visible.ID {
		t.Fatalf("private complaint leaked into public listing: %+v", items)
	}

	// Private complaints are unreachable via public detail.
	if _, err := public.Get(ctx, hidden.ID); !errors.Is(err, ErrComplaintNotFound) {
		t.Fatalf("expected ErrComplaintNotFound for private complaint, got %v", err)
	}

	got, err := public.Get(ctx, visible.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ViewCount != 1 {
		t.Fatalf("public read must bump view count, got %d", got.ViewCount)
	}
	if len(got.StatusHistory) != 0 {
		t.Fatalf("public reads never load status history")
	}
}

func TestPublicSearch_StatusGateAndMatching(t *testing.T) {
	db := newTestDB(t)
	citizens := &ComplaintService{DB: db, Notifier: notify.Nop{}}
	admin := &AdminService{DB: db, Notifier: notify.Nop{}}
	public := &PublicService{DB: db}
	ctx := context.Background()

	if _, _, err := public.Search(ctx, "   ", 1, 10); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank query must be rejected, got %v", err)
	}

	// Still Submitted: not searchable even though it matches.
	submitted := mustCreate(t, citizens, "u1", validInput(t, db))
	items, total, err := public.Search(ctx, "Pothole", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("submitted complaints must not be searchable: %+v", items)
	}

	// Resolved complaints are searchable by title, number, and tags.
	resolvedIn := validInput(t, db)
	resolvedIn.Title = "Streetlight flickering"
	resolvedIn.Description = "The lamp at the corner of Oak and 3rd has been flickering for days"
	resolvedIn.Tags = []string{"lighting"}
	resolved := mustCreate(t, citizens, "u1", resolvedIn)
	if _, err := admin.UpdateStatus(ctx, "adm1", resolved.ID, StatusUpdateInput{StatusID: statusID(t, db, "Resolved")}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// In Progress complaints are searchable too.
	if _, err := admin.UpdateStatus(ctx, "adm1", submitted.ID, StatusUpdateInput{StatusID: statusID(t, db, "In Progress")}); err != nil {
		t.Fatalf("transition: %v", err)
	}

	for query, wantID := range map[string]string{
		"streetlight":            resolved.ID,
		resolved.ComplaintNumber: resolved.ID,
		"lighting":               resolved.ID,
		"pothole":                submitted.ID,
	} {
		items, total, err := public.Search(ctx, query, 1, 10)
		if err != nil {
			t.Fatalf("Search %q: %v", query, err)
		}
		if total != 1 || len(items) != 1 || items[0].ID != wantID {
			t.Fatalf("Search %q: expected %s, got %+v", query, wantID, items)
		}
	}

	// Private complaints stay invisible regardless of status.
	hiddenIn := validInput(t, db)
	hiddenIn.Title = "Hidden pothole report"
	f := false
	hiddenIn.IsPublic = &f
	hidden := mustCreate(t, citizens, "u1", hiddenIn)
	if _, err := admin.UpdateStatus(ctx, "adm1", hidden.ID, StatusUpdateInput{StatusID: statusID(t, db, "Resolved")}); err != nil {
		t.Fatalf("resolve hidden: %v", err)
	}
	_, total, err = public.Search(ctx, "Hidden pothole", 1, 10)
	if err != nil {
		t.Fatalf("Search hidden: %v", err)
	}
	if total != 0 {
		t.Fatalf("private complaint leaked through search")
	}
}

func TestRegistryService_Reads(t *testing.T) {
	db := newTestDB(t)
	reg := &RegistryService{DB: db}
	ctx := context.Background()

	cats, err := reg.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 8 {
		t.Fatalf("expected 8 active categories, got %d", len(cats))
	}
	for i := 1; i < len(cats); i++ {
		if cats[i-1].Name > cats[i].Name {
			t.Fatalf("categories not sorted by name: %q > %q", cats[i-1].Name, cats[i].Name)
		}
	}

	// Deactivated categories drop out.
	if err := db.Model(&domain.Category{}).Where("name = ?", "Other").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	cats, err = reg.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories after deactivate: %v", err)
	}
	if len(cats) != 7 {
		t.Fatalf("expected 7 active categories, got %d", len(cats))
	}

	stats, err := reg.Statuses(ctx)
	if err != nil {
		t.Fatalf("Statuses: %v", err)
	}
	if len(stats) != 6 {
		t.Fatalf("expected 6 statuses, got %d", len(stats))
	}
	for i, want := range []string{"Submitted", "Under Review", "In Progress", "Resolved", "Rejected", "Duplicate"} {
		if stats[i].Name != want {
			t.Fatalf("statuses out of workflow order at %d: got %q want %q", i, stats[i].Name, want)
		}
	}
}

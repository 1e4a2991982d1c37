package repo

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
)

func TestNextComplaintSequence_MonotonicPerDay(t *testing.T) {
	db := newRepoDB(t, &domain.DailySequence{})

	day := time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)
	for want := int64(1); want <= 5; want++ {
		got, err := NextComplaintSequence(db, day)
		if err != nil {
			t.Fatalf("NextComplaintSequence #%d: %v", want, err)
		}
		if got != want {
			t.Fatalf("expected sequence %d, got %d", want, got)
		}
	}

	// A different day starts its own counter.
	next := day.AddDate(0, 0, 1)
	got, err := NextComplaintSequence(db, next)
	if err != nil {
		t.Fatalf("NextComplaintSequence next day: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected fresh counter 1 for new day, got %d", got)
	}
}

func TestNextComplaintSequence_UTCDayBoundary(t *testing.T) {
	db := newRepoDB(t, &domain.DailySequence{})

	// 23:30 in UTC+5 is 18:30 UTC the same day; 02:30 in UTC-20... keep it
	// simple: two wall times in different zones mapping to the same UTC day
	// must share a counter.
	loc := time.FixedZone("plus5", 5*3600)
	a := time.Date(2025, 3, 16, 23, 30, 0, 0, loc) // 18:30 UTC Mar 16
	b := time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC)

	if _, err := NextComplaintSequence(db, a); err != nil {
		t.Fatalf("first increment: %v", err)
	}
	got, err := NextComplaintSequence(db, b)
	if err != nil {
		t.Fatalf("second increment: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected shared counter value 2, got %d", got)
	}
}

func TestNextComplaintSequence_Concurrent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "seq.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.DailySequence{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	const workers, perWorker = 8, 5
	day := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	errCh := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				v, err := NextComplaintSequence(db, day)
				if err != nil {
					errCh <- err
					return
				}
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent increment: %v", err)
	}

	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d distinct sequence values, got %d", workers*perWorker, len(seen))
	}
	for v := int64(1); v <= workers*perWorker; v++ {
		if !seen[v] {
			t.Fatalf("gap in sequence: missing %d", v)
		}
	}
}

func TestFormatComplaintNumber(t *testing.T) {
	day := time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC)
	if got := FormatComplaintNumber(day, 7); got != "CC202503050007" {
		t.Fatalf("unexpected complaint number: %q", got)
	}
	if got := FormatComplaintNumber(day, 12345); got != "CC2025030512345" {
		t.Fatalf("sequence overflow must widen, got %q", got)
	}
}

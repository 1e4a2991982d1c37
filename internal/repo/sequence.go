// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file owns the day-keyed sequence counter behind
// complaint numbering.
package repo

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// complaintNumberPrefix is the fixed prefix of every complaint number.
const complaintNumberPrefix = "CC"

// NextComplaintSequence atomically increments and returns the per-day
// counter for the given UTC day. A single upsert takes the row from
// "absent" to 1 or bumps an existing value, so two concurrent creations
// can never observe the same sequence. Counter rows are never decremented:
// deleting a complaint does not free its number.
//
// Call this inside the complaint-creation transaction so the reserved
// sequence is rolled back together with a failed insert.
func NextComplaintSequence(db *gorm.DB, day time.Time) (int64, error) {
	var seq int64
	err := db.Raw(
		`INSERT INTO complaint_sequences (day, value) VALUES (?, 1)
		 ON CONFLICT (day) DO UPDATE SET value = value + 1
		 RETURNING value`,
		day.UTC().Format("20060102"),
	).Scan(&seq).Error
	return seq, err
}

// FormatComplaintNumber renders the human-readable identifier for a
// complaint created on day with the given per-day sequence, e.g.
// CC202608300001.
func FormatComplaintNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%04d", complaintNumberPrefix, day.UTC().Format("20060102"), seq)
}

// Package notify defines the outbound notification contract for lifecycle
// events. Actual delivery (push, email) is owned by an external service;
// the lifecycle core only emits events through the Notifier interface.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
)

// Notifier consumes lifecycle events. Implementations must be non-blocking
// from the caller's perspective and must never fail a request: delivery
// problems are their own concern.
type Notifier interface {
	// ComplaintCreated is emitted after a complaint is durably created.
	ComplaintCreated(ctx context.Context, c *domain.Complaint)

	// StatusChanged is emitted after a complaint's workflow status changes.
	// prev may be nil when the previous status could not be resolved.
	StatusChanged(ctx context.Context, c *domain.Complaint, prev, next *domain.Status, actorID string)
}

// LogNotifier is the log-backed Notifier used when no delivery backend is
// configured. It records each event at info level.
type LogNotifier struct {
	Log zerolog.Logger
}

// ComplaintCreated implements Notifier.
func (n *LogNotifier) ComplaintCreated(ctx context.Context, c *domain.Complaint) {
	n.Log.Info().
		Str("event", "complaint.created").
		Str("complaint_id", c.ID).
		Str("complaint_number", c.ComplaintNumber).
		Str("user_id", c.UserID).
		Msg("notification dispatched")
}

// StatusChanged implements Notifier.
func (n *LogNotifier) StatusChanged(ctx context.Context, c *domain.Complaint, prev, next *domain.Status, actorID string) {
	ev := n.Log.Info().
		Str("event", "complaint.status_changed").
		Str("complaint_id", c.ID).
		Str("complaint_number", c.ComplaintNumber).
		Str("user_id", c.UserID).
		Str("actor_id", actorID)
	if prev != nil {
		ev = ev.Str("from", prev.Name)
	}
	if next != nil {
		ev = ev.Str("to", next.Name)
	}
	ev.Msg("notification dispatched")
}

// Nop discards every event. Useful in tests.
type Nop struct{}

// ComplaintCreated implements Notifier.
func (Nop) ComplaintCreated(context.Context, *domain.Complaint) {}

// StatusChanged implements Notifier.
func (Nop) StatusChanged(context.Context, *domain.Complaint, *domain.Status, *domain.Status, string) {}

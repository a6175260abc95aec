package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gymbooking/internal/adapters/storage"
	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/domain/gymclass"
	domainOutbox "gymbooking/internal/domain/outbox"
)

// NotificationPayload is the JSON stored on an outbox entry and rendered
// into an email by the delivery executor.
type NotificationPayload struct {
	Kind            string    `json:"kind"`
	UserName        string    `json:"user_name"`
	ClassID         string    `json:"class_id"`
	ClassName       string    `json:"class_name"`
	ClassType       string    `json:"class_type"`
	Instructor      string    `json:"instructor"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

// enqueueNotification writes an outbox entry in the caller's transaction so
// the notification exists iff the booking change commits.
func enqueueNotification(ctx context.Context, tx records.Tx, kind, email, name string, c gymclass.Class, now time.Time) error {
	if email == "" {
		slog.Debug("outbox_event", "event", "skipped_no_recipient", "kind", kind, "class_id", c.ID)
		return nil
	}
	payload, err := json.Marshal(NotificationPayload{
		Kind:            kind,
		UserName:        name,
		ClassID:         c.ID,
		ClassName:       c.Name,
		ClassType:       c.Type,
		Instructor:      c.Instructor,
		StartsAt:        c.DateTime,
		DurationMinutes: c.DurationMinutes,
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	entry := domainOutbox.Entry{
		ID:            uuid.New().String(),
		Kind:          kind,
		Recipient:     email,
		Payload:       string(payload),
		CreatedAt:     now,
		NextAttemptAt: now,
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return tx.Outbox.Save(ctx, entry)
}

// notifyPromoted looks up the promoted user for their address. A user row
// that no longer exists only loses the email, not the promotion.
func notifyPromoted(ctx context.Context, tx records.Tx, userID string, c gymclass.Class, now time.Time) error {
	u, err := tx.Users.GetByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("outbox_event", "event", "skipped_unknown_user", "user_id", userID, "class_id", c.ID)
		return nil
	}
	if err != nil {
		return err
	}
	return enqueueNotification(ctx, tx, domainOutbox.KindWaitlistPromoted, u.Email, u.Name, c, now)
}

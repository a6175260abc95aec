package projections

import (
	"context"

	"gymbooking/internal/adapters/storage/records"
	"gymbooking/internal/domain/outbox"
)

// ListNotificationsDeps holds dependencies for ListNotifications.
type ListNotificationsDeps struct {
	Records RecordView
}

// ListNotificationsQuery selects outbox entries. Status "pending" lists
// everything still awaiting delivery, soonest due first; any other status
// lists that status, newest first.
type ListNotificationsQuery struct {
	Status string
	Limit  int
}

// MaxNotificationsLimit caps one page of outbox entries.
const MaxNotificationsLimit = 100

// QueryListNotifications returns outbox entries for the admin retry view.
// INVARIANT: Store state is not mutated
func QueryListNotifications(ctx context.Context, query ListNotificationsQuery, deps ListNotificationsDeps) ([]outbox.Entry, error) {
	limit := query.Limit
	if limit <= 0 || limit > MaxNotificationsLimit {
		limit = 50
	}
	var entries []outbox.Entry
	err := deps.Records.View(ctx, func(tx records.Tx) error {
		var err error
		if query.Status == "" || query.Status == outbox.StatusPending {
			entries, err = tx.Outbox.ListPending(ctx, limit)
		} else {
			entries, err = tx.Outbox.ListByStatus(ctx, query.Status, limit)
		}
		return err
	})
	return entries, err
}

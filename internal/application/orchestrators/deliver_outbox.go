package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gymbooking/internal/adapters/email"
	"gymbooking/internal/adapters/storage/records"
	domain "gymbooking/internal/domain/outbox"
)

// OutboxProcessor delivers notifications queued by booking operations.
// Delivery runs outside the store's write lock; only the status update is
// transactional.
type OutboxProcessor struct {
	records   RecordStore
	executors map[string]ActionExecutor
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// ActionExecutor delivers one outbox entry and returns the provider's ID.
type ActionExecutor interface {
	Execute(ctx context.Context, entry domain.Entry) (string, error)
}

// OutboxOption configures an OutboxProcessor.
type OutboxOption func(*OutboxProcessor)

// WithOutboxNow replaces the wall clock used for backoff scheduling.
func WithOutboxNow(now func() time.Time) OutboxOption {
	return func(p *OutboxProcessor) { p.now = now }
}

// WithOutboxBackoff sets the retry backoff bounds.
func WithOutboxBackoff(base, max time.Duration) OutboxOption {
	return func(p *OutboxProcessor) {
		p.baseDelay = base
		p.maxDelay = max
	}
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store RecordStore, executors map[string]ActionExecutor, opts ...OutboxOption) *OutboxProcessor {
	p := &OutboxProcessor{
		records:   store,
		executors: executors,
		now:       time.Now,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OutboxRunResult counts what one ProcessPending pass did.
type OutboxRunResult struct {
	Sent    int
	Failed  int
	Waiting int // not yet due
}

// ProcessPending attempts every due pending entry in the current batch.
// POST: each attempted entry is sent, scheduled for retry, or failed
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (OutboxRunResult, error) {
	var entries []domain.Entry
	err := p.records.View(ctx, func(tx records.Tx) error {
		var err error
		entries, err = tx.Outbox.ListPending(ctx, p.batchSize)
		return err
	})
	if err != nil {
		return OutboxRunResult{}, fmt.Errorf("list pending outbox entries: %w", err)
	}

	var result OutboxRunResult
	for _, entry := range entries {
		if !entry.IsDue(p.now()) {
			result.Waiting++
			continue
		}
		sent, err := p.processEntry(ctx, entry)
		if err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "kind", entry.Kind, "error", err.Error())
			return result, err
		}
		if sent {
			result.Sent++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

// processEntry attempts one entry and stores the outcome. The returned bool
// reports whether delivery succeeded; the error is a store failure.
func (p *OutboxProcessor) processEntry(ctx context.Context, entry domain.Entry) (bool, error) {
	entry.MarkAttempt(p.now())

	var externalID string
	executor, ok := p.executors[entry.Kind]
	var execErr error
	if !ok {
		execErr = fmt.Errorf("no executor registered for kind: %s", entry.Kind)
	} else {
		externalID, execErr = executor.Execute(ctx, entry)
	}

	if execErr != nil {
		entry.MarkFailed(execErr, p.now(), p.baseDelay, p.maxDelay)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "kind", entry.Kind, "attempt", entry.Attempts, "status", entry.Status, "error", execErr.Error())
	} else {
		entry.MarkSent(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "kind", entry.Kind, "external_id", externalID)
	}

	err := p.records.Update(ctx, func(tx records.Tx) error {
		return tx.Outbox.Save(ctx, entry)
	})
	return execErr == nil, err
}

// ProcessSingle attempts one entry now, ignoring backoff (admin retry).
// PRE: entryID names a non-terminal entry
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.get(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.IsTerminal() {
		return fmt.Errorf("outbox entry %s is %s: %w", entryID, entry.Status, domain.ErrTerminal)
	}
	_, err = p.processEntry(ctx, entry)
	return err
}

// AbandonEntry stops further delivery attempts for an entry.
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	return p.records.Update(ctx, func(tx records.Tx) error {
		entry, err := tx.Outbox.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		entry.MarkAbandoned()
		return tx.Outbox.Save(ctx, entry)
	})
}

func (p *OutboxProcessor) get(ctx context.Context, entryID string) (domain.Entry, error) {
	var entry domain.Entry
	err := p.records.View(ctx, func(tx records.Tx) error {
		var err error
		entry, err = tx.Outbox.GetByID(ctx, entryID)
		return err
	})
	return entry, err
}

// --- Email Executor ---

// EmailExecutor renders a notification payload and sends it.
type EmailExecutor struct {
	Sender   email.Sender
	Location *time.Location // optional: class times are shown in UTC when nil
}

// Execute sends the email for entry.
// PRE: entry.Payload is a JSON NotificationPayload
// POST: returns the provider message ID
// INVARIANT: outbox entry status managed by caller
func (e *EmailExecutor) Execute(ctx context.Context, entry domain.Entry) (string, error) {
	var p NotificationPayload
	if err := json.Unmarshal([]byte(entry.Payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	msg, err := email.Render(email.Notification{
		Kind:            entry.Kind,
		UserName:        p.UserName,
		ClassName:       p.ClassName,
		ClassType:       p.ClassType,
		Instructor:      p.Instructor,
		StartsAt:        p.StartsAt,
		DurationMinutes: p.DurationMinutes,
	}, e.Location)
	if err != nil {
		return "", err
	}
	res, err := e.Sender.Send(ctx, email.SendRequest{
		To:      []string{entry.Recipient},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// EmailExecutors registers one executor for every notification kind.
func EmailExecutors(exec ActionExecutor) map[string]ActionExecutor {
	return map[string]ActionExecutor{
		domain.KindBookingConfirmed: exec,
		domain.KindWaitlistPromoted: exec,
	}
}

// --- Background Worker ---

// StartBackgroundWorker starts a background goroutine that periodically processes pending outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				result, err := processor.ProcessPending(ctx)
				if err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				} else if result.Sent+result.Failed > 0 {
					slog.Info("outbox_background_pass", "sent", result.Sent, "failed", result.Failed, "waiting", result.Waiting)
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}

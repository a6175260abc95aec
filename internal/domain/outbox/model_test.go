package outbox_test

import (
	"errors"
	"testing"
	"time"

	"gymbooking/internal/domain/outbox"
)

func TestEntry_Validate(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		entry   outbox.Entry
		wantErr error
	}{
		{"valid", outbox.Entry{Kind: outbox.KindBookingConfirmed, Recipient: "a@b.c", Payload: "{}", CreatedAt: now}, nil},
		{"no kind", outbox.Entry{Recipient: "a@b.c", Payload: "{}", CreatedAt: now}, outbox.ErrEmptyKind},
		{"unknown kind", outbox.Entry{Kind: "sms", Recipient: "a@b.c", Payload: "{}", CreatedAt: now}, outbox.ErrUnknownKind},
		{"no recipient", outbox.Entry{Kind: outbox.KindWaitlistPromoted, Payload: "{}", CreatedAt: now}, outbox.ErrEmptyRecipient},
		{"no payload", outbox.Entry{Kind: outbox.KindWaitlistPromoted, Recipient: "a@b.c", CreatedAt: now}, outbox.ErrEmptyPayload},
		{"no created at", outbox.Entry{Kind: outbox.KindWaitlistPromoted, Recipient: "a@b.c", Payload: "{}"}, outbox.ErrZeroCreatedAt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if err != tt.wantErr {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
			if err == nil {
				if tt.entry.MaxAttempts != outbox.DefaultMaxAttempts {
					t.Errorf("MaxAttempts = %d", tt.entry.MaxAttempts)
				}
				if tt.entry.Status != outbox.StatusPending {
					t.Errorf("Status = %q", tt.entry.Status)
				}
			}
		})
	}
}

func TestEntry_Lifecycle(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	e := outbox.Entry{Kind: outbox.KindBookingConfirmed, Recipient: "a@b.c", Payload: "{}", CreatedAt: now, MaxAttempts: 2}
	if err := e.Validate(); err != nil {
		t.Fatal(err)
	}
	if !e.IsDue(now) {
		t.Fatal("new entry should be due")
	}

	e.MarkAttempt(now)
	e.MarkFailed(errors.New("smtp down"), now, time.Second, time.Minute)
	if e.Status != outbox.StatusRetrying {
		t.Errorf("Status = %q, want retrying", e.Status)
	}
	if !e.NextAttemptAt.Equal(now.Add(2 * time.Second)) {
		t.Errorf("NextAttemptAt = %v, want +2s", e.NextAttemptAt)
	}
	if e.IsDue(now) {
		t.Error("entry should wait for backoff")
	}
	if !e.IsDue(now.Add(2 * time.Second)) {
		t.Error("entry should be due after backoff")
	}

	e.MarkAttempt(now)
	e.MarkFailed(errors.New("smtp down"), now, time.Second, time.Minute)
	if e.Status != outbox.StatusFailed || !e.IsTerminal() || e.CanRetry() {
		t.Errorf("exhausted entry should be failed and terminal, got %q", e.Status)
	}
}

func TestEntry_MarkSent(t *testing.T) {
	e := outbox.Entry{Status: outbox.StatusRetrying, ErrorMessage: "x"}
	e.MarkSent("msg_1")
	if e.Status != outbox.StatusSent || e.ExternalID != "msg_1" || e.ErrorMessage != "" {
		t.Errorf("unexpected entry after MarkSent: %+v", e)
	}
	if !e.IsTerminal() {
		t.Error("sent entry should be terminal")
	}
}

func TestEntry_NextRetryDelay(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{10, time.Minute},
		{64, time.Minute},
	}
	for _, tt := range tests {
		e := outbox.Entry{Attempts: tt.attempts}
		if got := e.NextRetryDelay(time.Second, time.Minute); got != tt.want {
			t.Errorf("attempts=%d: delay = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

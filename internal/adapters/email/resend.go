package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/resend/resend-go/v2"
)

// ErrNoRecipients is returned before any API call when a request has no To address.
var ErrNoRecipients = errors.New("email has no recipients")

// ResendSender delivers booking notifications through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	now    func() time.Time
}

// ResendOption configures a ResendSender.
type ResendOption func(*ResendSender)

// WithBaseURL points the client at another API root, such as a local stub.
func WithBaseURL(u *url.URL) ResendOption {
	return func(s *ResendSender) { s.client.BaseURL = u }
}

// WithSentClock sets the clock used to stamp SendResult.SentAt.
func WithSentClock(now func() time.Time) ResendOption {
	return func(s *ResendSender) { s.now = now }
}

// NewResendSender creates a sender with the given API key and default from address.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
func NewResendSender(apiKey, from string, opts ...ResendOption) *ResendSender {
	s := &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send hands one notification to Resend.
// PRE: req has at least one recipient and a subject
// POST: the message is accepted for delivery; returns the Resend message ID
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	from := req.From
	if from == "" {
		from = s.from
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
		ReplyTo: req.ReplyTo,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Warn("email_event", "event", "send_failed", "provider", "resend", "to", req.To, "error", err.Error())
		return SendResult{}, fmt.Errorf("send notification via resend: %w", err)
	}

	slog.Info("email_event", "event", "sent", "provider", "resend", "message_id", sent.Id, "to", req.To)
	return SendResult{MessageID: sent.Id, SentAt: s.now()}, nil
}

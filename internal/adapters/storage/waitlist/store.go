package waitlist

import (
	"context"

	domain "gymbooking/internal/domain/waitlist"
)

// Store persists waitlist entries.
type Store interface {
	Create(ctx context.Context, value domain.Entry) error
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	GetByUserAndClass(ctx context.Context, userID, classID string) (domain.Entry, error)
	ListByClassID(ctx context.Context, classID string) ([]domain.Entry, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Entry, error)
	List(ctx context.Context) ([]domain.Entry, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

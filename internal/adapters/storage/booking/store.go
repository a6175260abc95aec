package booking

import (
	"context"

	domain "gymbooking/internal/domain/booking"
)

// Store persists Booking state.
type Store interface {
	Create(ctx context.Context, value domain.Booking) error
	GetByID(ctx context.Context, id string) (domain.Booking, error)
	GetByUserAndClass(ctx context.Context, userID, classID string) (domain.Booking, error)
	ListByClassID(ctx context.Context, classID string) ([]domain.Booking, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	CountByClassID(ctx context.Context, classID string) (int, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

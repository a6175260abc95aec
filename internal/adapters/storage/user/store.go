package user

import (
	"context"

	domain "gymbooking/internal/domain/user"
)

// Store persists User state.
type Store interface {
	Create(ctx context.Context, value domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Save(ctx context.Context, value domain.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

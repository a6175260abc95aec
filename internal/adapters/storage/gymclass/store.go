package gymclass

import (
	"context"

	domain "gymbooking/internal/domain/gymclass"
)

// Store persists Class state.
type Store interface {
	Create(ctx context.Context, value domain.Class) error
	GetByID(ctx context.Context, id string) (domain.Class, error)
	List(ctx context.Context) ([]domain.Class, error)
	ListByType(ctx context.Context, classType string) ([]domain.Class, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Class, error)
	Save(ctx context.Context, value domain.Class) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	Clear(ctx context.Context) error
}

package settings

import (
	"context"

	domain "gymbooking/internal/domain/settings"
)

// Store persists the singleton system settings records.
type Store interface {
	GetNetworkConfig(ctx context.Context) (domain.NetworkConfig, error)
	SaveNetworkConfig(ctx context.Context, value domain.NetworkConfig) error
	GetTimeSimulation(ctx context.Context) (domain.TimeSimulation, error)
	SaveTimeSimulation(ctx context.Context, value domain.TimeSimulation) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

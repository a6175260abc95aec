package settings

import (
	"errors"
	"math"
	"time"
)

// Keys of the singleton records in the system settings collection.
const (
	KeyNetworkConfig  = "network_config"
	KeyTimeSimulation = "time_simulation"
)

// Domain errors
var (
	ErrNegativeDelay    = errors.New("delay bounds cannot be negative")
	ErrDelayOrder       = errors.New("minimum delay cannot exceed maximum delay")
	ErrFailureRateRange = errors.New("failure rate must be between 0 and 1")
	ErrDelayTooLarge    = errors.New("delay bounds cannot exceed 5 minutes")
)

// MaxDelayLimitMs caps both delay bounds.
const MaxDelayLimitMs = 5 * 60 * 1000

// NetworkConfig drives the unreliable execution wrapper.
// The JSON field names match the persisted record.
type NetworkConfig struct {
	Enabled     bool    `json:"enabled"`
	MinDelayMs  int     `json:"minDelay"`
	MaxDelayMs  int     `json:"maxDelay"`
	FailureRate float64 `json:"failureRate"`
}

// DefaultNetworkConfig is used when nothing is persisted.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Enabled:     false,
		MinDelayMs:  500,
		MaxDelayMs:  2000,
		FailureRate: 0.1,
	}
}

// Validate checks if the NetworkConfig has valid data.
// The full [0,1] failure rate range is accepted here; narrower UI bounds are
// the caller's business.
// PRE: NetworkConfig struct is populated
// POST: Returns nil if valid, error otherwise
func (c NetworkConfig) Validate() error {
	if c.MinDelayMs < 0 || c.MaxDelayMs < 0 {
		return ErrNegativeDelay
	}
	if c.MinDelayMs > MaxDelayLimitMs || c.MaxDelayMs > MaxDelayLimitMs {
		return ErrDelayTooLarge
	}
	if c.MinDelayMs > c.MaxDelayMs {
		return ErrDelayOrder
	}
	if c.FailureRate < 0 || c.FailureRate > 1 || math.IsNaN(c.FailureRate) {
		return ErrFailureRateRange
	}
	return nil
}

// MinDelay returns the lower delay bound as a duration.
func (c NetworkConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelayMs) * time.Millisecond
}

// MaxDelay returns the upper delay bound as a duration.
func (c NetworkConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}

// NetworkPatch carries a partial update; nil fields are left unchanged.
type NetworkPatch struct {
	Enabled     *bool    `json:"enabled,omitempty"`
	MinDelayMs  *int     `json:"minDelay,omitempty"`
	MaxDelayMs  *int     `json:"maxDelay,omitempty"`
	FailureRate *float64 `json:"failureRate,omitempty"`
}

// Apply returns c with the patch applied. The result is not validated.
func (p NetworkPatch) Apply(c NetworkConfig) NetworkConfig {
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	if p.MinDelayMs != nil {
		c.MinDelayMs = *p.MinDelayMs
	}
	if p.MaxDelayMs != nil {
		c.MaxDelayMs = *p.MaxDelayMs
	}
	if p.FailureRate != nil {
		c.FailureRate = *p.FailureRate
	}
	return c
}

// TimeSimulation is the persisted clock offset.
type TimeSimulation struct {
	OffsetMs    int64     `json:"offsetMs"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Offset returns the offset as a duration.
func (t TimeSimulation) Offset() time.Duration {
	return time.Duration(t.OffsetMs) * time.Millisecond
}

package routing

import (
	"context"
	"fmt"

	"ride-dispatch/internal/models"
)

// RoutePlanner orders the pickups and dropoffs of a single vehicle
type RoutePlanner interface {
	FindOptimalRoute(ctx context.Context, start models.Point) (*models.RoutePlan, error)
}

// FleetDispatcher assigns passengers to a fleet of vehicles
type FleetDispatcher interface {
	Run(ctx context.Context) (*models.DispatchResult, error)
}

// ChainPlanner finds how many time-windowed trips one vehicle can chain
type ChainPlanner interface {
	FindMaxTrips(ctx context.Context, start models.Point, startTime int) (int, error)
	LongestChain(ctx context.Context, start models.Point, startTime int) (*models.TripChain, error)
}

// ErrInvalidInput is returned when an algorithm is constructed from malformed input.
// Index is -1 when the problem is not tied to a single element.
type ErrInvalidInput struct {
	Field  string
	Index  int
	Reason string
}

func (e *ErrInvalidInput) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid input: %s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// ErrSearchLimit is returned when an exhaustive search expands more nodes than allowed
type ErrSearchLimit struct {
	Algorithm string
	MaxNodes  int64
}

func (e *ErrSearchLimit) Error() string {
	return fmt.Sprintf("%s search exceeded %d nodes", e.Algorithm, e.MaxNodes)
}

// cancelCheckInterval is how many search nodes pass between context checks
const cancelCheckInterval = 1024

package scenario

import (
	"ride-dispatch/internal/models"
)

// Scenario is a validated problem set. Each section is optional; nil sections are skipped.
type Scenario struct {
	Name       string
	Path       string
	Interleave *InterleaveInput
	Dispatch   *DispatchInput
	Trips      *TripsInput
	Reposition *RepositionInput
}

// InterleaveInput is a single-vehicle route problem.
// Capacity zero means the configured default.
type InterleaveInput struct {
	Start      models.Point
	Capacity   int
	Passengers []models.Passenger
}

// DispatchInput is a fleet dispatch problem
type DispatchInput struct {
	Vehicles     []models.Point
	Origins      []models.Point
	Destinations []models.Point
	Capacity     int
}

// TripsInput is a trip-chaining problem
type TripsInput struct {
	Start     models.Point
	StartTime int
	Trips     []models.Trip
}

// RepositionInput is an idle-driver repositioning problem
type RepositionInput struct {
	Zones            []models.Zone
	Drivers          []models.IdleDriver
	TravelCostFactor float64
}

// Empty reports whether the scenario has nothing to run
func (s *Scenario) Empty() bool {
	return s.Interleave == nil && s.Dispatch == nil && s.Trips == nil && s.Reposition == nil
}

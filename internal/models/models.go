package models

import (
	"fmt"
)

// Point represents a location on the integer plane
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DistanceTo returns the Manhattan distance between two points
func (p Point) DistanceTo(q Point) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Passenger represents a rider travelling from Origin to Destination.
// ID is the passenger's position in the input list.
type Passenger struct {
	ID          int   `json:"id"`
	Origin      Point `json:"origin"`
	Destination Point `json:"destination"`
	Waiting     bool  `json:"waiting"`
}

// NewPassengers builds waiting passengers from parallel origin and destination lists.
// The caller guarantees equal lengths.
func NewPassengers(origins, destinations []Point) []Passenger {
	passengers := make([]Passenger, len(origins))
	for i := range origins {
		passengers[i] = Passenger{
			ID:          i,
			Origin:      origins[i],
			Destination: destinations[i],
			Waiting:     true,
		}
	}
	return passengers
}

// Trip represents a pre-booked ride with a start-time window
type Trip struct {
	ID          int   `json:"id"`
	Origin      Point `json:"origin"`
	Destination Point `json:"destination"`
	Duration    int   `json:"duration"`
	Earliest    int   `json:"earliest"`
	Latest      int   `json:"latest"`
}

// EarliestFinish is the soonest the trip can be completed
func (t *Trip) EarliestFinish() int {
	return t.Earliest + t.Duration
}

// ActionKind distinguishes pickups from dropoffs
type ActionKind int

const (
	ActionPickup ActionKind = iota
	ActionDropoff
)

func (k ActionKind) String() string {
	if k == ActionPickup {
		return "pickup"
	}
	return "dropoff"
}

// Action is one stop of a single-vehicle route
type Action struct {
	Kind      ActionKind `json:"kind"`
	Passenger int        `json:"passenger"`
}

// Token renders the action as P<id> or D<id>
func (a Action) Token() string {
	if a.Kind == ActionPickup {
		return fmt.Sprintf("P%d", a.Passenger)
	}
	return fmt.Sprintf("D%d", a.Passenger)
}

// SearchStats counts the work an exhaustive search performed
type SearchStats struct {
	Nodes        int64 `json:"nodes"`
	BoundPrunes  int64 `json:"bound_prunes"`
	MemoPrunes   int64 `json:"memo_prunes"`
	Improvements int64 `json:"improvements"`
}

// RoutePlan is the pickup/dropoff order chosen for one vehicle
type RoutePlan struct {
	Actions   []Action    `json:"actions"`
	Cost      int         `json:"cost"`
	NaiveCost int         `json:"naive_cost"`
	Stats     SearchStats `json:"stats"`
}

// Tokens returns the plan as a list of P<id>/D<id> strings
func (r *RoutePlan) Tokens() []string {
	tokens := make([]string, len(r.Actions))
	for i, a := range r.Actions {
		tokens[i] = a.Token()
	}
	return tokens
}

// Savings is the distance saved compared to serving passengers one at a time
func (r *RoutePlan) Savings() int {
	return r.NaiveCost - r.Cost
}

// DispatchResult is the outcome of a multi-vehicle dispatch run
type DispatchResult struct {
	Assignments      [][]int         `json:"assignments"`
	TotalDistance    int             `json:"total_distance"`
	VehicleDistances []int           `json:"vehicle_distances"`
	VehiclePaths     [][]Point       `json:"vehicle_paths"`
	PeakLoads        []int           `json:"peak_loads"`
	Rounds           int             `json:"rounds"`
	Summary          DispatchSummary `json:"summary"`
}

// DispatchSummary contains fleet-level statistics
type DispatchSummary struct {
	TotalPassengers    int `json:"total_passengers"`
	VehiclesUsed       int `json:"vehicles_used"`
	MaxVehicleDistance int `json:"max_vehicle_distance"`
}

// TripChain is the longest sequence of trips one vehicle can complete
type TripChain struct {
	TripIDs []int       `json:"trip_ids"`
	Stats   SearchStats `json:"stats"`
}

// Length returns the number of trips in the chain
func (c *TripChain) Length() int {
	return len(c.TripIDs)
}

// Zone is a demand area an idle driver can reposition to
type Zone struct {
	ID             string  `json:"id"`
	Location       Point   `json:"location"`
	Demand         int     `json:"demand"`
	AvgTripMinutes float64 `json:"avg_trip_minutes"`
}

// IdleDriver is a driver waiting for work in a zone
type IdleDriver struct {
	ID     string `json:"id"`
	ZoneID string `json:"zone_id"`
}

// Recommendation tells one driver where to wait for work
type Recommendation struct {
	DriverID   string  `json:"driver_id"`
	FromZoneID string  `json:"from_zone_id"`
	ToZoneID   string  `json:"to_zone_id"`
	Distance   int     `json:"distance"`
	Profit     float64 `json:"profit"`
}

// Moved reports whether the driver is asked to leave their current zone
func (r *Recommendation) Moved() bool {
	return r.FromZoneID != r.ToZoneID
}

// RepositionPlan holds recommendations in the order they were committed
type RepositionPlan struct {
	Recommendations []Recommendation `json:"recommendations"`
	TotalProfit     float64          `json:"total_profit"`
}

package routing

import (
	"context"
	"fmt"
	"log"
	"time"

	"ride-dispatch/internal/models"
)

// Dispatcher greedily assigns waiting passengers to the nearest vehicle
// that is still picking up, round by round.
type Dispatcher struct {
	starts     []models.Point
	passengers []models.Passenger
	capacity   int
}

// NewDispatcher validates the fleet and passenger lists
func NewDispatcher(vehicleStarts, origins, destinations []models.Point, capacity int) (*Dispatcher, error) {
	if len(origins) != len(destinations) {
		return nil, &ErrInvalidInput{
			Field:  "destinations",
			Index:  -1,
			Reason: fmt.Sprintf("got %d destinations for %d origins", len(destinations), len(origins)),
		}
	}
	if capacity < 1 {
		return nil, &ErrInvalidInput{Field: "capacity", Index: -1, Reason: fmt.Sprintf("must be at least 1, got %d", capacity)}
	}
	if len(vehicleStarts) == 0 && len(origins) > 0 {
		return nil, &ErrInvalidInput{Field: "vehicles", Index: -1, Reason: "no vehicles to serve passengers"}
	}

	return &Dispatcher{
		starts:     vehicleStarts,
		passengers: models.NewPassengers(origins, destinations),
		capacity:   capacity,
	}, nil
}

// dispatchRun owns the fleet and passenger state of one simulation
type dispatchRun struct {
	vehicles    []*models.Vehicle
	passengers  []models.Passenger
	assignments [][]int
	waiting     int
	rounds      int
}

// Run simulates dispatch rounds until every passenger has been delivered
func (d *Dispatcher) Run(ctx context.Context) (*models.DispatchResult, error) {
	runStart := time.Now()
	log.Printf("[DISPATCH] Starting run: vehicles=%d passengers=%d capacity=%d", len(d.starts), len(d.passengers), d.capacity)

	run := &dispatchRun{
		vehicles:    make([]*models.Vehicle, len(d.starts)),
		passengers:  make([]models.Passenger, len(d.passengers)),
		assignments: make([][]int, len(d.starts)),
		waiting:     len(d.passengers),
	}
	copy(run.passengers, d.passengers)
	for i, start := range d.starts {
		run.vehicles[i] = models.NewVehicle(i, start, d.capacity)
		run.assignments[i] = []int{}
	}

	for run.waiting > 0 || run.anyDroppingOff() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("dispatch run: %w", err)
		}
		run.rounds++
		run.dropOffRound()
		if err := run.assignRound(); err != nil {
			return nil, fmt.Errorf("dispatch run: %w", err)
		}

		// Nobody left to pick up, so partially loaded vehicles head for their dropoffs
		if run.waiting == 0 {
			for _, v := range run.vehicles {
				if v.Mode == models.ModePickingUp {
					v.StartDropOff()
				}
			}
		}
	}

	result := &models.DispatchResult{
		Assignments:      run.assignments,
		VehicleDistances: make([]int, len(run.vehicles)),
		VehiclePaths:     make([][]models.Point, len(run.vehicles)),
		PeakLoads:        make([]int, len(run.vehicles)),
		Rounds:           run.rounds,
	}
	result.Summary.TotalPassengers = len(run.passengers)
	for i, v := range run.vehicles {
		result.VehicleDistances[i] = v.Mileage
		result.VehiclePaths[i] = v.Path
		result.PeakLoads[i] = v.PeakLoad
		result.TotalDistance += v.Mileage
		if len(run.assignments[i]) > 0 {
			result.Summary.VehiclesUsed++
		}
		result.Summary.MaxVehicleDistance = max(result.Summary.MaxVehicleDistance, v.Mileage)
	}

	log.Printf("[DISPATCH] Completed: rounds=%d total_distance=%d", result.Rounds, result.TotalDistance)
	log.Printf("[TIMING] Dispatch run: %v", time.Since(runStart))
	return result, nil
}

func (r *dispatchRun) anyDroppingOff() bool {
	for _, v := range r.vehicles {
		if v.Mode == models.ModeDroppingOff {
			return true
		}
	}
	return false
}

// dropOffRound lets every dropping-off vehicle deliver its nearest passenger
func (r *dispatchRun) dropOffRound() {
	for _, v := range r.vehicles {
		if v.Mode != models.ModeDroppingOff {
			continue
		}
		id, leg := v.DropOffNearest(r.passengers)
		log.Printf("[DISPATCH] Vehicle %d dropped off passenger %d (%d units)", v.ID, id, leg)
	}
}

// assignRound hands each waiting passenger, in ID order, to the nearest picking-up vehicle
func (r *dispatchRun) assignRound() error {
	for i := range r.passengers {
		p := &r.passengers[i]
		if !p.Waiting {
			continue
		}

		v := r.nearestPickingUp(p.Origin)
		if v == nil {
			break
		}

		leg, err := v.Pickup(p)
		if err != nil {
			return err
		}
		r.assignments[v.ID] = append(r.assignments[v.ID], p.ID)
		r.waiting--
		log.Printf("[DISPATCH] Vehicle %d picked up passenger %d (%d units)", v.ID, p.ID, leg)
	}
	return nil
}

// nearestPickingUp returns the closest vehicle still picking up with a free seat; ties go to the lowest ID
func (r *dispatchRun) nearestPickingUp(p models.Point) *models.Vehicle {
	var best *models.Vehicle
	bestDist := 0
	for _, v := range r.vehicles {
		if v.Mode != models.ModePickingUp || v.IsFull() {
			continue
		}
		d := v.Location.DistanceTo(p)
		if best == nil || d < bestDist {
			best = v
			bestDist = d
		}
	}
	return best
}

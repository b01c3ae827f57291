package models

import "fmt"

// VehicleMode is the dispatcher state of a vehicle
type VehicleMode int

const (
	ModePickingUp VehicleMode = iota
	ModeDroppingOff
)

func (m VehicleMode) String() string {
	switch m {
	case ModePickingUp:
		return "picking_up"
	case ModeDroppingOff:
		return "dropping_off"
	default:
		return "unknown"
	}
}

// ErrVehicleFull is returned when a passenger is boarded onto a vehicle with no free seat
type ErrVehicleFull struct {
	VehicleID int
	Capacity  int
}

func (e *ErrVehicleFull) Error() string {
	return fmt.Sprintf("vehicle %d is full (capacity %d)", e.VehicleID, e.Capacity)
}

// DefaultCapacity is the number of seats a dispatched vehicle has unless configured otherwise
const DefaultCapacity = 3

// Vehicle tracks a car during a dispatch simulation.
// Mileage always equals the summed Manhattan length of Path.
type Vehicle struct {
	ID       int         `json:"id"`
	Location Point       `json:"location"`
	Capacity int         `json:"capacity"`
	Onboard  []int       `json:"onboard"`
	Mode     VehicleMode `json:"mode"`
	Mileage  int         `json:"mileage"`
	Path     []Point     `json:"path"`

	// PeakLoad is the most passengers that were ever onboard at once
	PeakLoad int `json:"peak_load"`
}

// NewVehicle creates an empty vehicle in picking-up mode at start
func NewVehicle(id int, start Point, capacity int) *Vehicle {
	return &Vehicle{
		ID:       id,
		Location: start,
		Capacity: capacity,
		Onboard:  []int{},
		Mode:     ModePickingUp,
		Path:     []Point{start},
	}
}

// IsFull reports whether every seat is taken
func (v *Vehicle) IsFull() bool {
	return len(v.Onboard) >= v.Capacity
}

// IsEmpty reports whether nobody is onboard
func (v *Vehicle) IsEmpty() bool {
	return len(v.Onboard) == 0
}

// MoveTo drives the vehicle to p and returns the leg length
func (v *Vehicle) MoveTo(p Point) int {
	d := v.Location.DistanceTo(p)
	v.Mileage += d
	v.Location = p
	v.Path = append(v.Path, p)
	return d
}

// Pickup drives to the passenger's origin and boards them.
// A full vehicle refuses without moving.
func (v *Vehicle) Pickup(p *Passenger) (int, error) {
	if v.IsFull() {
		return 0, &ErrVehicleFull{VehicleID: v.ID, Capacity: v.Capacity}
	}

	d := v.MoveTo(p.Origin)
	p.Waiting = false
	v.Onboard = append(v.Onboard, p.ID)
	v.PeakLoad = max(v.PeakLoad, len(v.Onboard))
	v.updateMode()
	return d, nil
}

// DropOffNearest drives to the closest onboard destination and unloads that passenger.
// Ties go to whoever boarded first. Returns the passenger ID and leg length, or -1 when empty.
func (v *Vehicle) DropOffNearest(passengers []Passenger) (int, int) {
	if v.IsEmpty() {
		return -1, 0
	}

	bestIdx := 0
	bestDist := v.Location.DistanceTo(passengers[v.Onboard[0]].Destination)
	for i := 1; i < len(v.Onboard); i++ {
		d := v.Location.DistanceTo(passengers[v.Onboard[i]].Destination)
		if d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}

	id := v.Onboard[bestIdx]
	v.MoveTo(passengers[id].Destination)
	v.Onboard = append(v.Onboard[:bestIdx], v.Onboard[bestIdx+1:]...)
	v.updateMode()
	return id, bestDist
}

// StartDropOff switches a partially loaded vehicle into drop-off mode
func (v *Vehicle) StartDropOff() {
	if !v.IsEmpty() {
		v.Mode = ModeDroppingOff
	}
}

func (v *Vehicle) updateMode() {
	switch {
	case v.Mode == ModePickingUp && v.IsFull():
		v.Mode = ModeDroppingOff
	case v.Mode == ModeDroppingOff && v.IsEmpty():
		v.Mode = ModePickingUp
	}
}

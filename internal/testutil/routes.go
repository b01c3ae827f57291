package testutil

import (
	"fmt"
	"math/rand"

	"ride-dispatch/internal/distance"
	"ride-dispatch/internal/models"
)

// RandomPassengers creates n waiting passengers with coordinates in [0, span)
func RandomPassengers(rng *rand.Rand, n, span int) []models.Passenger {
	origins := make([]models.Point, n)
	dests := make([]models.Point, n)
	for i := 0; i < n; i++ {
		origins[i] = models.Point{X: rng.Intn(span), Y: rng.Intn(span)}
		dests[i] = models.Point{X: rng.Intn(span), Y: rng.Intn(span)}
	}
	return models.NewPassengers(origins, dests)
}

// ReplayRoute walks the actions from start and returns the travelled distance.
// It fails if a passenger is dropped before pickup, served twice, left onboard,
// never served, or if more than capacity passengers are onboard at once.
func ReplayRoute(start models.Point, passengers []models.Passenger, actions []models.Action, capacity int) (int, error) {
	pickedUp := make([]bool, len(passengers))
	droppedOff := make([]bool, len(passengers))
	onboard := 0
	loc := start
	cost := 0

	for step, a := range actions {
		if a.Passenger < 0 || a.Passenger >= len(passengers) {
			return 0, fmt.Errorf("step %d: unknown passenger %d", step, a.Passenger)
		}
		p := passengers[a.Passenger]

		switch a.Kind {
		case models.ActionPickup:
			if pickedUp[a.Passenger] {
				return 0, fmt.Errorf("step %d: passenger %d picked up twice", step, a.Passenger)
			}
			if onboard >= capacity {
				return 0, fmt.Errorf("step %d: capacity %d exceeded", step, capacity)
			}
			pickedUp[a.Passenger] = true
			onboard++
			cost += distance.Manhattan(loc, p.Origin)
			loc = p.Origin
		case models.ActionDropoff:
			if !pickedUp[a.Passenger] || droppedOff[a.Passenger] {
				return 0, fmt.Errorf("step %d: passenger %d dropped off without being onboard", step, a.Passenger)
			}
			droppedOff[a.Passenger] = true
			onboard--
			cost += distance.Manhattan(loc, p.Destination)
			loc = p.Destination
		}
	}

	for i := range passengers {
		if !droppedOff[i] {
			return 0, fmt.Errorf("passenger %d was not delivered", i)
		}
	}
	return cost, nil
}

// BruteForceRouteCost enumerates every valid action order and returns the cheapest cost.
// Only usable for a handful of passengers.
func BruteForceRouteCost(start models.Point, passengers []models.Passenger, capacity int) int {
	n := len(passengers)
	if n == 0 {
		return 0
	}

	state := make([]int, n) // 0 untouched, 1 onboard, 2 done
	best := -1

	var walk func(loc models.Point, onboard, done, cost int)
	walk = func(loc models.Point, onboard, done, cost int) {
		if done == n {
			if best < 0 || cost < best {
				best = cost
			}
			return
		}
		for i, p := range passengers {
			switch state[i] {
			case 0:
				if onboard < capacity {
					state[i] = 1
					walk(p.Origin, onboard+1, done, cost+distance.Manhattan(loc, p.Origin))
					state[i] = 0
				}
			case 1:
				state[i] = 2
				walk(p.Destination, onboard-1, done+1, cost+distance.Manhattan(loc, p.Destination))
				state[i] = 1
			}
		}
	}

	walk(start, 0, 0, 0)
	return best
}

// NaiveRouteCost serves passengers one at a time in input order
func NaiveRouteCost(start models.Point, passengers []models.Passenger) int {
	path := []models.Point{start}
	for _, p := range passengers {
		path = append(path, p.Origin, p.Destination)
	}
	return distance.PathLength(path)
}

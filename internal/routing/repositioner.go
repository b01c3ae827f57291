package routing

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"ride-dispatch/internal/models"
)

// Repositioner recommends where idle drivers should wait, based on forecast
// demand per zone minus the cost of driving there.
type Repositioner struct {
	zones            []models.Zone
	drivers          []models.IdleDriver
	travelCostFactor float64
}

// NewRepositioner validates zones and drivers. Zones are evaluated in ID order.
func NewRepositioner(zones []models.Zone, drivers []models.IdleDriver, travelCostFactor float64) (*Repositioner, error) {
	if travelCostFactor < 0 {
		return nil, &ErrInvalidInput{Field: "travel_cost_factor", Index: -1, Reason: fmt.Sprintf("must not be negative, got %g", travelCostFactor)}
	}

	known := make(map[string]bool, len(zones))
	for i, z := range zones {
		if known[z.ID] {
			return nil, &ErrInvalidInput{Field: "zones", Index: i, Reason: fmt.Sprintf("duplicate id %q", z.ID)}
		}
		known[z.ID] = true
		if z.Demand < 0 {
			return nil, &ErrInvalidInput{Field: "zones", Index: i, Reason: fmt.Sprintf("negative demand %d", z.Demand)}
		}
		if z.AvgTripMinutes <= 0 {
			return nil, &ErrInvalidInput{Field: "zones", Index: i, Reason: fmt.Sprintf("average trip minutes must be positive, got %g", z.AvgTripMinutes)}
		}
	}

	seen := make(map[string]bool, len(drivers))
	for i, d := range drivers {
		if seen[d.ID] {
			return nil, &ErrInvalidInput{Field: "drivers", Index: i, Reason: fmt.Sprintf("duplicate id %q", d.ID)}
		}
		seen[d.ID] = true
		if !known[d.ZoneID] {
			return nil, &ErrInvalidInput{Field: "drivers", Index: i, Reason: fmt.Sprintf("unknown zone %q", d.ZoneID)}
		}
	}

	sorted := make([]models.Zone, len(zones))
	copy(sorted, zones)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	return &Repositioner{
		zones:            sorted,
		drivers:          drivers,
		travelCostFactor: travelCostFactor,
	}, nil
}

type zoneMove struct {
	driver int
	zone   int
	from   int
	dist   int
	profit float64
	rides  int
}

// Recommend commits one driver per round: the one whose best move earns the most.
// Ties go to the driver listed first. Demand consumed by a driver is unavailable to later ones.
func (r *Repositioner) Recommend(ctx context.Context) (*models.RepositionPlan, error) {
	start := time.Now()
	log.Printf("[REPOSITION] Starting: zones=%d drivers=%d travel_cost_factor=%g", len(r.zones), len(r.drivers), r.travelCostFactor)

	zoneIdx := make(map[string]int, len(r.zones))
	demand := make([]int, len(r.zones))
	for i, z := range r.zones {
		zoneIdx[z.ID] = i
		demand[i] = z.Demand
	}

	available := make([]bool, len(r.drivers))
	for i := range available {
		available[i] = true
	}

	plan := &models.RepositionPlan{Recommendations: make([]models.Recommendation, 0, len(r.drivers))}
	for remaining := len(r.drivers); remaining > 0; remaining-- {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reposition: %w", err)
		}

		var best *zoneMove
		for i, d := range r.drivers {
			if !available[i] {
				continue
			}
			m := r.bestMove(i, zoneIdx[d.ZoneID], demand)
			if best == nil || m.profit > best.profit {
				best = &m
			}
		}

		available[best.driver] = false
		demand[best.zone] = max(0, demand[best.zone]-best.rides)
		plan.TotalProfit += best.profit
		plan.Recommendations = append(plan.Recommendations, models.Recommendation{
			DriverID:   r.drivers[best.driver].ID,
			FromZoneID: r.zones[best.from].ID,
			ToZoneID:   r.zones[best.zone].ID,
			Distance:   best.dist,
			Profit:     best.profit,
		})
		log.Printf("[REPOSITION] Driver %s -> zone %s (profit %.2f)", r.drivers[best.driver].ID, r.zones[best.zone].ID, best.profit)
	}

	log.Printf("[REPOSITION] Total profit: %.2f", plan.TotalProfit)
	log.Printf("[TIMING] Reposition: %v", time.Since(start))
	return plan, nil
}

// bestMove returns the driver's current zone unless another zone is strictly more profitable
func (r *Repositioner) bestMove(driver, from int, demand []int) zoneMove {
	rides := r.doableRides(from, demand)
	best := zoneMove{driver: driver, zone: from, from: from, profit: float64(rides), rides: rides}

	origin := r.zones[from].Location
	for i, z := range r.zones {
		if i == from {
			continue
		}
		d := origin.DistanceTo(z.Location)
		rides := r.doableRides(i, demand)
		profit := float64(rides) - float64(d)*r.travelCostFactor
		if profit > best.profit {
			best = zoneMove{driver: driver, zone: i, from: from, dist: d, profit: profit, rides: rides}
		}
	}
	return best
}

// doableRides is the forecast demand capped by how many trips fit in an hour
func (r *Repositioner) doableRides(zone int, demand []int) int {
	perHour := int(math.Floor(60 / r.zones[zone].AvgTripMinutes))
	return min(demand[zone], perHour)
}

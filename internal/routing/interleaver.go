package routing

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"ride-dispatch/internal/distance"
	"ride-dispatch/internal/models"
)

// maxInterleavePassengers bounds the onboard/completed bitsets of the search key
const maxInterleavePassengers = 64

// RouteInterleaver finds the cheapest pickup/dropoff order for one vehicle
type RouteInterleaver struct {
	passengers []models.Passenger
	capacity   int

	// MaxNodes caps the number of expanded search nodes. Zero means unlimited.
	MaxNodes int64
}

// NewRouteInterleaver validates the passengers and returns a planner for them
func NewRouteInterleaver(passengers []models.Passenger, capacity int) (*RouteInterleaver, error) {
	if capacity < 1 {
		return nil, &ErrInvalidInput{Field: "capacity", Index: -1, Reason: fmt.Sprintf("must be at least 1, got %d", capacity)}
	}
	if len(passengers) > maxInterleavePassengers {
		return nil, &ErrInvalidInput{
			Field:  "passengers",
			Index:  -1,
			Reason: fmt.Sprintf("at most %d passengers can be interleaved, got %d", maxInterleavePassengers, len(passengers)),
		}
	}
	for i, p := range passengers {
		if p.ID != i {
			return nil, &ErrInvalidInput{Field: "passengers", Index: i, Reason: fmt.Sprintf("id %d does not match position", p.ID)}
		}
	}

	return &RouteInterleaver{
		passengers: passengers,
		capacity:   capacity,
	}, nil
}

// searchKey identifies a search state: where the vehicle is, who is onboard, who is done
type searchKey struct {
	loc     int
	onboard uint64
	done    uint64
}

type move struct {
	action models.Action
	next   int
	cost   int
}

// interleaveSearch owns all mutable state of one FindOptimalRoute call
type interleaveSearch struct {
	ctx      context.Context
	matrix   *distance.Matrix
	n        int
	capacity int
	allDone  uint64
	maxNodes int64

	memo        map[searchKey]int
	path        []models.Action
	best        int
	bestActions []models.Action
	stats       models.SearchStats
	err         error
}

// FindOptimalRoute runs a branch-and-bound search from start and returns the cheapest route.
// Matrix index 0 is start, 1..n are origins and n+1..2n are destinations.
func (ri *RouteInterleaver) FindOptimalRoute(ctx context.Context, start models.Point) (*models.RoutePlan, error) {
	searchStart := time.Now()
	n := len(ri.passengers)
	log.Printf("[INTERLEAVE] Starting search: passengers=%d capacity=%d start=%s", n, ri.capacity, start)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("interleave search: %w", err)
	}
	if n == 0 {
		return &models.RoutePlan{Actions: []models.Action{}}, nil
	}

	points := make([]models.Point, 0, 2*n+1)
	points = append(points, start)
	for _, p := range ri.passengers {
		points = append(points, p.Origin)
	}
	for _, p := range ri.passengers {
		points = append(points, p.Destination)
	}

	s := &interleaveSearch{
		ctx:      ctx,
		matrix:   distance.NewMatrix(points),
		n:        n,
		capacity: ri.capacity,
		maxNodes: ri.MaxNodes,
		memo:     make(map[searchKey]int),
		path:     make([]models.Action, 0, 2*n),
	}
	if n == maxInterleavePassengers {
		s.allDone = ^uint64(0)
	} else {
		s.allDone = (uint64(1) << uint(n)) - 1
	}

	naiveCost, naiveActions := s.naiveRoute()
	s.best = naiveCost
	s.bestActions = naiveActions
	log.Printf("[INTERLEAVE] Naive sequential cost: %d", naiveCost)

	s.dfs(0, 0, 0, 0, 0)
	if s.err != nil {
		return nil, fmt.Errorf("interleave search: %w", s.err)
	}

	log.Printf("[INTERLEAVE] Best cost: %d (naive %d) nodes=%d bound_prunes=%d memo_prunes=%d",
		s.best, naiveCost, s.stats.Nodes, s.stats.BoundPrunes, s.stats.MemoPrunes)
	log.Printf("[TIMING] Interleave search: %v", time.Since(searchStart))

	return &models.RoutePlan{
		Actions:   s.bestActions,
		Cost:      s.best,
		NaiveCost: naiveCost,
		Stats:     s.stats,
	}, nil
}

// naiveRoute serves passengers one at a time in input order
func (s *interleaveSearch) naiveRoute() (int, []models.Action) {
	cost := 0
	loc := 0
	actions := make([]models.Action, 0, 2*s.n)
	for i := 0; i < s.n; i++ {
		cost += s.matrix.Get(loc, s.origin(i))
		cost += s.matrix.Get(s.origin(i), s.destination(i))
		loc = s.destination(i)
		actions = append(actions,
			models.Action{Kind: models.ActionPickup, Passenger: i},
			models.Action{Kind: models.ActionDropoff, Passenger: i},
		)
	}
	return cost, actions
}

func (s *interleaveSearch) origin(i int) int      { return 1 + i }
func (s *interleaveSearch) destination(i int) int { return 1 + s.n + i }

func (s *interleaveSearch) dfs(loc int, onboard, done uint64, onboardCount, cost int) {
	if s.err != nil {
		return
	}

	s.stats.Nodes++
	if s.stats.Nodes%cancelCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return
		}
	}
	if s.maxNodes > 0 && s.stats.Nodes > s.maxNodes {
		s.err = &ErrSearchLimit{Algorithm: "interleave", MaxNodes: s.maxNodes}
		return
	}

	if cost >= s.best {
		s.stats.BoundPrunes++
		return
	}

	if done == s.allDone {
		s.best = cost
		s.bestActions = append(s.bestActions[:0:0], s.path...)
		s.stats.Improvements++
		return
	}

	key := searchKey{loc: loc, onboard: onboard, done: done}
	if prev, ok := s.memo[key]; ok && prev <= cost {
		s.stats.MemoPrunes++
		return
	}
	s.memo[key] = cost

	moves := make([]move, 0, s.n)
	for i := 0; i < s.n; i++ {
		bit := uint64(1) << uint(i)
		switch {
		case onboard&bit != 0:
			next := s.destination(i)
			moves = append(moves, move{
				action: models.Action{Kind: models.ActionDropoff, Passenger: i},
				next:   next,
				cost:   s.matrix.Get(loc, next),
			})
		case done&bit == 0 && onboardCount < s.capacity:
			next := s.origin(i)
			moves = append(moves, move{
				action: models.Action{Kind: models.ActionPickup, Passenger: i},
				next:   next,
				cost:   s.matrix.Get(loc, next),
			})
		}
	}

	// Cheapest first so good routes tighten the bound early
	sort.SliceStable(moves, func(a, b int) bool {
		return moves[a].cost < moves[b].cost
	})

	for _, m := range moves {
		bit := uint64(1) << uint(m.action.Passenger)
		s.path = append(s.path, m.action)
		if m.action.Kind == models.ActionPickup {
			s.dfs(m.next, onboard|bit, done, onboardCount+1, cost+m.cost)
		} else {
			s.dfs(m.next, onboard&^bit, done|bit, onboardCount-1, cost+m.cost)
		}
		s.path = s.path[:len(s.path)-1]
	}
}

package routing

import (
	"context"
	"fmt"
	"log"
	"time"

	"ride-dispatch/internal/models"
)

// tripEdge says the target trip can follow the source trip
type tripEdge struct {
	to       int
	distance int
}

// TripPlanner finds the longest chain of pre-booked trips one vehicle can serve
type TripPlanner struct {
	trips []models.Trip
	graph [][]tripEdge

	// MaxNodes caps the number of expanded search nodes. Zero means unlimited.
	MaxNodes int64
}

// NewTripPlanner validates the trips and precomputes which trip can follow which
func NewTripPlanner(trips []models.Trip) (*TripPlanner, error) {
	seen := make(map[int]int, len(trips))
	for i, t := range trips {
		if prev, ok := seen[t.ID]; ok {
			return nil, &ErrInvalidInput{Field: "trips", Index: i, Reason: fmt.Sprintf("duplicate id %d (also at %d)", t.ID, prev)}
		}
		seen[t.ID] = i
		if t.Duration < 0 {
			return nil, &ErrInvalidInput{Field: "trips", Index: i, Reason: fmt.Sprintf("negative duration %d", t.Duration)}
		}
		if t.Earliest > t.Latest {
			return nil, &ErrInvalidInput{Field: "trips", Index: i, Reason: fmt.Sprintf("earliest %d is after latest %d", t.Earliest, t.Latest)}
		}
	}

	tp := &TripPlanner{trips: trips}
	tp.buildGraph()
	return tp, nil
}

// buildGraph links A to B when B can still start after A finishes at its earliest,
// with strictly less travel than the remaining slack.
func (tp *TripPlanner) buildGraph() {
	tp.graph = make([][]tripEdge, len(tp.trips))
	edges := 0
	for i := range tp.trips {
		a := &tp.trips[i]
		finish := a.EarliestFinish()
		for j := range tp.trips {
			if i == j {
				continue
			}
			b := &tp.trips[j]
			if b.Latest < finish {
				continue
			}
			d := a.Destination.DistanceTo(b.Origin)
			if d < b.Latest-finish {
				tp.graph[i] = append(tp.graph[i], tripEdge{to: j, distance: d})
				edges++
			}
		}
	}
	log.Printf("[TRIPS] Built trip graph: trips=%d edges=%d", len(tp.trips), edges)
}

// FindMaxTrips returns how many trips the longest feasible chain contains
func (tp *TripPlanner) FindMaxTrips(ctx context.Context, start models.Point, startTime int) (int, error) {
	chain, err := tp.LongestChain(ctx, start, startTime)
	if err != nil {
		return 0, err
	}
	return chain.Length(), nil
}

// chainSearch owns the mutable state of one LongestChain call
type chainSearch struct {
	ctx      context.Context
	tp       *TripPlanner
	maxNodes int64

	visited []bool
	path    []int
	best    []int
	stats   models.SearchStats
	err     error
}

// LongestChain searches from every trip reachable from start and returns the longest chain.
// A trip never starts before its earliest time; the first longest chain found wins.
func (tp *TripPlanner) LongestChain(ctx context.Context, start models.Point, startTime int) (*models.TripChain, error) {
	searchStart := time.Now()
	log.Printf("[TRIPS] Starting search: trips=%d start=%s start_time=%d", len(tp.trips), start, startTime)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("trip chain search: %w", err)
	}
	if startTime < 0 || len(tp.trips) == 0 {
		return &models.TripChain{TripIDs: []int{}}, nil
	}

	s := &chainSearch{
		ctx:      ctx,
		tp:       tp,
		maxNodes: tp.MaxNodes,
		visited:  make([]bool, len(tp.trips)),
		best:     []int{},
	}

	for i := range tp.trips {
		t := &tp.trips[i]
		slack := t.Latest - startTime
		if slack < 0 {
			continue
		}
		d := start.DistanceTo(t.Origin)
		if d > slack {
			continue
		}
		s.dfs(i, startTime+d)
		if s.err != nil {
			return nil, fmt.Errorf("trip chain search: %w", s.err)
		}
	}

	ids := make([]int, len(s.best))
	for i, idx := range s.best {
		ids[i] = tp.trips[idx].ID
	}

	log.Printf("[TRIPS] Longest chain: %d trips %v nodes=%d", len(ids), ids, s.stats.Nodes)
	log.Printf("[TIMING] Trip chain search: %v", time.Since(searchStart))
	return &models.TripChain{TripIDs: ids, Stats: s.stats}, nil
}

func (s *chainSearch) dfs(idx, arrival int) {
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
		s.err = &ErrSearchLimit{Algorithm: "trip chain", MaxNodes: s.maxNodes}
		return
	}

	trip := &s.tp.trips[idx]
	s.visited[idx] = true
	s.path = append(s.path, idx)

	begin := arrival
	if begin < trip.Earliest {
		begin = trip.Earliest
	}
	departure := begin + trip.Duration

	extended := false
	for _, e := range s.tp.graph[idx] {
		if s.visited[e.to] {
			continue
		}
		if departure+e.distance > s.tp.trips[e.to].Latest {
			s.stats.BoundPrunes++
			continue
		}
		extended = true
		s.dfs(e.to, departure+e.distance)
	}

	if !extended && len(s.path) > len(s.best) {
		s.best = append(s.best[:0:0], s.path...)
		s.stats.Improvements++
	}

	s.path = s.path[:len(s.path)-1]
	s.visited[idx] = false
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ride-dispatch/internal/metrics"
	"ride-dispatch/internal/models"
	"ride-dispatch/internal/routing"
	"ride-dispatch/internal/scenario"
)

// Config controls how scenarios are executed
type Config struct {
	Workers         int
	DefaultCapacity int
	MaxSearchNodes  int64
}

// Runner executes scenarios against the routing algorithms
type Runner struct {
	cfg Config
}

// NewRunner creates a runner; zero values fall back to one worker and the default capacity
func NewRunner(cfg Config) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.DefaultCapacity < 1 {
		cfg.DefaultCapacity = models.DefaultCapacity
	}
	metrics.RegisterDefault()
	return &Runner{cfg: cfg}
}

// Report is the outcome of one scenario run
type Report struct {
	RunID      string                 `json:"run_id"`
	Scenario   string                 `json:"scenario"`
	Path       string                 `json:"path,omitempty"`
	Interleave *InterleaveReport      `json:"interleave,omitempty"`
	Dispatch   *models.DispatchResult `json:"dispatch,omitempty"`
	Trips      *TripsReport           `json:"trips,omitempty"`
	Reposition *models.RepositionPlan `json:"reposition,omitempty"`
	DurationMs int64                  `json:"duration_ms"`
}

// InterleaveReport summarises a single-vehicle route
type InterleaveReport struct {
	Route     []string           `json:"route"`
	Cost      int                `json:"cost"`
	NaiveCost int                `json:"naive_cost"`
	Stats     models.SearchStats `json:"stats"`
}

// TripsReport summarises a trip chain
type TripsReport struct {
	MaxTrips int                `json:"max_trips"`
	Chain    []int              `json:"chain"`
	Stats    models.SearchStats `json:"stats"`
}

// ErrScenarioFailed wraps the first algorithm error of a scenario
type ErrScenarioFailed struct {
	Scenario  string
	Algorithm string
	Err       error
}

func (e *ErrScenarioFailed) Error() string {
	return fmt.Sprintf("scenario %s: %s: %v", e.Scenario, e.Algorithm, e.Err)
}

func (e *ErrScenarioFailed) Unwrap() error {
	return e.Err
}

// Run executes every section of one scenario
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:    uuid.NewString(),
		Scenario: s.Name,
		Path:     s.Path,
	}
	log.Printf("[ENGINE] run_id=%s scenario=%s starting", report.RunID, s.Name)

	err := r.run(ctx, s, report)
	report.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		metrics.ScenariosRun.WithLabelValues("error").Inc()
		log.Printf("[ENGINE] run_id=%s scenario=%s failed: %v", report.RunID, s.Name, err)
		return nil, err
	}

	metrics.ScenariosRun.WithLabelValues("ok").Inc()
	log.Printf("[ENGINE] run_id=%s scenario=%s done", report.RunID, s.Name)
	log.Printf("[TIMING] Scenario %s: %v", s.Name, time.Since(start))
	return report, nil
}

func (r *Runner) run(ctx context.Context, s *scenario.Scenario, report *Report) error {
	if s.Interleave != nil {
		res, err := r.runInterleave(ctx, s.Interleave)
		if err != nil {
			return &ErrScenarioFailed{Scenario: s.Name, Algorithm: "interleave", Err: err}
		}
		report.Interleave = res
	}
	if s.Dispatch != nil {
		res, err := r.runDispatch(ctx, s.Dispatch)
		if err != nil {
			return &ErrScenarioFailed{Scenario: s.Name, Algorithm: "dispatch", Err: err}
		}
		report.Dispatch = res
	}
	if s.Trips != nil {
		res, err := r.runTrips(ctx, s.Trips)
		if err != nil {
			return &ErrScenarioFailed{Scenario: s.Name, Algorithm: "trips", Err: err}
		}
		report.Trips = res
	}
	if s.Reposition != nil {
		res, err := r.runReposition(ctx, s.Reposition)
		if err != nil {
			return &ErrScenarioFailed{Scenario: s.Name, Algorithm: "reposition", Err: err}
		}
		report.Reposition = res
	}
	return nil
}

func (r *Runner) capacity(c int) int {
	if c == 0 {
		return r.cfg.DefaultCapacity
	}
	return c
}

func (r *Runner) runInterleave(ctx context.Context, in *scenario.InterleaveInput) (_ *InterleaveReport, err error) {
	started := time.Now()
	defer func() { metrics.ObserveSolve("interleave", started, err) }()

	ri, err := routing.NewRouteInterleaver(in.Passengers, r.capacity(in.Capacity))
	if err != nil {
		return nil, err
	}
	ri.MaxNodes = r.cfg.MaxSearchNodes

	var planner routing.RoutePlanner = ri
	plan, err := planner.FindOptimalRoute(ctx, in.Start)
	if err != nil {
		return nil, err
	}

	metrics.ObserveSearch("interleave", plan.Stats)
	metrics.DistanceTravelled.WithLabelValues("interleave").Add(float64(plan.Cost))
	return &InterleaveReport{
		Route:     plan.Tokens(),
		Cost:      plan.Cost,
		NaiveCost: plan.NaiveCost,
		Stats:     plan.Stats,
	}, nil
}

func (r *Runner) runDispatch(ctx context.Context, in *scenario.DispatchInput) (_ *models.DispatchResult, err error) {
	started := time.Now()
	defer func() { metrics.ObserveSolve("dispatch", started, err) }()

	d, err := routing.NewDispatcher(in.Vehicles, in.Origins, in.Destinations, r.capacity(in.Capacity))
	if err != nil {
		return nil, err
	}

	var fleet routing.FleetDispatcher = d
	result, err := fleet.Run(ctx)
	if err != nil {
		return nil, err
	}

	metrics.DispatchRounds.Add(float64(result.Rounds))
	metrics.DistanceTravelled.WithLabelValues("dispatch").Add(float64(result.TotalDistance))
	return result, nil
}

func (r *Runner) runTrips(ctx context.Context, in *scenario.TripsInput) (_ *TripsReport, err error) {
	started := time.Now()
	defer func() { metrics.ObserveSolve("trips", started, err) }()

	tp, err := routing.NewTripPlanner(in.Trips)
	if err != nil {
		return nil, err
	}
	tp.MaxNodes = r.cfg.MaxSearchNodes

	var planner routing.ChainPlanner = tp
	chain, err := planner.LongestChain(ctx, in.Start, in.StartTime)
	if err != nil {
		return nil, err
	}

	metrics.ObserveSearch("trips", chain.Stats)
	return &TripsReport{
		MaxTrips: chain.Length(),
		Chain:    chain.TripIDs,
		Stats:    chain.Stats,
	}, nil
}

func (r *Runner) runReposition(ctx context.Context, in *scenario.RepositionInput) (_ *models.RepositionPlan, err error) {
	started := time.Now()
	defer func() { metrics.ObserveSolve("reposition", started, err) }()

	rp, err := routing.NewRepositioner(in.Zones, in.Drivers, in.TravelCostFactor)
	if err != nil {
		return nil, err
	}
	return rp.Recommend(ctx)
}

// RunAll executes scenarios concurrently, at most Workers at a time.
// Reports keep the input order. The first failure cancels the remaining runs.
func (r *Runner) RunAll(ctx context.Context, scenarios []*scenario.Scenario) ([]*Report, error) {
	start := time.Now()
	log.Printf("[ENGINE] Running %d scenarios with %d workers", len(scenarios), r.cfg.Workers)

	reports := make([]*Report, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for i, s := range scenarios {
		g.Go(func() error {
			report, err := r.Run(gctx, s)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("[TIMING] All scenarios: %v", time.Since(start))
	return reports, nil
}

// WriteReports stores reports as indented JSON, replacing path atomically
func WriteReports(path string, reports []*Report) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal reports: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	log.Printf("[ENGINE] Wrote %d reports to %s", len(reports), path)
	return nil
}

package routing

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride-dispatch/internal/distance"
	"ride-dispatch/internal/models"
)

func pts(coords ...int) []models.Point {
	points := make([]models.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		points = append(points, models.Point{X: coords[i], Y: coords[i+1]})
	}
	return points
}

func TestDispatcherSingleVehicleTakesEveryone(t *testing.T) {
	origins := pts(1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6)
	dests := pts(10, 10, 11, 11, 12, 12, 13, 13, 14, 14, 15, 15)

	d, err := NewDispatcher(pts(0, 0), origins, dests, models.DefaultCapacity)
	require.NoError(t, err)

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, result.Assignments[0])
	assert.Equal(t, 62, result.TotalDistance)
	assert.Equal(t, []int{62}, result.VehicleDistances)
	assert.Equal(t, 7, result.Rounds)
	assert.Equal(t, pts(0, 0, 1, 1, 2, 2, 3, 3, 10, 10, 11, 11, 12, 12, 4, 4, 5, 5, 6, 6, 13, 13, 14, 14, 15, 15), result.VehiclePaths[0])
}

func TestDispatcherTwoVehicles(t *testing.T) {
	d, err := NewDispatcher(
		pts(0, 0, 10, 10),
		pts(1, 0, 9, 10, 0, 1),
		pts(2, 0, 8, 10, 0, 2),
		3,
	)
	require.NoError(t, err)

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0, 2}, {1}}, result.Assignments)
	assert.Equal(t, []int{8, 2}, result.VehicleDistances)
	assert.Equal(t, 10, result.TotalDistance)
	assert.Equal(t, 3, result.Rounds)
	assert.Equal(t, pts(0, 0, 1, 0, 0, 1, 0, 2, 2, 0), result.VehiclePaths[0])
	assert.Equal(t, pts(10, 10, 9, 10, 8, 10), result.VehiclePaths[1])
	assert.Equal(t, models.DispatchSummary{TotalPassengers: 3, VehiclesUsed: 2, MaxVehicleDistance: 8}, result.Summary)
}

func TestDispatcherDeliversPartialLoads(t *testing.T) {
	d, err := NewDispatcher(pts(0, 0), pts(1, 1, 2, 2), pts(5, 5, 3, 3), 3)
	require.NoError(t, err)

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, pts(0, 0, 1, 1, 2, 2, 3, 3, 5, 5), result.VehiclePaths[0])
	assert.Equal(t, 10, result.TotalDistance)
}

func TestDispatcherTieGoesToLowestVehicle(t *testing.T) {
	d, err := NewDispatcher(pts(0, 0, 0, 0, 2, 2), pts(1, 1), pts(3, 3), 3)
	require.NoError(t, err)

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0}, {}, {}}, result.Assignments)
	assert.Equal(t, 1, result.Summary.VehiclesUsed)
}

func TestDispatcherEmptyInputs(t *testing.T) {
	d, err := NewDispatcher(pts(0, 0, 5, 5), nil, nil, 3)
	require.NoError(t, err)

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalDistance)
	assert.Equal(t, 0, result.Rounds)
	assert.Equal(t, [][]int{{}, {}}, result.Assignments)

	d, err = NewDispatcher(nil, nil, nil, 3)
	require.NoError(t, err)
	result, err = d.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Assignments)
}

func TestDispatcherInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		vehicles []models.Point
		origins  []models.Point
		dests    []models.Point
		capacity int
		field    string
	}{
		{"length mismatch", pts(0, 0), pts(1, 1, 2, 2), pts(3, 3), 3, "destinations"},
		{"no vehicles", nil, pts(1, 1), pts(3, 3), 3, "vehicles"},
		{"zero capacity", pts(0, 0), pts(1, 1), pts(3, 3), 0, "capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDispatcher(tt.vehicles, tt.origins, tt.dests, tt.capacity)
			var invalid *ErrInvalidInput
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestDispatcherInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for iter := 0; iter < 30; iter++ {
		numVehicles := 1 + rng.Intn(4)
		numPassengers := rng.Intn(15)
		capacity := 1 + rng.Intn(4)

		vehicles := make([]models.Point, numVehicles)
		for i := range vehicles {
			vehicles[i] = models.Point{X: rng.Intn(30), Y: rng.Intn(30)}
		}
		origins := make([]models.Point, numPassengers)
		dests := make([]models.Point, numPassengers)
		for i := range origins {
			origins[i] = models.Point{X: rng.Intn(30), Y: rng.Intn(30)}
			dests[i] = models.Point{X: rng.Intn(30), Y: rng.Intn(30)}
		}

		d, err := NewDispatcher(vehicles, origins, dests, capacity)
		require.NoError(t, err)
		result, err := d.Run(context.Background())
		require.NoError(t, err)

		// Every passenger is assigned to exactly one vehicle
		var all []int
		sum := 0
		for v, assigned := range result.Assignments {
			all = append(all, assigned...)
			sum += result.VehicleDistances[v]
			assert.Equal(t, distance.PathLength(result.VehiclePaths[v]), result.VehicleDistances[v])
			assert.Equal(t, vehicles[v], result.VehiclePaths[v][0])
			assert.LessOrEqual(t, result.PeakLoads[v], capacity, "vehicle %d exceeded capacity", v)
			assert.LessOrEqual(t, onboardReplay(t, vehicles[v], result.VehiclePaths[v], assigned, origins, dests), capacity)
			for _, p := range assigned {
				assert.Contains(t, result.VehiclePaths[v], dests[p], "passenger %d must be delivered", p)
			}
		}
		sort.Ints(all)
		expected := make([]int, numPassengers)
		for i := range expected {
			expected[i] = i
		}
		assert.Equal(t, expected, append([]int{}, all...))
		assert.Equal(t, sum, result.TotalDistance)
	}
}

// onboardReplay walks a vehicle path and returns the most passengers onboard at once.
// Each stop is matched to the first assigned passenger whose pending origin or
// destination it is, with dropoffs taking precedence.
func onboardReplay(t *testing.T, start models.Point, path []models.Point, assigned []int, origins, dests []models.Point) int {
	t.Helper()
	require.Equal(t, start, path[0])

	boarded := map[int]bool{}
	delivered := map[int]bool{}
	onboard, peak := 0, 0
	for _, stop := range path[1:] {
		matched := false
		for _, p := range assigned {
			if boarded[p] && !delivered[p] && dests[p] == stop {
				delivered[p] = true
				onboard--
				matched = true
				break
			}
		}
		if !matched {
			for _, p := range assigned {
				if !boarded[p] && origins[p] == stop {
					boarded[p] = true
					onboard++
					matched = true
					break
				}
			}
		}
		require.True(t, matched, "stop %s matches no assigned passenger", stop)
		peak = max(peak, onboard)
	}
	return peak
}

func TestDispatcherNeverOverfillsVehicles(t *testing.T) {
	// Every origin sits on the first vehicle, which must hand the overflow to the far one
	d, err := NewDispatcher(pts(0, 0, 50, 50), pts(0, 0, 0, 0, 0, 0, 0, 0, 0, 0), pts(1, 0, 2, 0, 3, 0, 4, 0, 5, 0), 2)
	require.NoError(t, err)

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	for v, peak := range result.PeakLoads {
		assert.LessOrEqual(t, peak, 2, "vehicle %d", v)
	}
	assert.Equal(t, 2, result.PeakLoads[0])
}

func TestDispatcherCancelledContext(t *testing.T) {
	d, err := NewDispatcher(pts(0, 0), pts(1, 1), pts(2, 2), 3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

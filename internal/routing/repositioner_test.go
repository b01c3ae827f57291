package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride-dispatch/internal/models"
)

func cityGrid() []models.Zone {
	return []models.Zone{
		{ID: "C3", Location: models.Point{X: 2, Y: 2}, Demand: 4, AvgTripMinutes: 14},
		{ID: "A1", Location: models.Point{X: 0, Y: 0}, Demand: 5, AvgTripMinutes: 10},
		{ID: "A2", Location: models.Point{X: 0, Y: 1}, Demand: 10, AvgTripMinutes: 12},
		{ID: "A3", Location: models.Point{X: 0, Y: 2}, Demand: 15, AvgTripMinutes: 15},
		{ID: "B1", Location: models.Point{X: 1, Y: 0}, Demand: 8, AvgTripMinutes: 8},
		{ID: "B2", Location: models.Point{X: 1, Y: 1}, Demand: 12, AvgTripMinutes: 10},
		{ID: "B3", Location: models.Point{X: 1, Y: 2}, Demand: 20, AvgTripMinutes: 18},
		{ID: "C1", Location: models.Point{X: 2, Y: 0}, Demand: 6, AvgTripMinutes: 9},
		{ID: "C2", Location: models.Point{X: 2, Y: 1}, Demand: 9, AvgTripMinutes: 11},
	}
}

func TestRepositionerCityGrid(t *testing.T) {
	drivers := []models.IdleDriver{
		{ID: "driver1", ZoneID: "A1"},
		{ID: "driver2", ZoneID: "B2"},
		{ID: "driver3", ZoneID: "C3"},
	}

	r, err := NewRepositioner(cityGrid(), drivers, 1)
	require.NoError(t, err)

	plan, err := r.Recommend(context.Background())
	require.NoError(t, err)

	require.Len(t, plan.Recommendations, 3)
	assert.Equal(t, models.Recommendation{DriverID: "driver1", FromZoneID: "A1", ToZoneID: "B1", Distance: 1, Profit: 6}, plan.Recommendations[0])
	assert.Equal(t, models.Recommendation{DriverID: "driver2", FromZoneID: "B2", ToZoneID: "B2", Distance: 0, Profit: 6}, plan.Recommendations[1])
	assert.Equal(t, models.Recommendation{DriverID: "driver3", FromZoneID: "C3", ToZoneID: "C3", Distance: 0, Profit: 4}, plan.Recommendations[2])
	assert.InDelta(t, 16.0, plan.TotalProfit, 1e-9)
}

func TestRepositionerConsumesDemand(t *testing.T) {
	zones := []models.Zone{
		{ID: "home", Location: models.Point{X: 0, Y: 0}, Demand: 0, AvgTripMinutes: 10},
		{ID: "hot", Location: models.Point{X: 1, Y: 0}, Demand: 4, AvgTripMinutes: 15},
	}
	drivers := []models.IdleDriver{
		{ID: "a", ZoneID: "home"},
		{ID: "b", ZoneID: "home"},
	}

	r, err := NewRepositioner(zones, drivers, 1)
	require.NoError(t, err)

	plan, err := r.Recommend(context.Background())
	require.NoError(t, err)

	require.Len(t, plan.Recommendations, 2)
	assert.True(t, plan.Recommendations[0].Moved())
	assert.Equal(t, "hot", plan.Recommendations[0].ToZoneID)
	assert.InDelta(t, 3.0, plan.Recommendations[0].Profit, 1e-9)

	// The first driver took all four rides, so moving no longer pays
	assert.False(t, plan.Recommendations[1].Moved())
	assert.InDelta(t, 0.0, plan.Recommendations[1].Profit, 1e-9)
}

func TestRepositionerTieGoesToFirstListedDriver(t *testing.T) {
	zones := []models.Zone{{ID: "A", Location: models.Point{}, Demand: 5, AvgTripMinutes: 10}}
	drivers := []models.IdleDriver{{ID: "zeta", ZoneID: "A"}, {ID: "alpha", ZoneID: "A"}}

	r, err := NewRepositioner(zones, drivers, 1)
	require.NoError(t, err)

	plan, err := r.Recommend(context.Background())
	require.NoError(t, err)

	require.Len(t, plan.Recommendations, 2)
	assert.Equal(t, "zeta", plan.Recommendations[0].DriverID)
	assert.InDelta(t, 5.0, plan.Recommendations[0].Profit, 1e-9)
	assert.Equal(t, "alpha", plan.Recommendations[1].DriverID)
	assert.InDelta(t, 0.0, plan.Recommendations[1].Profit, 1e-9)
}

func TestRepositionerNoDrivers(t *testing.T) {
	r, err := NewRepositioner(cityGrid(), nil, 1)
	require.NoError(t, err)

	plan, err := r.Recommend(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plan.Recommendations)
	assert.Zero(t, plan.TotalProfit)
}

func TestRepositionerInvalidInput(t *testing.T) {
	zone := models.Zone{ID: "A", AvgTripMinutes: 10}

	tests := []struct {
		name    string
		zones   []models.Zone
		drivers []models.IdleDriver
		factor  float64
		field   string
	}{
		{"negative factor", []models.Zone{zone}, nil, -1, "travel_cost_factor"},
		{"duplicate zone", []models.Zone{zone, zone}, nil, 1, "zones"},
		{"zero trip minutes", []models.Zone{{ID: "A"}}, nil, 1, "zones"},
		{"negative demand", []models.Zone{{ID: "A", Demand: -1, AvgTripMinutes: 5}}, nil, 1, "zones"},
		{"unknown zone", []models.Zone{zone}, []models.IdleDriver{{ID: "d", ZoneID: "B"}}, 1, "drivers"},
		{"duplicate driver", []models.Zone{zone}, []models.IdleDriver{{ID: "d", ZoneID: "A"}, {ID: "d", ZoneID: "A"}}, 1, "drivers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRepositioner(tt.zones, tt.drivers, tt.factor)
			var invalid *ErrInvalidInput
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

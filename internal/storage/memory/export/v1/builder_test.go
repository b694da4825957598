package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, round(1.2349, 2))
	assert.Equal(t, 50.123457, round(50.1234567, 6))
	assert.Equal(t, -2.5, round(-2.46, 1))
}

func TestBuildEmptyFlight(t *testing.T) {
	export := Build(&FlightData{})

	assert.Equal(t, FormatVersion, export.Version)
	assert.NotNil(t, export.Track)
	assert.NotNil(t, export.Events)

	data, err := json.Marshal(export)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"track":[]`)
}

func TestBuild_SessionAndSummary(t *testing.T) {
	s := core.NewSession(50, 8, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), true)

	export := Build(&FlightData{
		Session: s,
		Summary: core.FlightSummary{VirtualSeconds: 3600.04, DistanceMeters: 103378.26, FuelBurned: 835.357},
	})

	assert.Equal(t, s.ID.String(), export.SessionID)
	assert.Equal(t, "2026-03-01T12:00:00Z", export.StartedAt)
	assert.True(t, export.Resumed)
	assert.Equal(t, 3600.0, export.VirtualSeconds)
	assert.Equal(t, 103378.3, export.DistanceMeters)
	assert.Equal(t, 835.36, export.FuelBurned)
}

func TestBuild_TrackRowsSorted(t *testing.T) {
	export := Build(&FlightData{
		Track: []core.TrackPoint{
			{VirtualSeconds: 10, Lat: 50.1, Lng: 8.2, Heading: 90, WindForce: 3, WindDirection: 270},
			{VirtualSeconds: 5, Lat: 50.0, Lng: 8.1},
		},
	})

	require.Len(t, export.Track, 2)
	assert.Equal(t, 5.0, export.Track[0][0])
	assert.Equal(t, []float64{50.1, 8.2}, export.Track[1][1])
	assert.Equal(t, []float64{3, 270}, export.Track[1][7])
}

func TestBuild_RejectionEvents(t *testing.T) {
	export := Build(&FlightData{
		Rejections: []core.Rejection{
			{Command: "anchor", Reason: core.RejectSpeedTooHigh, VirtualSeconds: 30},
			{Command: "throttle", Reason: core.RejectNoFuel, VirtualSeconds: 12},
		},
	})

	require.Len(t, export.Events, 2)
	assert.Equal(t, []any{12.0, "rejection", "throttle", "no_fuel"}, export.Events[0])
}

// Package autopilot steers toward the target and stops within the arrival radius.
package autopilot

import (
	"math"

	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/pkg/core"
)

const (
	// ArrivalRadius is the distance in meters at which the autopilot cuts the engine.
	ArrivalRadius = 100.0
	// BrakingMargin is added to the braking distance before full astern is ordered.
	BrakingMargin = 500.0

	rudderGain = 0.01
	maxRudder  = 0.5
	// decel is the braking acceleration in m/s².
	decel = 0.8 / 3.6
)

// Command is what the controller decided for one step.
type Command struct {
	Throttle     int
	Rudder       float64
	HeadingError float64
	Distance     float64
	Active       bool
}

// Active reports whether the controller may drive the vehicle.
func Active(v *core.VehicleState) bool {
	return v.HasTarget && v.AutopilotEnabled && v.FuelReserve > 0
}

// BrakingDistance estimates the stopping distance in meters for a speed in km/h.
func BrakingDistance(speedKmh float64) float64 {
	ms := speedKmh / 3.6
	return ms * ms / (2 * decel)
}

// Compute evaluates the controller without touching the vehicle.
func Compute(v *core.VehicleState) Command {
	if !Active(v) {
		return Command{}
	}

	bearing := geo.Bearing(v.Lat, v.Lng, v.TargetLat, v.TargetLng)
	dist := geo.Distance(v.Lat, v.Lng, v.TargetLat, v.TargetLng)
	herr := geo.HeadingError(bearing, v.Heading)

	throttle := core.MaxThrottle
	switch {
	case dist < ArrivalRadius:
		throttle = 0
	case dist < BrakingDistance(v.Speed)+BrakingMargin:
		throttle = core.MinThrottle
	}

	return Command{
		Throttle:     throttle,
		Rudder:       math.Max(-maxRudder, math.Min(maxRudder, herr*rudderGain)),
		HeadingError: herr,
		Distance:     dist,
		Active:       true,
	}
}

// Apply runs the controller on the vehicle. When it cannot run, throttle is
// zeroed and the autopilot disengages.
func Apply(v *core.VehicleState) Command {
	cmd := Compute(v)
	if !cmd.Active {
		v.Throttle = 0
		v.AutopilotEnabled = false
		return cmd
	}
	v.Throttle = cmd.Throttle
	v.Rudder = cmd.Rudder
	return cmd
}

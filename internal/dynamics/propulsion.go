// Package dynamics integrates engine power, speed and heading for one step.
package dynamics

import (
	"math"

	"github.com/aerostat-sim/airship/internal/perf"
	"github.com/aerostat-sim/airship/pkg/core"
)

const (
	// EnginePowerRate is how fast engine power follows the throttle, in %/s.
	EnginePowerRate = 1.0
	// PowerPerNotch maps a throttle notch to target engine power.
	PowerPerNotch = 20.0

	idlePower    = 0.1
	speedEpsilon = 0.01

	cruiseAccel = 0.08
	coastAccel  = 0.3
	brakeAccel  = 0.8
	idleDrag    = 0.3
)

// Propel runs the propulsion step: engine ramp, fuel burn, speed response and drag.
// It returns the liters burned.
func Propel(v *core.VehicleState, dt float64) float64 {
	RampEngine(v, dt)
	burned := BurnFuel(v, dt)
	ApproachSpeed(v, dt)
	ApplyDrag(v, dt)
	return burned
}

// RampEngine moves engine power toward throttle*20. Reversals first pass through idle.
func RampEngine(v *core.VehicleState, dt float64) {
	step := EnginePowerRate * dt
	if sign(v.EnginePower) != sign(float64(v.Throttle)) && v.EnginePower != 0 {
		v.EnginePower = approach(v.EnginePower, 0, step)
		if math.Abs(v.EnginePower) <= idlePower {
			v.EnginePower = 0
		}
		return
	}
	v.EnginePower = approach(v.EnginePower, float64(v.Throttle)*PowerPerNotch, step)
}

// BurnFuel consumes fuel for the current engine power. An empty tank stalls the engine.
func BurnFuel(v *core.VehicleState, dt float64) float64 {
	if v.Throttle == 0 || v.EnginePower == 0 || v.FuelReserve <= 0 {
		return 0
	}
	used := perf.FuelRate(math.Abs(v.EnginePower)) / 3600 * dt
	if v.FuelReserve < used {
		v.FuelReserve = 0
		v.Throttle = 0
		v.EnginePower = 0
		return 0
	}
	v.FuelReserve -= used
	v.TotalFuelBurned += used
	return used
}

// TargetSpeed is the steady speed for an engine power, signed like the power.
func TargetSpeed(power float64) float64 {
	return sign(power) * perf.SteadySpeed(math.Abs(power))
}

// ApproachSpeed moves speed toward the target with a regime dependent acceleration.
func ApproachSpeed(v *core.VehicleState, dt float64) {
	target := TargetSpeed(v.EnginePower)
	if math.Abs(v.Speed-target) <= speedEpsilon {
		v.Speed = target
		return
	}

	accel := cruiseAccel
	switch {
	case math.Abs(v.EnginePower) < idlePower:
		accel = coastAccel
	case (v.EnginePower < 0 && v.Speed > 0) || (v.EnginePower > 0 && v.Speed < 0):
		accel = brakeAccel
	}
	v.Speed = approach(v.Speed, target, accel*dt)
}

// ApplyDrag bleeds residual speed while the engine idles.
func ApplyDrag(v *core.VehicleState, dt float64) {
	if math.Abs(v.EnginePower) >= idlePower || math.Abs(v.Speed) <= idlePower {
		return
	}
	v.Speed = approach(v.Speed, 0, idleDrag*dt)
}

func approach(cur, target, step float64) float64 {
	if cur < target {
		return math.Min(target, cur+step)
	}
	if cur > target {
		return math.Max(target, cur-step)
	}
	return cur
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

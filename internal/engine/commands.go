package engine

import (
	"math"

	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/pkg/core"
)

// Command names used in rejections.
const (
	CmdThrottle  = "throttle"
	CmdRudder    = "rudder"
	CmdTarget    = "target"
	CmdAnchor    = "anchor"
	CmdAutopilot = "autopilot"
	CmdFastBrake = "fastbrake"
	CmdWindMode  = "windmode"
	CmdWind      = "wind"
	CmdFuel      = "fuel"
	CmdTimeWarp  = "warp"
)

const (
	rudderPerStep = 0.1
	maxRudderStep = 5.0
)

// SetThrottle sets the throttle notch. Operator throttle disengages the autopilot.
func (e *Engine) SetThrottle(notch int) bool {
	v := &e.vehicle
	switch {
	case notch < core.MinThrottle || notch > core.MaxThrottle:
		return e.reject(CmdThrottle, core.RejectInvalidValue)
	case v.AnchorEnabled:
		return e.reject(CmdThrottle, core.RejectAnchored)
	case v.FuelReserve <= 0 && notch != 0:
		return e.reject(CmdThrottle, core.RejectNoFuel)
	}
	v.AutopilotEnabled = false
	v.Throttle = notch
	return true
}

// SetRudder sets the rudder from an operator step in [-5,5]; the effective
// rudder is a tenth of it. Operator rudder disengages the autopilot.
func (e *Engine) SetRudder(step float64) bool {
	v := &e.vehicle
	switch {
	case math.IsNaN(step) || math.Abs(step) > maxRudderStep:
		return e.reject(CmdRudder, core.RejectInvalidValue)
	case v.AnchorEnabled:
		return e.reject(CmdRudder, core.RejectAnchored)
	}
	v.AutopilotEnabled = false
	v.Rudder = step * rudderPerStep
	return true
}

// SetTarget places the navigation target.
func (e *Engine) SetTarget(lat, lng float64) bool {
	if !geo.ValidLatLng(lat, lng) {
		return e.reject(CmdTarget, core.RejectInvalidValue)
	}
	v := &e.vehicle
	v.HasTarget = true
	v.TargetLat = lat
	v.TargetLng = lng
	return true
}

// ClearTarget removes the target and disengages the autopilot.
func (e *Engine) ClearTarget() {
	v := &e.vehicle
	v.HasTarget = false
	v.TargetLat = 0
	v.TargetLng = 0
	v.AutopilotEnabled = false
}

// SetAnchor drops or weighs the anchor. Dropping it above AnchorSpeed is refused;
// a dropped anchor stops the engine and releases every propulsion mode.
func (e *Engine) SetAnchor(on bool) bool {
	v := &e.vehicle
	if !on {
		v.AnchorEnabled = false
		return true
	}
	if math.Abs(v.GroundSpeed) > AnchorSpeed {
		return e.reject(CmdAnchor, core.RejectSpeedTooHigh)
	}
	v.AnchorEnabled = true
	v.Throttle = 0
	v.Rudder = 0
	v.AutopilotEnabled = false
	v.FastBrakeEnabled = false
	return true
}

// SetAutopilot engages or releases the autopilot. Engaging needs a target.
func (e *Engine) SetAutopilot(on bool) bool {
	v := &e.vehicle
	if !on {
		v.AutopilotEnabled = false
		return true
	}
	switch {
	case v.AnchorEnabled:
		return e.reject(CmdAutopilot, core.RejectAnchored)
	case !v.HasTarget:
		return e.reject(CmdAutopilot, core.RejectNoTarget)
	}
	v.AutopilotEnabled = true
	return true
}

// SetFastBrake arms full astern until speed drops to FastBrakeSpeed.
// Arming it while already slow clears it immediately and reports false.
func (e *Engine) SetFastBrake(on bool) bool {
	v := &e.vehicle
	if !on {
		v.FastBrakeEnabled = false
		return true
	}
	switch {
	case v.AnchorEnabled:
		return e.reject(CmdFastBrake, core.RejectAnchored)
	case v.Speed <= FastBrakeSpeed:
		v.FastBrakeEnabled = false
		return e.reject(CmdFastBrake, core.RejectNotMoving)
	}
	v.FastBrakeEnabled = true
	return true
}

// SetWindMode switches between automatic and manual wind.
func (e *Engine) SetWindMode(mode core.WindMode) bool {
	m, ok := core.ParseWindMode(string(mode))
	if !ok {
		return e.reject(CmdWindMode, core.RejectInvalidWindCmd)
	}
	e.wind.SetMode(m)
	return true
}

// SetWindManual overrides force and direction. Force is clamped to [0,12].
func (e *Engine) SetWindManual(force, direction float64) bool {
	if math.IsNaN(force) || math.IsNaN(direction) || math.IsInf(direction, 0) {
		return e.reject(CmdWind, core.RejectInvalidValue)
	}
	e.wind.SetManual(force, direction)
	return true
}

// RandomizeWind applies a one-shot gust.
func (e *Engine) RandomizeWind() {
	e.wind.Randomize()
}

// AddFuel refuels by liters, clamped to the tank capacity.
func (e *Engine) AddFuel(liters float64) bool {
	if math.IsNaN(liters) || liters <= 0 {
		return e.reject(CmdFuel, core.RejectInvalidValue)
	}
	v := &e.vehicle
	v.FuelReserve = math.Min(core.MaxFuelCapacity, v.FuelReserve+liters)
	return true
}

// Pause stops state mutation until Resume.
func (e *Engine) Pause() {
	e.paused = true
}

// Resume lets ticks mutate state again.
func (e *Engine) Resume() {
	e.paused = false
}

// SetTimeWarp changes the simulated-per-wall time factor.
func (e *Engine) SetTimeWarp(f float64) bool {
	if !ValidTimeWarp(f) {
		return e.reject(CmdTimeWarp, core.RejectInvalidWarp)
	}
	e.timeWarp = f
	return true
}

func (e *Engine) reject(cmd string, reason core.RejectReason) bool {
	r := core.Rejection{
		Command:        cmd,
		Reason:         reason,
		VirtualSeconds: e.vehicle.VirtualElapsedSeconds,
		Time:           e.now(),
	}
	e.log.Info("command rejected", "command", cmd, "reason", reason)
	e.metrics.rejected(r)
	for _, o := range e.observers {
		o.OnRejection(r)
	}
	return false
}

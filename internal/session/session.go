// Package session converts between the engine state and its external forms:
// bootstrap key/value parameters and the persisted session record.
package session

import (
	"errors"
	"math"
	"strings"

	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/spf13/cast"
)

// ErrInvalidLocation is returned when latitude or longitude is missing or out of range.
var ErrInvalidLocation = errors.New("invalid or missing location")

// Getter looks up a raw value by key; ok is false when the key is absent.
type Getter func(key string) (any, bool)

func toFloat(get Getter, key string, def float64) float64 {
	raw, ok := get(key)
	if !ok || raw == nil {
		return def
	}
	if s, isStr := raw.(string); isStr {
		s = strings.TrimSpace(s)
		if s == "" {
			return def
		}
		raw = s
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func toInt(get Getter, key string, def int) int {
	f := toFloat(get, key, math.NaN())
	if math.IsNaN(f) {
		return def
	}
	return int(math.Trunc(f))
}

func toBool(get Getter, key string, def bool) bool {
	raw, ok := get(key)
	if !ok || raw == nil {
		return def
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return def
	}
	return b
}

func toString(get Getter, key, def string) string {
	raw, ok := get(key)
	if !ok || raw == nil {
		return def
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return def
	}
	return s
}

func location(get Getter, latKey, lngKey string) (float64, float64, bool) {
	lat := toFloat(get, latKey, math.NaN())
	lng := toFloat(get, lngKey, math.NaN())
	if math.IsNaN(lat) || math.IsNaN(lng) || !geo.ValidLatLng(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

// sanitize enforces state invariants on fields that came from outside.
func sanitize(v *core.VehicleState) {
	v.Heading = geo.NormalizeDegrees(v.Heading)
	if v.Throttle < core.MinThrottle || v.Throttle > core.MaxThrottle {
		v.Throttle = 0
	}
	if math.Abs(v.Rudder) > 0.5 {
		v.Rudder = 0
	}
	if math.Abs(v.EnginePower) > 100 {
		v.EnginePower = 0
	}
	v.PropRotationAngle = geo.NormalizeDegrees(v.PropRotationAngle)
	v.FuelReserve = math.Max(0, math.Min(core.MaxFuelCapacity, v.FuelReserve))
	v.TotalFuelBurned = math.Max(0, v.TotalFuelBurned)
	v.TotalDistanceMeters = math.Max(0, v.TotalDistanceMeters)
	v.VirtualElapsedSeconds = math.Max(0, v.VirtualElapsedSeconds)
	v.WindLastVirtualUpdate = math.Max(0, math.Min(v.VirtualElapsedSeconds, v.WindLastVirtualUpdate))
	if !v.HasTarget {
		v.TargetLat, v.TargetLng = 0, 0
		v.AutopilotEnabled = false
	}
	if v.AnchorEnabled {
		releaseControls(v)
	}
}

// releaseControls drops every propulsion and steering command, as an anchored vessel requires.
func releaseControls(v *core.VehicleState) {
	v.Throttle = 0
	v.Rudder = 0
	v.AutopilotEnabled = false
	v.FastBrakeEnabled = false
}

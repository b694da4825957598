package session

import (
	"net/url"
	"time"

	"github.com/aerostat-sim/airship/pkg/core"
)

// Bootstrap parameter keys.
const (
	KeyLat          = "lat"
	KeyLng          = "lng"
	KeyHeading      = "hdg"
	KeySpeed        = "spd"
	KeyThrottle     = "thr"
	KeyRudder       = "rud"
	KeyEnginePower  = "eng"
	KeyHasTarget    = "tgt"
	KeyTargetLat    = "tlt"
	KeyTargetLng    = "tlg"
	KeyAutopilot    = "apl"
	KeyFastBrake    = "fbr"
	KeyVirtualStart = "vst"
)

// ParseBootstrap builds a vehicle from bootstrap parameters such as a URL query.
// Every field except the location falls back to its default on a parse failure;
// a missing or out-of-range location returns ErrInvalidLocation.
// Flags are on only when their value is exactly "1".
func ParseBootstrap(q url.Values, now time.Time) (core.VehicleState, error) {
	get := func(key string) (any, bool) {
		if !q.Has(key) {
			return nil, false
		}
		return q.Get(key), true
	}

	lat, lng, ok := location(get, KeyLat, KeyLng)
	if !ok {
		return core.VehicleState{}, ErrInvalidLocation
	}

	v := core.VehicleState{
		Lat:              lat,
		Lng:              lng,
		Heading:          toFloat(get, KeyHeading, 0),
		Speed:            toFloat(get, KeySpeed, 0),
		Throttle:         toInt(get, KeyThrottle, 0),
		Rudder:           toFloat(get, KeyRudder, 0),
		EnginePower:      toFloat(get, KeyEnginePower, 0),
		AutopilotEnabled: q.Get(KeyAutopilot) == "1",
		FastBrakeEnabled: q.Get(KeyFastBrake) == "1",
		VirtualStart:     now,
	}
	v.GroundSpeed = v.Speed

	if q.Get(KeyHasTarget) == "1" {
		if tlat, tlng, ok := location(get, KeyTargetLat, KeyTargetLng); ok {
			v.HasTarget = true
			v.TargetLat = tlat
			v.TargetLng = tlng
		}
	}

	if vst := toInt(get, KeyVirtualStart, 0); vst > 0 {
		v.VirtualStart = time.Unix(int64(vst), 0).UTC()
	}

	sanitize(&v)
	if v.Speed == 0 && v.Throttle == 0 && v.EnginePower == 0 {
		v.AnchorEnabled = true
		releaseControls(&v)
	}
	return v, nil
}

// BootstrapValues renders the vehicle as bootstrap parameters, the inverse of ParseBootstrap.
func BootstrapValues(v core.VehicleState) url.Values {
	q := url.Values{}
	q.Set(KeyLat, formatFloat(v.Lat))
	q.Set(KeyLng, formatFloat(v.Lng))
	q.Set(KeyHeading, formatFloat(v.Heading))
	q.Set(KeySpeed, formatFloat(v.Speed))
	q.Set(KeyThrottle, formatFloat(float64(v.Throttle)))
	q.Set(KeyRudder, formatFloat(v.Rudder))
	q.Set(KeyEnginePower, formatFloat(v.EnginePower))
	q.Set(KeyHasTarget, flag(v.HasTarget))
	if v.HasTarget {
		q.Set(KeyTargetLat, formatFloat(v.TargetLat))
		q.Set(KeyTargetLng, formatFloat(v.TargetLng))
	}
	q.Set(KeyAutopilot, flag(v.AutopilotEnabled))
	q.Set(KeyFastBrake, flag(v.FastBrakeEnabled))
	if !v.VirtualStart.IsZero() {
		q.Set(KeyVirtualStart, formatFloat(float64(v.VirtualStart.Unix())))
	}
	return q
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

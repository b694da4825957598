package session

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aerostat-sim/airship/internal/engine"
	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/pkg/core"
)

// Restored is everything recovered from a persisted record.
type Restored struct {
	Vehicle  core.VehicleState
	Wind     core.WindState
	TimeWarp float64
}

// Options turns the restored state into engine options.
func (r Restored) Options() []engine.Option {
	return []engine.Option{
		engine.WithWind(r.Wind, r.Vehicle.WindLastVirtualUpdate),
		engine.WithTimeWarp(r.TimeWarp),
	}
}

// Encode flattens the engine state into a persisted record.
func Encode(v core.VehicleState, w core.WindState, timeWarp float64) core.SessionRecord {
	rec := core.SessionRecord{
		Lat:                   v.Lat,
		Lng:                   v.Lng,
		Heading:               v.Heading,
		Speed:                 v.Speed,
		GroundSpeed:           v.GroundSpeed,
		EnginePower:           v.EnginePower,
		Throttle:              v.Throttle,
		Rudder:                v.Rudder,
		AngularVelocity:       v.AngularVelocity,
		PropRotationAngle:     v.PropRotationAngle,
		FuelReserve:           v.FuelReserve,
		TotalFuelBurned:       v.TotalFuelBurned,
		TotalDistanceMeters:   v.TotalDistanceMeters,
		AnchorEnabled:         v.AnchorEnabled,
		FastBrakeEnabled:      v.FastBrakeEnabled,
		AutopilotEnabled:      v.AutopilotEnabled,
		HasTarget:             v.HasTarget,
		VirtualElapsedSeconds: v.VirtualElapsedSeconds,
		WindLastVirtualUpdate: v.WindLastVirtualUpdate,
		WindSpeedBf:           w.Force,
		WindDirection:         w.Direction,
		WindMode:              string(w.Mode),
		TimeWarp:              timeWarp,
	}
	if v.HasTarget {
		lat, lng := v.TargetLat, v.TargetLng
		rec.TargetLat = &lat
		rec.TargetLng = &lng
	}
	if !v.VirtualStart.IsZero() {
		rec.VirtualStartTime = v.VirtualStart.UnixMilli()
	}
	return rec
}

// Marshal encodes the engine state as persisted JSON.
func Marshal(v core.VehicleState, w core.WindState, timeWarp float64) (json.RawMessage, error) {
	data, err := json.Marshal(Encode(v, w, timeWarp))
	if err != nil {
		return nil, fmt.Errorf("encoding session record: %w", err)
	}
	return data, nil
}

// Decode parses a persisted record leniently. Unknown, missing or malformed
// fields fall back to defaults; only a bad location rejects the record.
func Decode(data []byte, now time.Time) (Restored, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Restored{}, fmt.Errorf("decoding session record: %w", err)
	}
	get := func(key string) (any, bool) {
		v, ok := raw[key]
		return v, ok
	}

	lat, lng, ok := location(get, "lat", "lng")
	if !ok {
		return Restored{}, ErrInvalidLocation
	}

	v := core.VehicleState{
		Lat:                   lat,
		Lng:                   lng,
		Heading:               toFloat(get, "heading", 0),
		Speed:                 toFloat(get, "speed", 0),
		GroundSpeed:           toFloat(get, "groundSpeed", 0),
		EnginePower:           toFloat(get, "enginePower", 0),
		Throttle:              toInt(get, "throttle", 0),
		Rudder:                toFloat(get, "rudder", 0),
		AngularVelocity:       toFloat(get, "angularVelocity", 0),
		PropRotationAngle:     toFloat(get, "propRotationAngle", 0),
		FuelReserve:           toFloat(get, "fuelReserve", 0),
		TotalFuelBurned:       toFloat(get, "totalFuelBurned", 0),
		TotalDistanceMeters:   toFloat(get, "totalDistanceMeters", 0),
		AnchorEnabled:         toBool(get, "anchorEnabled", true),
		FastBrakeEnabled:      toBool(get, "fastBrakeEnabled", false),
		AutopilotEnabled:      toBool(get, "autopilotEnabled", false),
		VirtualElapsedSeconds: toFloat(get, "virtualElapsedSeconds", 0),
		WindLastVirtualUpdate: toFloat(get, "windLastVirtualUpdate", 0),
		VirtualStart:          now,
	}
	if toBool(get, "hasTarget", false) {
		if tlat, tlng, ok := location(get, "targetLat", "targetLng"); ok {
			v.HasTarget = true
			v.TargetLat = tlat
			v.TargetLng = tlng
		}
	}
	if ms := toFloat(get, "virtualStartTime", 0); ms > 0 {
		v.VirtualStart = time.UnixMilli(int64(ms)).UTC()
	}
	sanitize(&v)

	mode, ok := core.ParseWindMode(toString(get, "windMode", string(core.WindAuto)))
	if !ok {
		mode = core.WindAuto
	}
	w := core.WindState{
		Force:     math.Max(0, math.Min(core.MaxWindForce, toFloat(get, "windSpeedBf", 0))),
		Direction: geo.NormalizeDegrees(toFloat(get, "windDirection", 0)),
		Mode:      mode,
	}

	warp := toFloat(get, "timeWarp", 1)
	if !engine.ValidTimeWarp(warp) {
		warp = 1
	}

	return Restored{Vehicle: v, Wind: w, TimeWarp: warp}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package core

import "time"

// Navigation holds read-outs relative to the current target.
type Navigation struct {
	TargetLat       float64 `json:"targetLat"`
	TargetLng       float64 `json:"targetLng"`
	Bearing         float64 `json:"bearing"`
	DistanceMeters  float64 `json:"distanceMeters"`
	CourseDeviation float64 `json:"courseDeviation"`
	// ETA is only meaningful when ETAKnown is set (ground speed above 5 km/h).
	ETA      time.Duration `json:"eta"`
	ETAKnown bool          `json:"etaKnown"`
}

// Snapshot is the read-only view published to observers after every tick.
type Snapshot struct {
	Tick     uint64    `json:"tick"`
	Time     time.Time `json:"time"`
	Paused   bool      `json:"paused"`
	TimeWarp float64   `json:"timeWarp"`

	Vehicle VehicleState `json:"vehicle"`
	Wind    WindState    `json:"wind"`

	WindSpeedMps  float64 `json:"windSpeedMps"`
	PropellerRPM  float64 `json:"propellerRpm"`
	ThrottleLabel string  `json:"throttleLabel"`

	// FuelTimeRemaining is zero with an empty tank; FuelUnbounded is set
	// when the engine idles or the estimate exceeds 24 hours.
	FuelTimeRemaining time.Duration `json:"fuelTimeRemaining"`
	FuelUnbounded     bool          `json:"fuelUnbounded"`

	Navigation *Navigation `json:"navigation,omitempty"`
}

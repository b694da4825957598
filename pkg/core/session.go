// pkg/core/session.go
package core

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one simulation run from spawn (or resume) to shutdown.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time
	StartLat  float64
	StartLng  float64
	Resumed   bool
}

// NewSession creates a session with a random identifier.
func NewSession(lat, lng float64, now time.Time, resumed bool) *Session {
	return &Session{
		ID:        uuid.New(),
		StartedAt: now,
		StartLat:  lat,
		StartLng:  lng,
		Resumed:   resumed,
	}
}

// SessionRecord is the flat persisted form of VehicleState plus WindState.
// Keys mirror the saved-game format so older saves keep loading.
type SessionRecord struct {
	Lat                   float64  `json:"lat"`
	Lng                   float64  `json:"lng"`
	Heading               float64  `json:"heading"`
	Speed                 float64  `json:"speed"`
	GroundSpeed           float64  `json:"groundSpeed"`
	EnginePower           float64  `json:"enginePower"`
	Throttle              int      `json:"throttle"`
	Rudder                float64  `json:"rudder"`
	AngularVelocity       float64  `json:"angularVelocity"`
	PropRotationAngle     float64  `json:"propRotationAngle"`
	FuelReserve           float64  `json:"fuelReserve"`
	TotalFuelBurned       float64  `json:"totalFuelBurned"`
	TotalDistanceMeters   float64  `json:"totalDistanceMeters"`
	AnchorEnabled         bool     `json:"anchorEnabled"`
	FastBrakeEnabled      bool     `json:"fastBrakeEnabled"`
	AutopilotEnabled      bool     `json:"autopilotEnabled"`
	HasTarget             bool     `json:"hasTarget"`
	TargetLat             *float64 `json:"targetLat"`
	TargetLng             *float64 `json:"targetLng"`
	VirtualElapsedSeconds float64  `json:"virtualElapsedSeconds"`
	WindLastVirtualUpdate float64  `json:"windLastVirtualUpdate"`
	VirtualStartTime      int64    `json:"virtualStartTime"` // unix milliseconds

	WindSpeedBf   float64 `json:"windSpeedBf"`
	WindDirection float64 `json:"windDirection"`
	WindMode      string  `json:"windMode"`
	TimeWarp      float64 `json:"timeWarp"`
}

// TrackPoint is one sampled position along the flight path.
type TrackPoint struct {
	SessionID      uuid.UUID
	Time           time.Time
	VirtualSeconds float64
	Lat            float64
	Lng            float64
	Heading        float64
	Speed          float64
	GroundSpeed    float64
	EnginePower    float64
	FuelReserve    float64
	WindForce      float64
	WindDirection  float64
}

// FlightSummary describes a finished session for export and upload.
type FlightSummary struct {
	SessionID      string
	StartedAt      time.Time
	VirtualSeconds float64
	DistanceMeters float64
	FuelBurned     float64
}

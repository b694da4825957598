package streaming

import (
	"encoding/json"

	"github.com/aerostat-sim/airship/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeState        = "state"
	TypeTrackPoint   = "track_point"
	TypeRejection    = "rejection"
	TypeSnapshot     = "snapshot"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload announces a new or resumed session.
type StartSessionPayload struct {
	SessionID string  `json:"sessionId"`
	StartedAt int64   `json:"startedAt"` // unix milliseconds
	StartLat  float64 `json:"startLat"`
	StartLng  float64 `json:"startLng"`
	Resumed   bool    `json:"resumed"`
}

// EndSessionPayload closes a session with its totals.
type EndSessionPayload struct {
	SessionID      string  `json:"sessionId"`
	VirtualSeconds float64 `json:"virtualSeconds"`
	DistanceMeters float64 `json:"distanceMeters"`
	FuelBurned     float64 `json:"fuelBurned"`
}

// StatePayload carries the persisted session record.
type StatePayload struct {
	SessionID string             `json:"sessionId"`
	Record    core.SessionRecord `json:"record"`
}

// TrackPointPayload carries one sampled position.
type TrackPointPayload struct {
	SessionID      string  `json:"sessionId"`
	Time           int64   `json:"time"`
	VirtualSeconds float64 `json:"virtualSeconds"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Heading        float64 `json:"heading"`
	Speed          float64 `json:"speed"`
	GroundSpeed    float64 `json:"groundSpeed"`
	EnginePower    float64 `json:"enginePower"`
	FuelReserve    float64 `json:"fuelReserve"`
	WindForce      float64 `json:"windForce"`
	WindDirection  float64 `json:"windDirection"`
}

// RejectionPayload carries a refused command.
type RejectionPayload struct {
	SessionID string         `json:"sessionId"`
	Rejection core.Rejection `json:"rejection"`
}

// NewTrackPointPayload converts a core track point into its wire form.
func NewTrackPointPayload(p core.TrackPoint) TrackPointPayload {
	return TrackPointPayload{
		SessionID:      p.SessionID.String(),
		Time:           p.Time.UnixMilli(),
		VirtualSeconds: p.VirtualSeconds,
		Lat:            p.Lat,
		Lng:            p.Lng,
		Heading:        p.Heading,
		Speed:          p.Speed,
		GroundSpeed:    p.GroundSpeed,
		EnginePower:    p.EnginePower,
		FuelReserve:    p.FuelReserve,
		WindForce:      p.WindForce,
		WindDirection:  p.WindDirection,
	}
}

// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/internal/model"
	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CoreToSession converts a core.Session to a GORM model.Session.
// The track line is filled in when the session ends.
func CoreToSession(s core.Session) model.Session {
	return model.Session{
		SessionID: s.ID.String(),
		StartedAt: s.StartedAt,
		Resumed:   s.Resumed,
		StartLat:  s.StartLat,
		StartLng:  s.StartLng,
		Origin:    geo.Point3857(s.StartLat, s.StartLng),
	}
}

// RecordToSessionState wraps a persisted record for the session_states table.
func RecordToSessionState(sessionID string, rec core.SessionRecord) (model.SessionState, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return model.SessionState{}, fmt.Errorf("marshaling session record: %w", err)
	}
	return model.SessionState{
		SessionID: sessionID,
		Position:  geo.Point3857(rec.Lat, rec.Lng),
		Record:    datatypes.JSON(data),
	}, nil
}

// CoreToTrackPoint converts a core.TrackPoint to a GORM model.TrackPoint.
func CoreToTrackPoint(p core.TrackPoint) model.TrackPoint {
	return model.TrackPoint{
		SessionID:      p.SessionID.String(),
		Time:           p.Time,
		VirtualSeconds: p.VirtualSeconds,
		Position:       geo.Point3857(p.Lat, p.Lng),
		Lat:            p.Lat,
		Lng:            p.Lng,
		Heading:        float32(p.Heading),
		Speed:          float32(p.Speed),
		GroundSpeed:    float32(p.GroundSpeed),
		EnginePower:    float32(p.EnginePower),
		FuelReserve:    float32(p.FuelReserve),
		WindForce:      float32(p.WindForce),
		WindDirection:  float32(p.WindDirection),
	}
}

// TrackPointToCore converts a stored track point back to its core form.
// A malformed session id yields uuid.Nil.
func TrackPointToCore(p model.TrackPoint) core.TrackPoint {
	id, _ := uuid.Parse(p.SessionID)
	return core.TrackPoint{
		SessionID:      id,
		Time:           p.Time,
		VirtualSeconds: p.VirtualSeconds,
		Lat:            p.Lat,
		Lng:            p.Lng,
		Heading:        float64(p.Heading),
		Speed:          float64(p.Speed),
		GroundSpeed:    float64(p.GroundSpeed),
		EnginePower:    float64(p.EnginePower),
		FuelReserve:    float64(p.FuelReserve),
		WindForce:      float64(p.WindForce),
		WindDirection:  float64(p.WindDirection),
	}
}

// CoreToRejectionEvent converts a core.Rejection to a GORM model.RejectionEvent.
func CoreToRejectionEvent(sessionID string, r core.Rejection) model.RejectionEvent {
	detail, err := json.Marshal(r)
	if err != nil {
		detail = []byte("{}")
	}
	return model.RejectionEvent{
		SessionID:      sessionID,
		Time:           r.Time,
		VirtualSeconds: r.VirtualSeconds,
		Command:        r.Command,
		Reason:         string(r.Reason),
		Detail:         datatypes.JSON(detail),
	}
}

// TrackPath extracts the positions of stored track points in order.
func TrackPath(points []model.TrackPoint) []geo.LatLng {
	path := make([]geo.LatLng, len(points))
	for i, p := range points {
		path[i] = geo.LatLng{Lat: p.Lat, Lng: p.Lng}
	}
	return path
}

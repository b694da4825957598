package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&AirshipInfo{},
	&Session{},
	&SessionState{},
	&TrackPoint{},
	&RejectionEvent{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// AirshipInfo holds the vessel particulars for the instance
type AirshipInfo struct {
	gorm.Model
	Name          string  `json:"name" gorm:"size:127"`
	Registration  string  `json:"registration" gorm:"size:64"`
	FuelCapacityL float64 `json:"fuelCapacityL"`
}

func (*AirshipInfo) TableName() string {
	return "airship_infos"
}

////////////////////////
// FLIGHT MODELS
////////////////////////

// Session is one simulation run. Origin and Track are EPSG:3857 geometry.
type Session struct {
	gorm.Model
	SessionID      string          `json:"sessionId" gorm:"size:36;uniqueIndex:idx_session_session_id"`
	StartedAt      time.Time       `json:"startedAt"`
	EndedAt        sql.NullTime    `json:"endedAt"`
	Resumed        bool            `json:"resumed" gorm:"default:false"`
	StartLat       float64         `json:"startLat"`
	StartLng       float64         `json:"startLng"`
	Origin         geom.Point      `json:"origin"`
	Track          geom.LineString `json:"-"`
	VirtualSeconds float64         `json:"virtualSeconds"`
	DistanceMeters float64         `json:"distanceMeters"`
	FuelBurned     float64         `json:"fuelBurned"`
}

func (*Session) TableName() string {
	return "sessions"
}

// SessionState is the latest persisted record of a session, overwritten on every autosave.
type SessionState struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID string         `json:"sessionId" gorm:"size:36;uniqueIndex:idx_sessionstate_session_id"`
	SavedAt   time.Time      `json:"savedAt" gorm:"index:idx_sessionstate_saved_at"`
	Position  geom.Point     `json:"position"`
	Record    datatypes.JSON `json:"record"`
}

func (*SessionState) TableName() string {
	return "session_states"
}

// TrackPoint is one sampled position along the flight path.
type TrackPoint struct {
	ID             uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID      string     `json:"sessionId" gorm:"size:36;index:idx_trackpoint_session_id"`
	Time           time.Time  `json:"time"`
	VirtualSeconds float64    `json:"virtualSeconds" gorm:"index:idx_trackpoint_virtual_seconds"`
	Position       geom.Point `json:"position"` // EPSG:3857
	Lat            float64    `json:"lat"`
	Lng            float64    `json:"lng"`
	Heading        float32    `json:"heading"`
	Speed          float32    `json:"speed"`       // km/h through the air
	GroundSpeed    float32    `json:"groundSpeed"` // km/h over ground
	EnginePower    float32    `json:"enginePower"`
	FuelReserve    float32    `json:"fuelReserve"`
	WindForce      float32    `json:"windForce"`
	WindDirection  float32    `json:"windDirection"`
}

func (*TrackPoint) TableName() string {
	return "track_points"
}

// RejectionEvent records an operator command refused by an interlock.
type RejectionEvent struct {
	ID             uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID      string         `json:"sessionId" gorm:"size:36;index:idx_rejection_session_id"`
	Time           time.Time      `json:"time"`
	VirtualSeconds float64        `json:"virtualSeconds"`
	Command        string         `json:"command" gorm:"size:32"`
	Reason         string         `json:"reason" gorm:"size:32;index:idx_rejection_reason"`
	Detail         datatypes.JSON `json:"detail" gorm:"default:'{}'"`
}

func (*RejectionEvent) TableName() string {
	return "rejection_events"
}

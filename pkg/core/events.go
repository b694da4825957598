// pkg/core/events.go
package core

import "time"

// RejectReason names why a command was refused.
type RejectReason string

const (
	RejectAnchored       RejectReason = "anchored"
	RejectNoFuel         RejectReason = "no_fuel"
	RejectNoTarget       RejectReason = "no_target"
	RejectSpeedTooHigh   RejectReason = "speed_too_high"
	RejectNotMoving      RejectReason = "not_moving"
	RejectInvalidValue   RejectReason = "invalid_value"
	RejectInvalidWarp    RejectReason = "invalid_time_warp"
	RejectInvalidWindCmd RejectReason = "invalid_wind_mode"
)

// Rejection is published whenever a command violates an interlock.
type Rejection struct {
	Command        string       `json:"command"`
	Reason         RejectReason `json:"reason"`
	VirtualSeconds float64      `json:"virtualSeconds"`
	Time           time.Time    `json:"time"`
}

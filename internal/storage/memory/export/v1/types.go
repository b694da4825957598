// Package v1 contains the v1 flight log export format.
package v1

// FormatVersion is written into every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	Version        int     `json:"version"`
	SessionID      string  `json:"sessionId"`
	StartedAt      string  `json:"startedAt"` // RFC3339
	Resumed        bool    `json:"resumed"`
	StartLat       float64 `json:"startLat"`
	StartLng       float64 `json:"startLng"`
	VirtualSeconds float64 `json:"virtualSeconds"`
	DistanceMeters float64 `json:"distanceMeters"`
	FuelBurned     float64 `json:"fuelBurned"`

	// Track rows: [virtualSeconds, [lat, lng], heading, speed, groundSpeed,
	// enginePower, fuelReserve, [windForce, windDirection]]
	Track [][]any `json:"track"`

	// Event rows: [virtualSeconds, "rejection", command, reason]
	Events [][]any `json:"events"`
}

// pkg/core/vehicle.go
package core

import "time"

// Throttle notch bounds.
const (
	MinThrottle = -5
	MaxThrottle = 5
)

// MaxFuelCapacity is the tank size in liters.
const MaxFuelCapacity = 88000.0

// VehicleState is the complete mutable state of the airship.
// Rudder holds the effective rudder in [-0.5, 0.5]; operator notches are scaled by 0.1.
type VehicleState struct {
	Lat float64
	Lng float64

	Heading         float64 // degrees [0,360)
	Speed           float64 // km/h, body frame, positive = forward
	GroundSpeed     float64 // km/h, signed by projection onto heading
	EnginePower     float64 // percent [-100,100]
	Throttle        int     // notch [-5,5]
	Rudder          float64
	AngularVelocity float64 // degrees/second

	PropRotationAngle float64

	FuelReserve         float64
	TotalFuelBurned     float64
	TotalDistanceMeters float64

	AnchorEnabled    bool
	FastBrakeEnabled bool
	AutopilotEnabled bool
	HasTarget        bool
	TargetLat        float64
	TargetLng        float64

	VirtualElapsedSeconds float64
	WindLastVirtualUpdate float64
	VirtualStart          time.Time
}

// Spawn returns a fresh anchored vehicle at the given position with an empty tank.
func Spawn(lat, lng float64, now time.Time) VehicleState {
	return VehicleState{
		Lat:           lat,
		Lng:           lng,
		AnchorEnabled: true,
		VirtualStart:  now,
	}
}

// ThrottleLabel returns the telegraph name of a throttle notch.
func ThrottleLabel(notch int) string {
	switch notch {
	case -5:
		return "ASTERN FULL"
	case -4:
		return "ASTERN HALF"
	case -3:
		return "ASTERN SLOW"
	case -2:
		return "ASTERN DEAD SLOW"
	case -1:
		return "DEAD SLOW (astern)"
	case 1:
		return "DEAD SLOW"
	case 2:
		return "SLOW"
	case 3:
		return "HALF"
	case 4, 5:
		return "FULL"
	default:
		return "STOP"
	}
}

package dynamics

import (
	"math"

	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/pkg/core"
)

const (
	MinTurnRate = 0.3
	MaxTurnRate = 3.0
	// TurnRateSpeed is the speed at which the full turn rate is reached.
	TurnRateSpeed = 135.0

	angularAccel    = 0.5
	steeringSpeed   = 0.1
	angularDecay    = 0.95
	angularVelFloor = 0.01

	rpmPerPercent = 16.5
)

// TurnRate is the angular velocity per unit rudder at the given speed.
func TurnRate(speed float64) float64 {
	return MinTurnRate + math.Abs(speed)/TurnRateSpeed*(MaxTurnRate-MinTurnRate)
}

// Steer updates angular velocity from the rudder and integrates heading.
// Without steerage way the rotation decays instead.
func Steer(v *core.VehicleState, dt float64) {
	if math.Abs(v.Speed) <= steeringSpeed {
		v.AngularVelocity *= angularDecay
		if math.Abs(v.AngularVelocity) < angularVelFloor {
			v.AngularVelocity = 0
		}
		return
	}

	target := v.Rudder * TurnRate(v.Speed)
	v.AngularVelocity = approach(v.AngularVelocity, target, angularAccel*dt)
	v.Heading = geo.NormalizeDegrees(v.Heading + v.AngularVelocity*dt)
}

// PropellerRPM is derived from engine power; near-idle power gives zero.
func PropellerRPM(power float64) float64 {
	if math.Abs(power) < idlePower {
		return 0
	}
	return power * rpmPerPercent
}

// SpinPropeller advances the cosmetic propeller angle.
func SpinPropeller(v *core.VehicleState, dt float64) {
	rpm := PropellerRPM(v.EnginePower)
	if rpm == 0 {
		return
	}
	perSecond := math.Abs(rpm) * 360 / 60
	v.PropRotationAngle = geo.NormalizeDegrees(v.PropRotationAngle + perSecond*dt*sign(rpm))
}

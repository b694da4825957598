package dynamics

import (
	"testing"

	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRampEngine_TowardTarget(t *testing.T) {
	v := core.VehicleState{Throttle: 3}
	RampEngine(&v, 1)
	assert.Equal(t, 1.0, v.EnginePower)

	v.EnginePower = 59.5
	RampEngine(&v, 1)
	assert.Equal(t, 60.0, v.EnginePower)

	v.Throttle = 1
	RampEngine(&v, 10)
	assert.Equal(t, 50.0, v.EnginePower)
}

func TestRampEngine_ReversalPassesThroughIdle(t *testing.T) {
	v := core.VehicleState{Throttle: -5, EnginePower: 2}

	RampEngine(&v, 1)
	assert.Equal(t, 1.0, v.EnginePower)

	RampEngine(&v, 0.95)
	assert.Equal(t, 0.0, v.EnginePower, "snaps to idle within 0.1")

	RampEngine(&v, 1)
	assert.Equal(t, -1.0, v.EnginePower)
}

func TestRampEngine_ThrottleZeroWindsDown(t *testing.T) {
	v := core.VehicleState{Throttle: 0, EnginePower: -3}
	for i := 0; i < 5; i++ {
		RampEngine(&v, 1)
	}
	assert.Equal(t, 0.0, v.EnginePower)
}

func TestBurnFuel(t *testing.T) {
	v := core.VehicleState{Throttle: 5, EnginePower: 100, FuelReserve: 1000}
	used := BurnFuel(&v, 3600)
	assert.InDelta(t, 847.0, used, 1e-9)
	assert.InDelta(t, 153.0, v.FuelReserve, 1e-9)
	assert.InDelta(t, 847.0, v.TotalFuelBurned, 1e-9)
}

func TestBurnFuel_NoBurnWhenIdle(t *testing.T) {
	v := core.VehicleState{Throttle: 0, EnginePower: 50, FuelReserve: 10}
	assert.Equal(t, 0.0, BurnFuel(&v, 10))
	assert.Equal(t, 10.0, v.FuelReserve)

	v = core.VehicleState{Throttle: 2, EnginePower: 0, FuelReserve: 10}
	assert.Equal(t, 0.0, BurnFuel(&v, 10))
}

func TestBurnFuel_StallsOnEmptyTank(t *testing.T) {
	v := core.VehicleState{Throttle: 5, EnginePower: 100, FuelReserve: 0.1}
	BurnFuel(&v, 10)
	assert.Equal(t, 0.0, v.FuelReserve)
	assert.Equal(t, 0, v.Throttle)
	assert.Equal(t, 0.0, v.EnginePower)
	assert.Equal(t, 0.0, v.TotalFuelBurned)
}

func TestApproachSpeed_Regimes(t *testing.T) {
	tests := []struct {
		name  string
		power float64
		speed float64
		want  float64
	}{
		{"cruise accel", 100, 100, 100.08},
		{"cruise decel", 20, 100, 99.92},
		{"coasting", 0, 50, 49.7},
		{"braking", -20, 50, 49.2},
		{"reverse braking", 20, -50, -49.2},
		{"snap", 100, 134.995, 135},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := core.VehicleState{EnginePower: tt.power, Speed: tt.speed}
			ApproachSpeed(&v, 1)
			assert.InDelta(t, tt.want, v.Speed, 1e-9)
		})
	}
}

func TestApplyDrag(t *testing.T) {
	v := core.VehicleState{Speed: 10}
	ApplyDrag(&v, 1)
	assert.InDelta(t, 9.7, v.Speed, 1e-9)

	v = core.VehicleState{Speed: -0.2}
	ApplyDrag(&v, 1)
	assert.Equal(t, 0.0, v.Speed)

	v = core.VehicleState{Speed: 10, EnginePower: 40}
	ApplyDrag(&v, 1)
	assert.Equal(t, 10.0, v.Speed)
}

func TestPropel_ReachesCruise(t *testing.T) {
	v := core.VehicleState{Throttle: 5, FuelReserve: 5000}
	for i := 0; i < 3600; i++ {
		Propel(&v, 1)
	}
	assert.Equal(t, 100.0, v.EnginePower)
	assert.Equal(t, 135.0, v.Speed)
	assert.InDelta(t, 835.0, v.TotalFuelBurned, 5)
	assert.InDelta(t, 5000.0, v.TotalFuelBurned+v.FuelReserve, 1e-6)
}

func TestTurnRate(t *testing.T) {
	assert.InDelta(t, 0.3, TurnRate(0), 1e-12)
	assert.InDelta(t, 3.0, TurnRate(135), 1e-12)
	assert.InDelta(t, 3.0, TurnRate(-135), 1e-12)
	assert.InDelta(t, 1.65, TurnRate(67.5), 1e-12)
}

func TestSteer(t *testing.T) {
	v := core.VehicleState{Speed: 135, Rudder: 0.5, Heading: 359.9}
	Steer(&v, 1)
	assert.InDelta(t, 0.5, v.AngularVelocity, 1e-12)
	assert.InDelta(t, 0.4, v.Heading, 1e-9)

	for i := 0; i < 10; i++ {
		Steer(&v, 1)
	}
	assert.InDelta(t, 1.5, v.AngularVelocity, 1e-12, "capped at rudder*turnRate")
}

func TestSteer_DecaysWithoutSteerageWay(t *testing.T) {
	v := core.VehicleState{Speed: 0.05, AngularVelocity: 1, Heading: 10, Rudder: 0.5}
	Steer(&v, 1)
	assert.InDelta(t, 0.95, v.AngularVelocity, 1e-12)
	assert.Equal(t, 10.0, v.Heading)

	for i := 0; i < 200; i++ {
		Steer(&v, 1)
	}
	require.Equal(t, 0.0, v.AngularVelocity)
}

func TestPropeller(t *testing.T) {
	assert.Equal(t, 0.0, PropellerRPM(0.05))
	assert.InDelta(t, 1650.0, PropellerRPM(100), 1e-9)
	assert.InDelta(t, -330.0, PropellerRPM(-20), 1e-9)

	v := core.VehicleState{EnginePower: -20}
	SpinPropeller(&v, 0.1)
	// 330 rpm = 1980 deg/s, backwards 198 deg
	assert.InDelta(t, 162.0, v.PropRotationAngle, 1e-9)
}

package handlers

import (
	"testing"
	"time"

	"github.com/aerostat-sim/airship/internal/engine"
	"github.com/aerostat-sim/airship/internal/parser"
	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type steadySource struct{}

func (steadySource) Float64() float64 { return 0.5 }

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Spawn(55.75, 37.62,
		engine.WithWindSource(steadySource{}),
		engine.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return e
}

func newTestService() *Service {
	return NewService(Dependencies{})
}

func TestThrottle_RejectedWhileAnchored(t *testing.T) {
	s := newTestService()
	e := newTestEngine(t)

	r, err := s.Throttle(e, []string{"3"})
	require.NoError(t, err)
	assert.False(t, r.Accepted)
	assert.Equal(t, engine.CmdThrottle, r.Command)
	assert.Equal(t, 0, e.Vehicle().Throttle)
}

func TestThrottle_Accepted(t *testing.T) {
	s := newTestService()
	e := newTestEngine(t)

	for _, step := range []struct {
		fn   Func
		args []string
	}{
		{s.Anchor, []string{"off"}},
		{s.Fuel, []string{"1000"}},
		{s.Throttle, []string{"3"}},
		{s.Rudder, []string{"-2"}},
	} {
		r, err := step.fn(e, step.args)
		require.NoError(t, err)
		require.True(t, r.Accepted, r.Command)
	}

	v := e.Vehicle()
	assert.Equal(t, 3, v.Throttle)
	assert.InDelta(t, -0.2, v.Rudder, 1e-9)
	assert.Equal(t, 1000.0, v.FuelReserve)
}

func TestParseErrorsDoNotTouchEngine(t *testing.T) {
	s := newTestService()
	e := newTestEngine(t)
	before := e.Vehicle()

	_, err := s.Throttle(e, []string{"full"})
	assert.ErrorIs(t, err, parser.ErrBadArg)
	_, err = s.Target(e, nil)
	assert.ErrorIs(t, err, parser.ErrMissingArgs)
	_, err = s.Anchor(e, []string{"sideways"})
	assert.ErrorIs(t, err, parser.ErrBadArg)

	assert.Equal(t, before, e.Vehicle())
}

func TestTargetAndAutopilot(t *testing.T) {
	s := newTestService()
	e := newTestEngine(t)

	_, err := s.Anchor(e, []string{"off"})
	require.NoError(t, err)

	r, err := s.Autopilot(e, []string{"on"})
	require.NoError(t, err)
	assert.False(t, r.Accepted)

	r, err = s.Target(e, []string{"55.80,37.70"})
	require.NoError(t, err)
	assert.True(t, r.Accepted)

	r, err = s.Autopilot(e, nil)
	require.NoError(t, err)
	assert.True(t, r.Accepted)
	assert.True(t, e.Vehicle().AutopilotEnabled)

	r, err = s.ClearTarget(e, nil)
	require.NoError(t, err)
	assert.True(t, r.Accepted)
	assert.False(t, e.Vehicle().HasTarget)
	assert.False(t, e.Vehicle().AutopilotEnabled)
}

func TestTarget_OutOfRangeRejected(t *testing.T) {
	s := newTestService()
	e := newTestEngine(t)

	r, err := s.Target(e, []string{"91", "0"})
	require.NoError(t, err)
	assert.False(t, r.Accepted)
	assert.False(t, e.Vehicle().HasTarget)
}

func TestWindCommands(t *testing.T) {
	s := newTestService()
	e := newTestEngine(t)

	r, err := s.WindMode(e, []string{"manual"})
	require.NoError(t, err)
	assert.True(t, r.Accepted)
	assert.Equal(t, core.WindManual, e.Wind().Mode)

	r, err = s.WindMode(e, []string{"stormy"})
	require.NoError(t, err)
	assert.False(t, r.Accepted)

	r, err = s.Wind(e, []string{"4", "270"})
	require.NoError(t, err)
	assert.True(t, r.Accepted)
	assert.Equal(t, 4.0, e.Wind().Force)
	assert.Equal(t, 270.0, e.Wind().Direction)

	r, err = s.RandomWind(e, nil)
	require.NoError(t, err)
	assert.True(t, r.Accepted)
	assert.Contains(t, r.Message, "Bf")
}

func TestPauseResumeWarp(t *testing.T) {
	s := newTestService()
	e := newTestEngine(t)

	_, err := s.Pause(e, nil)
	require.NoError(t, err)
	assert.True(t, e.Paused())

	_, err = s.Resume(e, nil)
	require.NoError(t, err)
	assert.False(t, e.Paused())

	r, err := s.Warp(e, []string{"10x"})
	require.NoError(t, err)
	assert.True(t, r.Accepted)
	assert.Equal(t, 10.0, e.TimeWarp())

	r, err = s.Warp(e, []string{"3"})
	require.NoError(t, err)
	assert.False(t, r.Accepted)
	assert.Equal(t, 10.0, e.TimeWarp())
}

func TestStatus(t *testing.T) {
	s := newTestService()
	e := newTestEngine(t)
	require.True(t, e.SetTarget(55.80, 37.70))

	r, err := s.Status(e, nil)
	require.NoError(t, err)
	assert.Contains(t, r.Message, "position 55.75000,37.62000")
	assert.Contains(t, r.Message, "engine STOP (0)")
	assert.Contains(t, r.Message, "fuel 0 l")
	assert.Contains(t, r.Message, "endurance empty")
	assert.Contains(t, r.Message, "target 55.80000,37.70000")
	assert.Contains(t, r.Message, "eta --")
	assert.Contains(t, r.Message, "anchor on")
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "ok: anchor", Result{Command: "anchor", Accepted: true}.String())
	assert.Equal(t, "rejected: anchor (speed_too_high)",
		Result{Command: "anchor", Reason: core.RejectSpeedTooHigh}.String())
	assert.Equal(t, "rejected: warp", Result{Command: "warp"}.String())
	assert.Equal(t, "hello", Result{Command: "x", Message: "hello"}.String())
}

func TestRudderStep(t *testing.T) {
	assert.Equal(t, 2.5, rudderStep(0.25))
	assert.Equal(t, -5.0, rudderStep(-0.5))
}

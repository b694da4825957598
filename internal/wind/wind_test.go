package wind

import (
	"testing"

	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqSource replays fixed values, repeating the last one.
type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Float64() float64 {
	if s.i >= len(s.vals) {
		return s.vals[len(s.vals)-1]
	}
	v := s.vals[s.i]
	s.i++
	return v
}

func TestBeaufortToMps(t *testing.T) {
	tests := []struct {
		force float64
		want  float64
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 0.5},
		{4, 5.5},
		{6.6, 13.9},
		{12, 32.7},
		{15, 32.7},
		{-3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BeaufortToMps(tt.force), "force %v", tt.force)
	}
}

func TestStepAuto_RespectsCadence(t *testing.T) {
	m := New(&seqSource{vals: []float64{0.9}})

	assert.False(t, m.StepAuto(59.9))
	assert.True(t, m.StepAuto(60))
	assert.Equal(t, 60.0, m.LastUpdate())
	assert.False(t, m.StepAuto(100))
	assert.True(t, m.StepAuto(120))
}

func TestStepAuto_DirectionJump(t *testing.T) {
	// direction roll hits, force roll misses
	m := New(&seqSource{vals: []float64{0.05, 0.5, 0.9}})
	m.SetManual(3, 10)
	m.SetMode(core.WindAuto)

	require.True(t, m.StepAuto(60))
	s := m.State()
	assert.Equal(t, 180.0, s.Direction)
	assert.Equal(t, 3.0, s.Force)
}

func TestStepAuto_ForceJump(t *testing.T) {
	// direction miss, force hit, sample lands in the first weight bucket
	m := New(&seqSource{vals: []float64{0.9, 0.05, 0.0}})
	m.SetManual(7, 45)
	m.SetMode(core.WindAuto)

	require.True(t, m.StepAuto(60))
	s := m.State()
	assert.Equal(t, 0.0, s.Force)
	assert.Equal(t, 45.0, s.Direction)
}

func TestStepAuto_ForceJumpStrongest(t *testing.T) {
	m := New(&seqSource{vals: []float64{0.9, 0.05, 0.99999}})

	require.True(t, m.StepAuto(60))
	assert.Equal(t, 12.0, m.State().Force)
}

func TestStepAuto_SmoothPerturbation(t *testing.T) {
	// both rolls miss, then force +0.15, direction -4
	m := New(&seqSource{vals: []float64{0.5, 0.5, 1.0, 0.0}})
	m.SetManual(5, 2)
	m.SetMode(core.WindAuto)

	require.True(t, m.StepAuto(60))
	s := m.State()
	assert.InDelta(t, 5.15, s.Force, 1e-9)
	assert.InDelta(t, 358.0, s.Direction, 1e-9)
}

func TestStepAuto_ClampsForce(t *testing.T) {
	m := New(&seqSource{vals: []float64{0.5, 0.5, 0.0, 0.5}})

	require.True(t, m.StepAuto(60))
	assert.Equal(t, 0.0, m.State().Force)
}

func TestStepAuto_ManualModeIgnored(t *testing.T) {
	m := New(&seqSource{vals: []float64{0.05}})
	m.SetMode(core.WindManual)
	m.SetManual(4, 90)

	assert.False(t, m.StepAuto(600))
	assert.Equal(t, core.WindState{Force: 4, Direction: 90, Mode: core.WindManual}, m.State())
}

func TestSetManual_ClampsAndNormalizes(t *testing.T) {
	m := New(nil)
	m.SetManual(20, -90)
	assert.Equal(t, 12.0, m.State().Force)
	assert.Equal(t, 270.0, m.State().Direction)

	m.SetManual(-1, 720)
	assert.Equal(t, 0.0, m.State().Force)
	assert.Equal(t, 0.0, m.State().Direction)
}

func TestRandomize(t *testing.T) {
	m := New(&seqSource{vals: []float64{1.0, 0.0}})
	m.SetManual(6, 3)

	m.Randomize()
	s := m.State()
	assert.InDelta(t, 6.3, s.Force, 1e-9)
	assert.InDelta(t, 355.5, s.Direction, 1e-9)
}

func TestRestore_InvalidModeFallsBackToAuto(t *testing.T) {
	m := New(nil)
	m.Restore(core.WindState{Force: 14, Direction: 370, Mode: "storm"}, 42)

	assert.Equal(t, core.WindState{Force: 12, Direction: 10, Mode: core.WindAuto}, m.State())
	assert.Equal(t, 42.0, m.LastUpdate())
}

func TestStepAuto_DirectionAlwaysNormalized(t *testing.T) {
	m := New(NewSource(7))
	for i := 1; i <= 2000; i++ {
		m.StepAuto(float64(i) * UpdateInterval)
		s := m.State()
		require.GreaterOrEqual(t, s.Direction, 0.0)
		require.Less(t, s.Direction, 360.0)
		require.GreaterOrEqual(t, s.Force, 0.0)
		require.LessOrEqual(t, s.Force, 12.0)
	}
}

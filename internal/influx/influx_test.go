package influx

import (
	"compress/gzip"
	"io"
	"os"
	"testing"
	"time"

	"github.com/aerostat-sim/airship/internal/config"
	"github.com/aerostat-sim/airship/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() core.Snapshot {
	return core.Snapshot{
		Time:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		TimeWarp: 10,
		Vehicle: core.VehicleState{
			Lat:         55.75,
			Lng:         37.62,
			Speed:       80,
			Throttle:    3,
			FuelReserve: 900,
		},
		Wind:       core.WindState{Force: 4, Direction: 270, Mode: core.WindAuto},
		Navigation: &core.Navigation{DistanceMeters: 1200, Bearing: 45},
	}
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{Enabled: false})
	assert.ErrorIs(t, m.Connect(), ErrDisabled)
}

func TestSnapshotPoint(t *testing.T) {
	p := SnapshotPoint("abc", testSnapshot())

	assert.Equal(t, Measurement, p.Name())
	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	assert.Contains(t, line, "session=abc")
	assert.Contains(t, line, "windMode=auto")
	assert.Contains(t, line, "speed=80")
	assert.Contains(t, line, "throttle=3i")
	assert.Contains(t, line, "targetDistance=1200")
	assert.Contains(t, line, "anchor=false")
}

func TestSnapshotPoint_NoSessionNoTarget(t *testing.T) {
	s := testSnapshot()
	s.Navigation = nil
	line := influxdb2_write.PointToLineProtocol(SnapshotPoint("", s), time.Nanosecond)

	assert.NotContains(t, line, "session=")
	assert.NotContains(t, line, "targetDistance")
}

func TestWriteSnapshot_BackupWhenUnreachable(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(zerolog.Nop(), config.InfluxConfig{
		Enabled:   true,
		Protocol:  "http",
		Host:      "127.0.0.1",
		Port:      "1",
		Bucket:    "flight",
		BackupDir: dir,
	})
	require.NoError(t, m.Connect())
	assert.False(t, m.IsValid)

	m.SetSession("abc")
	require.NoError(t, m.WriteSnapshot(testSnapshot()))
	require.NoError(t, m.Close())

	f, err := os.Open(m.BackupPath)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)

	assert.Contains(t, string(data), "flight,")
	assert.Contains(t, string(data), "session=abc")
}

func TestWritePoint_NoBackend(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{Bucket: "flight"})
	assert.Error(t, m.WriteSnapshot(testSnapshot()))
}

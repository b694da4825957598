package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aerostat-sim/airship/internal/config"
	"github.com/aerostat-sim/airship/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := GetSqliteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	m := NewManager(db, zerolog.Nop())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DBConfig{
		Host:     "db",
		Port:     "5433",
		Username: "u",
		Password: "p",
		Database: "airship",
	})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=airship sslmode=disable", dsn)
}

func TestSetup_MigratesAndSeeds(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Setup())
	require.NoError(t, m.Ping())

	for _, tbl := range model.DatabaseModels {
		assert.True(t, m.DB.Migrator().HasTable(tbl))
	}

	var info model.AirshipInfo
	require.NoError(t, m.DB.First(&info).Error)
	assert.Equal(t, 88000.0, info.FuelCapacityL)

	// Second setup must not seed again.
	require.NoError(t, m.Setup())
	var count int64
	m.DB.Model(&model.AirshipInfo{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDumpToDisk(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Setup())

	path := filepath.Join(t.TempDir(), "dumps", "flight.db")
	require.NoError(t, m.DumpToDisk(path))
	_, err := os.Stat(path)
	require.NoError(t, err)

	// A second dump replaces the file.
	require.NoError(t, m.DumpToDisk(path))
}

func TestDumpMemoryDBToDisk_Errors(t *testing.T) {
	m := newTestManager(t)
	assert.Error(t, DumpMemoryDBToDisk(m.DB, ""))
	assert.Error(t, DumpMemoryDBToDisk(m.DB, "bad'path.db"))
}

func TestGetBackupDBPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.db", "b.db", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.db"), 0o755))

	paths, err := GetBackupDBPaths(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db")}, paths)
}

func TestMigrateBackup(t *testing.T) {
	src := newTestManager(t)
	require.NoError(t, src.Setup())
	dst := newTestManager(t)
	require.NoError(t, dst.Setup())

	require.NoError(t, src.DB.Create(&model.Session{SessionID: "s-1", StartLat: 55.75}).Error)
	require.NoError(t, src.DB.Create(&model.SessionState{SessionID: "s-1", Record: []byte(`{"lat":55.75}`)}).Error)
	for i := 0; i < 3; i++ {
		require.NoError(t, src.DB.Create(&model.TrackPoint{SessionID: "s-1", VirtualSeconds: float64(i)}).Error)
	}
	require.NoError(t, src.DB.Create(&model.RejectionEvent{SessionID: "s-1", Command: "anchor", Reason: "speed_too_high"}).Error)

	// the destination already has an unrelated track point
	require.NoError(t, dst.DB.Create(&model.TrackPoint{SessionID: "s-0"}).Error)

	counts, err := dst.MigrateBackup(src.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["sessions"])
	assert.Equal(t, int64(3), counts["track_points"])
	assert.Equal(t, int64(1), counts["rejection_events"])

	var points int64
	dst.DB.Model(&model.TrackPoint{}).Count(&points)
	assert.Equal(t, int64(4), points)

	// migrating again skips the existing session
	counts, err = dst.MigrateBackup(src.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts["sessions"])
	assert.Equal(t, int64(0), counts["session_states"])
}

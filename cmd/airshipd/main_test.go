package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aerostat-sim/airship/internal/config"
	"github.com/aerostat-sim/airship/internal/dispatcher"
	"github.com/aerostat-sim/airship/internal/parser"
	"github.com/aerostat-sim/airship/internal/session"
	"github.com/aerostat-sim/airship/internal/storage/memory"
	sqlitestorage "github.com/aerostat-sim/airship/internal/storage/sqlite"
	wsstorage "github.com/aerostat-sim/airship/internal/storage/websocket"
	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

func setFlag(t *testing.T, p *string, v string) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func newMemoryBackend(t *testing.T) *memory.Backend {
	t.Helper()
	b := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.Init())
	return b
}

func TestHttpToWS(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:5000", "ws://localhost:5000"},
		{"https://example.com/", "wss://example.com"},
		{"ws://already", "ws://already"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpToWS(tt.in))
	}
}

func TestCreateStorageBackend(t *testing.T) {
	b, err := createStorageBackend(config.StorageConfig{Type: "memory", Memory: config.MemoryConfig{OutputDir: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{
		Type:      "websocket",
		WebSocket: config.WebSocketConfig{URL: "ws://127.0.0.1:1/api/stream"},
	})
	require.NoError(t, err)
	assert.IsType(t, &wsstorage.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: t.TempDir() + "/airship.db"},
	})
	require.NoError(t, err)
	assert.IsType(t, &sqlitestorage.Backend{}, b)

	_, err = createStorageBackend(config.StorageConfig{Type: "floppy"})
	assert.Error(t, err)
}

func TestBuildEngine_Spawn(t *testing.T) {
	setFlag(t, bootstrapArg, "")
	setFlag(t, spawnFlag, "10,20")

	eng, sess, err := buildEngine(newMemoryBackend(t), config.SimConfig{TimeWarp: 5, WindSeed: 1}, t0)
	require.NoError(t, err)

	v := eng.Vehicle()
	assert.Equal(t, 10.0, v.Lat)
	assert.Equal(t, 20.0, v.Lng)
	assert.True(t, v.AnchorEnabled)
	assert.Zero(t, v.FuelReserve)
	assert.Equal(t, 5.0, eng.TimeWarp())
	assert.False(t, sess.Resumed)
}

func TestBuildEngine_SpawnOutOfRange(t *testing.T) {
	setFlag(t, bootstrapArg, "")
	setFlag(t, spawnFlag, "95,20")

	_, _, err := buildEngine(newMemoryBackend(t), config.SimConfig{TimeWarp: 1}, t0)
	assert.Error(t, err)
}

func TestBuildEngine_ResumesSavedState(t *testing.T) {
	setFlag(t, bootstrapArg, "")
	setFlag(t, spawnFlag, "10,20")

	b := newMemoryBackend(t)
	v := core.Spawn(42, -71, t0)
	v.AnchorEnabled = false
	v.FuelReserve = 500
	require.NoError(t, b.SaveState(session.Encode(v, core.WindState{Mode: core.WindManual, Force: 3, Direction: 90}, 10)))

	eng, sess, err := buildEngine(b, config.SimConfig{TimeWarp: 1, WindSeed: 1}, t0)
	require.NoError(t, err)

	assert.True(t, sess.Resumed)
	assert.Equal(t, 42.0, eng.Vehicle().Lat)
	assert.Equal(t, 500.0, eng.Vehicle().FuelReserve)
	assert.Equal(t, 10.0, eng.TimeWarp())
	assert.Equal(t, core.WindManual, eng.Wind().Mode)
}

func TestBuildEngine_BootstrapWins(t *testing.T) {
	setFlag(t, bootstrapArg, "?lat=50&lng=10&heading=90")
	setFlag(t, spawnFlag, "10,20")

	b := newMemoryBackend(t)
	require.NoError(t, b.SaveState(session.Encode(core.Spawn(42, -71, t0), core.WindState{}, 1)))

	eng, sess, err := buildEngine(b, config.SimConfig{TimeWarp: 2, WindSeed: 1}, t0)
	require.NoError(t, err)

	assert.False(t, sess.Resumed)
	assert.Equal(t, 50.0, eng.Vehicle().Lat)
	assert.Equal(t, 90.0, eng.Vehicle().Heading)
	assert.Equal(t, 2.0, eng.TimeWarp())
}

func TestBuildEngine_BadBootstrapFallsBack(t *testing.T) {
	setFlag(t, bootstrapArg, "lat=500&lng=10")
	setFlag(t, spawnFlag, "10,20")

	eng, _, err := buildEngine(newMemoryBackend(t), config.SimConfig{TimeWarp: 1, WindSeed: 1}, t0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, eng.Vehicle().Lat)
}

func TestReadCommands(t *testing.T) {
	d, err := dispatcher.New(logNop{})
	require.NoError(t, err)
	d.Register("echo", func(e dispatcher.Event) (any, error) {
		return strings.Join(e.Args, "+"), nil
	})
	d.Register("fail", func(dispatcher.Event) (any, error) {
		return nil, errors.New("boom")
	})

	in := strings.NewReader("echo a b\n\n# comment only\nECHO c\nfail\nnope\n")
	var out bytes.Buffer
	readCommands(context.Background(), in, &out, d, parser.NewParser(Logger))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "a+b", lines[0])
	assert.Equal(t, "c", lines[1])
	assert.Equal(t, "error: boom", lines[2])
	assert.Contains(t, lines[3], "unknown command")
}

func TestReadCommands_StopsOnCancel(t *testing.T) {
	d, err := dispatcher.New(logNop{})
	require.NoError(t, err)
	called := false
	d.Register("echo", func(dispatcher.Event) (any, error) {
		called = true
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	readCommands(ctx, strings.NewReader("echo\n"), &out, d, parser.NewParser(Logger))
	assert.False(t, called)
	assert.Empty(t, out.String())
}

type logNop struct{}

func (logNop) Debug(string, ...any) {}
func (logNop) Info(string, ...any)  {}
func (logNop) Error(string, ...any) {}

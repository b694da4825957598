package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aerostat-sim/airship/internal/api"
	"github.com/aerostat-sim/airship/internal/config"
	"github.com/aerostat-sim/airship/internal/dispatcher"
	"github.com/aerostat-sim/airship/internal/engine"
	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/internal/handlers"
	"github.com/aerostat-sim/airship/internal/influx"
	"github.com/aerostat-sim/airship/internal/logging"
	"github.com/aerostat-sim/airship/internal/monitor"
	intOtel "github.com/aerostat-sim/airship/internal/otel"
	"github.com/aerostat-sim/airship/internal/parser"
	"github.com/aerostat-sim/airship/internal/session"
	"github.com/aerostat-sim/airship/internal/storage"
	"github.com/aerostat-sim/airship/internal/wind"
	"github.com/aerostat-sim/airship/internal/worker"
	"github.com/aerostat-sim/airship/pkg/core"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "airshipd"
)

// flags
var (
	configDir    = pflag.String("config-dir", ".", "directory containing "+config.FileName)
	spawnFlag    = pflag.String("spawn", "55.75,37.62", "spawn position as lat,lng when no session is restored")
	bootstrapArg = pflag.String("bootstrap", "", "session bootstrap query string, e.g. lat=50&lng=10&throttle=3")
	_            = pflag.String("log-level", "info", "log level (debug, info, warn, error)")
	_            = pflag.String("storage", "memory", "storage backend (memory, sqlite, postgres, websocket)")
	_            = pflag.Float64("warp", 1, "initial time warp")
	_            = pflag.Uint64("wind-seed", 0, "wind random seed, 0 draws one")
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// DBLogger feeds the zerolog-based database and influx managers
	DBLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFile          *os.File
	LogFilePath      string
	SessionStartTime time.Time = time.Now()

	simContext = &logging.SimContext{}

	// Services
	handlerService  *handlers.Service
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	influxManager   *influx.Manager
	eventDispatcher *dispatcher.Dispatcher

	storageBackend storage.Backend
)

func main() {
	if len(os.Args) > 1 && strings.ToLower(os.Args[1]) == "migratebackups" {
		setupLogging(false)
		if err := migrateBackups(os.Args[2:]); err != nil {
			Logger.Error("Backup migration failed", "error", err)
			os.Exit(1)
		}
		return
	}

	pflag.Parse()
	if err := run(); err != nil {
		if Logger != nil {
			Logger.Error("airshipd stopped with error", "error", err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging loads config and builds the logger chain. With toFile set it
// opens the per-session log file and wires OTel and Graylog.
func setupLogging(toFile bool) {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	if err := config.BindFlags(pflag.CommandLine); err != nil {
		Logger.Warn("Failed to bind flags", "error", err)
	}
	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", *configDir)
	}

	DBLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().
		Level(zerologLevel(viper.GetString("logLevel")))

	if !toFile {
		SlogManager.Setup(nil, viper.GetString("logLevel"), nil)
		Logger = SlogManager.Logger()
		return
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}
	LogFilePath = logging.LogFilePath(logsDir, AppName, SessionStartTime)
	if _, err := os.Stat(LogFilePath); err == nil {
		_ = os.Rename(LogFilePath, LogFilePath+".old")
	}

	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
		LogFile = nil
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.FromConfig(otelCfg, LogFile))
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else if otelCfg.Endpoint != "" {
			Logger.Info("OTel provider initialized", "file", LogFilePath, "endpoint", otelCfg.Endpoint)
		} else {
			Logger.Info("OTel provider initialized", "file", LogFilePath)
		}
	}

	opts := []logging.SetupOption{logging.WithContext(simContext.Provider())}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err, "address", gl.Address)
		} else {
			opts = append(opts, logging.WithGraylog(w))
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	if LogFile != nil {
		SlogManager.Setup(LogFile, viper.GetString("logLevel"), otelLogProvider, opts...)
	} else {
		SlogManager.Setup(nil, viper.GetString("logLevel"), otelLogProvider, opts...)
	}
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentVersion, "build", BuildDate)
}

func zerologLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func run() error {
	setupLogging(true)

	var err error
	storageBackend, err = createStorageBackend(config.GetStorageConfig())
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := storageBackend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	simCfg := config.GetSimConfig()
	eng, sess, err := buildEngine(storageBackend, simCfg, time.Now())
	if err != nil {
		_ = storageBackend.Close()
		return err
	}

	influxManager = influx.NewManager(DBLogger, config.GetInfluxConfig())
	var telemetry worker.Telemetry
	if err := influxManager.Connect(); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Warn("InfluxDB unavailable", "error", err)
		}
	} else {
		influxManager.SetSession(sess.ID.String())
		telemetry = influxManager
	}

	handlerService = handlers.NewService(handlers.Dependencies{
		Parser: parser.NewParser(Logger),
		Logger: Logger,
	})
	workerManager = worker.NewManager(worker.Dependencies{
		Engine:     eng,
		Handlers:   handlerService,
		Logger:     Logger,
		SimContext: simContext,
		Telemetry:  telemetry,
		Config:     simCfg,
	}, storageBackend)

	// streaming backends follow every tick
	if obs, ok := storageBackend.(engine.Observer); ok {
		eng.Subscribe(obs)
	}

	if err := workerManager.StartSession(sess); err != nil {
		Logger.Error("Failed to start session", "error", err)
	}
	Logger.Info("Session started",
		"session", sess.ID.String(),
		"lat", sess.StartLat,
		"lng", sess.StartLng,
		"resumed", sess.Resumed,
		"storage", config.GetStorageConfig().Type)

	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	workerManager.RegisterHandlers(eventDispatcher)

	monitorService = monitor.NewService(monitor.Dependencies{
		Source:     workerManager,
		Logger:     Logger,
		StatusFile: simCfg.StatusFile,
		SessionID:  sess.ID.String(),
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Status monitor not started", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go readCommands(ctx, os.Stdin, os.Stdout, eventDispatcher, parser.NewParser(Logger))

	runErr := workerManager.Run(ctx)
	shutdown()
	return runErr
}

// buildEngine picks the starting state: bootstrap query, else the saved
// record, else a fresh spawn.
func buildEngine(backend storage.Backend, sim config.SimConfig, now time.Time) (*engine.Engine, *core.Session, error) {
	opts := []engine.Option{
		engine.WithWindSource(wind.NewSource(sim.WindSeed)),
		engine.WithLogger(Logger),
	}

	if *bootstrapArg != "" {
		q, err := url.ParseQuery(strings.TrimPrefix(*bootstrapArg, "?"))
		if err == nil {
			var v core.VehicleState
			v, err = session.ParseBootstrap(q, now)
			if err == nil {
				Logger.Info("Starting from bootstrap parameters")
				opts = append(opts, engine.WithTimeWarp(sim.TimeWarp))
				return engine.New(v, opts...), core.NewSession(v.Lat, v.Lng, now, false), nil
			}
		}
		Logger.Warn("Ignoring bootstrap parameters", "error", err)
	}

	data, err := backend.LoadState()
	switch {
	case err == nil:
		restored, derr := session.Decode(data, now)
		if derr == nil {
			Logger.Info("Resuming saved session")
			opts = append(opts, restored.Options()...)
			v := restored.Vehicle
			return engine.New(v, opts...), core.NewSession(v.Lat, v.Lng, now, true), nil
		}
		Logger.Warn("Discarding saved session", "error", derr)
	case !errors.Is(err, storage.ErrNoState):
		Logger.Warn("Failed to load saved session", "error", err)
	}

	lat, lng, err := geo.ParseLatLng(*spawnFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --spawn: %w", err)
	}
	opts = append(opts, engine.WithTimeWarp(sim.TimeWarp))
	eng, err := engine.Spawn(lat, lng, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to spawn: %w", err)
	}
	Logger.Info("Spawned new airship", "lat", lat, "lng", lng)
	return eng, core.NewSession(lat, lng, now, false), nil
}

// shutdown ends the session and closes services in reverse start order.
// The worker must have returned from Run.
func shutdown() {
	Logger.Info("Shutting down...")

	if err := workerManager.EndSession(); err != nil {
		Logger.Error("Failed to end session", "error", err)
	}
	if up, ok := storageBackend.(storage.Uploadable); ok && config.GetAPIConfig().Upload {
		uploadFlight(up)
	}

	monitorService.Stop()
	if err := influxManager.Close(); err != nil {
		Logger.Warn("Failed to close InfluxDB manager", "error", err)
	}
	eventDispatcher.Close()
	if err := storageBackend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("OTel shutdown failed", "error", err)
		}
	}
	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Warn("Log flush failed", "error", err)
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}

func uploadFlight(up storage.Uploadable) {
	path := up.GetExportedFilePath()
	if path == "" {
		Logger.Warn("No exported flight log to upload")
		return
	}
	apiCfg := config.GetAPIConfig()
	client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
	if err := client.Healthcheck(); err != nil {
		Logger.Warn("Web frontend is offline, keeping flight log locally", "error", err, "path", path)
		return
	}
	if err := client.Upload(path, up.GetExportMetadata()); err != nil {
		Logger.Error("Failed to upload flight log", "error", err, "path", path)
		return
	}
	Logger.Info("Uploaded flight log", "path", path)
}

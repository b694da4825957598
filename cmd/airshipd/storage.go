package main

import (
	"fmt"
	"strings"

	"github.com/aerostat-sim/airship/internal/config"
	"github.com/aerostat-sim/airship/internal/storage"
	"github.com/aerostat-sim/airship/internal/storage/memory"
	pgstorage "github.com/aerostat-sim/airship/internal/storage/postgres"
	sqlitestorage "github.com/aerostat-sim/airship/internal/storage/sqlite"
	wsstorage "github.com/aerostat-sim/airship/internal/storage/websocket"
)

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Config:   storageCfg.Postgres,
			Logger:   Logger,
			DBLogger: DBLogger,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			Path:         storageCfg.SQLite.Path,
			DumpInterval: storageCfg.SQLite.DumpInterval,
		}, Logger, DBLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, nil

	case "websocket":
		wsURL := storageCfg.WebSocket.URL
		if wsURL == "" {
			wsURL = httpToWS(config.GetAPIConfig().ServerURL) + "/api/stream"
		}
		secret := storageCfg.WebSocket.Secret
		if secret == "" {
			secret = config.GetAPIConfig().APIKey
		}
		Logger.Info("WebSocket storage backend initialized", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsURL,
			Secret: secret,
		}, Logger), nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized")
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aerostat-sim/airship/internal/config"
	"github.com/aerostat-sim/airship/internal/database"
	"github.com/aerostat-sim/airship/internal/dispatcher"
	"github.com/aerostat-sim/airship/internal/parser"
)

// readCommands feeds console lines to the dispatcher until in is exhausted
// or ctx is cancelled. Each reply is written as one line to out.
func readCommands(ctx context.Context, in io.Reader, out io.Writer, d *dispatcher.Dispatcher, p *parser.Parser) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		cmd, ok := p.ParseLine(scanner.Text())
		if !ok {
			continue
		}
		res, err := d.Dispatch(dispatcher.Event{
			Command:   cmd.Name,
			Args:      cmd.Args,
			Source:    "console",
			Timestamp: time.Now(),
		})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if res != nil {
			fmt.Fprintln(out, res)
		}
	}
}

// migrateBackups copies every SQLite dump in dir into the configured
// Postgres database and renames migrated files to <name>.migrated.
func migrateBackups(args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	paths, err := database.GetBackupDBPaths(dir)
	if err != nil {
		return fmt.Errorf("listing backups in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		Logger.Info("No backups to migrate", "dir", dir)
		return nil
	}

	dst, err := database.GetPostgresDB(config.GetDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	mgr := database.NewManager(dst, DBLogger)
	defer mgr.Close()
	if err := mgr.Setup(); err != nil {
		return fmt.Errorf("failed to set up postgres: %w", err)
	}

	var failed int
	for _, path := range paths {
		start := time.Now()
		src, err := database.GetSqliteDB(path)
		if err != nil {
			Logger.Error("Failed to open backup", "path", path, "error", err)
			failed++
			continue
		}
		counts, err := mgr.MigrateBackup(src)
		if sqlDB, derr := src.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		if err != nil {
			Logger.Error("Failed to migrate backup", "path", path, "error", err)
			failed++
			continue
		}
		if err := os.Rename(path, path+".migrated"); err != nil {
			Logger.Warn("Migrated backup but could not rename it", "path", path, "error", err)
		}
		Logger.Info("Migrated backup", "path", path, "rows", counts, "duration", time.Since(start))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d backups failed to migrate", failed, len(paths))
	}
	return nil
}

// Package monitor periodically writes the simulation status to a JSON file
// that external dashboards can poll.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aerostat-sim/airship/pkg/core"
)

// DefaultInterval is how often the status file is rewritten.
const DefaultInterval = time.Second

// Source is what the monitor reads; worker.Manager implements it.
type Source interface {
	Snapshot() core.Snapshot
	QueueLengths() map[string]int
	Stats() (saves, trackPoints int64)
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source     Source
	Logger     *slog.Logger
	StatusFile string
	Interval   time.Duration
	SessionID  string
}

// Status is the document written to the status file.
type Status struct {
	Time        time.Time      `json:"time"`
	SessionID   string         `json:"sessionId,omitempty"`
	Uptime      string         `json:"uptime"`
	Saves       int64          `json:"saves"`
	TrackPoints int64          `json:"trackPoints"`
	WriteQueues map[string]int `json:"writeQueues,omitempty"`
	Snapshot    core.Snapshot  `json:"snapshot"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	started   time.Time
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		deps:     deps,
		started:  time.Now(),
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current program status
func (s *Service) GetProgramStatus() Status {
	saves, points := s.deps.Source.Stats()
	return Status{
		Time:        time.Now(),
		SessionID:   s.deps.SessionID,
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Saves:       saves,
		TrackPoints: points,
		WriteQueues: s.deps.Source.QueueLengths(),
		Snapshot:    s.deps.Source.Snapshot(),
	}
}

// WriteStatus replaces the status file with the current status.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetProgramStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	dir := filepath.Dir(s.deps.StatusFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating status directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".status-*")
	if err != nil {
		return fmt.Errorf("creating status file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing status file: %w", err)
	}
	return os.Rename(tmp.Name(), s.deps.StatusFile)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	if s.deps.StatusFile == "" {
		return fmt.Errorf("no status file configured")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stopChan, s.done)
	return nil
}

func (s *Service) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	logger := s.deps.Logger
	logger.Debug("Starting status monitor", "file", s.deps.StatusFile, "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.WriteStatus(); err != nil {
				logger.Error("Error writing status file", "error", err)
			}
		}
	}
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

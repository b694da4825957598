package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aerostat-sim/airship/internal/dispatcher"
	"github.com/aerostat-sim/airship/internal/engine"
	"github.com/aerostat-sim/airship/internal/handlers"
)

// commandTimeout bounds how long a command waits for the simulation loop.
const commandTimeout = 5 * time.Second

// RegisterHandlers registers all operator commands with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	h := m.deps.Handlers

	// Controls
	d.Register("throttle", m.command(h.Throttle), dispatcher.Alias("t"), dispatcher.Logged())
	d.Register("rudder", m.command(h.Rudder), dispatcher.Alias("r"), dispatcher.Logged())
	d.Register("anchor", m.command(h.Anchor), dispatcher.Logged())
	d.Register("fastbrake", m.command(h.FastBrake), dispatcher.Alias("brake"), dispatcher.Logged())
	d.Register("fuel", m.command(h.Fuel), dispatcher.Alias("refuel"), dispatcher.Logged())

	// Navigation
	d.Register("target", m.command(h.Target), dispatcher.Alias("goto"), dispatcher.Logged())
	d.Register("cleartarget", m.command(h.ClearTarget), dispatcher.Alias("untarget"), dispatcher.Logged())
	d.Register("autopilot", m.command(h.Autopilot), dispatcher.Alias("ap"), dispatcher.Logged())

	// Environment
	d.Register("windmode", m.command(h.WindMode), dispatcher.Logged())
	d.Register("wind", m.command(h.Wind), dispatcher.Logged())
	d.Register("randomwind", m.command(h.RandomWind), dispatcher.Alias("gust"), dispatcher.Logged())

	// Clock
	d.Register("pause", m.command(h.Pause), dispatcher.Logged())
	d.Register("resume", m.command(h.Resume), dispatcher.Alias("unpause"), dispatcher.Logged())
	d.Register("warp", m.command(h.Warp), dispatcher.Alias("timewarp"), dispatcher.Logged())

	// Session
	d.Register("status", m.command(h.Status), dispatcher.Alias("s"))
	d.Register("save", m.handleSave, dispatcher.Logged())
	d.Register("help", func(dispatcher.Event) (any, error) {
		return handlers.Result{
			Command:  "help",
			Accepted: true,
			Message:  "commands: " + strings.Join(d.Commands(), " "),
		}, nil
	}, dispatcher.Alias("?"))
}

// command runs a handler on the simulation goroutine and fills in the
// rejection reason the engine published while it ran.
func (m *Manager) command(fn handlers.Func) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		var (
			res handlers.Result
			err error
		)
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		serr := m.Submit(ctx, func(eng *engine.Engine) {
			m.rejected = nil
			res, err = fn(eng, e.Args)
			if !res.Accepted && m.rejected != nil {
				res.Reason = m.rejected.Reason
			}
			m.rejected = nil
		})
		if serr != nil {
			return nil, fmt.Errorf("%s: %w", e.Command, serr)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Command, err)
		}
		return res, nil
	}
}

func (m *Manager) handleSave(e dispatcher.Event) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := m.Submit(ctx, func(*engine.Engine) { m.save() }); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return handlers.Result{Command: "save", Accepted: true}, nil
}

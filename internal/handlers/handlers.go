// Package handlers turns parsed operator commands into engine calls.
package handlers

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aerostat-sim/airship/internal/engine"
	"github.com/aerostat-sim/airship/internal/parser"
	"github.com/aerostat-sim/airship/pkg/core"
)

// Func applies one command. It must run on the goroutine that owns the engine.
type Func func(e *engine.Engine, args []string) (Result, error)

// Result is what the operator sees after a command.
type Result struct {
	Command  string            `json:"command"`
	Accepted bool              `json:"accepted"`
	Reason   core.RejectReason `json:"reason,omitempty"`
	Message  string            `json:"message,omitempty"`
}

func (r Result) String() string {
	switch {
	case r.Message != "":
		return r.Message
	case r.Accepted:
		return "ok: " + r.Command
	case r.Reason != "":
		return fmt.Sprintf("rejected: %s (%s)", r.Command, r.Reason)
	default:
		return "rejected: " + r.Command
	}
}

func result(cmd string, accepted bool) Result {
	return Result{Command: cmd, Accepted: accepted}
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Parser *parser.Parser
	Logger *slog.Logger
}

// Service provides one handler per operator command.
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	return &Service{deps: deps}
}

// Throttle sets the engine telegraph notch.
func (s *Service) Throttle(e *engine.Engine, args []string) (Result, error) {
	n, err := s.deps.Parser.ParseThrottle(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdThrottle, e.SetThrottle(n)), nil
}

// Rudder sets the rudder step.
func (s *Service) Rudder(e *engine.Engine, args []string) (Result, error) {
	r, err := s.deps.Parser.ParseRudder(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdRudder, e.SetRudder(r)), nil
}

// Target places the navigation target.
func (s *Service) Target(e *engine.Engine, args []string) (Result, error) {
	lat, lng, err := s.deps.Parser.ParseTarget(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdTarget, e.SetTarget(lat, lng)), nil
}

// ClearTarget removes the target.
func (s *Service) ClearTarget(e *engine.Engine, _ []string) (Result, error) {
	e.ClearTarget()
	return result("cleartarget", true), nil
}

// Anchor drops or weighs the anchor.
func (s *Service) Anchor(e *engine.Engine, args []string) (Result, error) {
	on, err := s.deps.Parser.ParseSwitch(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdAnchor, e.SetAnchor(on)), nil
}

// Autopilot engages or releases the autopilot.
func (s *Service) Autopilot(e *engine.Engine, args []string) (Result, error) {
	on, err := s.deps.Parser.ParseSwitch(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdAutopilot, e.SetAutopilot(on)), nil
}

// FastBrake arms or clears the fast brake.
func (s *Service) FastBrake(e *engine.Engine, args []string) (Result, error) {
	on, err := s.deps.Parser.ParseSwitch(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdFastBrake, e.SetFastBrake(on)), nil
}

// WindMode switches between automatic and manual wind.
func (s *Service) WindMode(e *engine.Engine, args []string) (Result, error) {
	m, err := s.deps.Parser.ParseWindMode(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdWindMode, e.SetWindMode(m)), nil
}

// Wind overrides force and direction.
func (s *Service) Wind(e *engine.Engine, args []string) (Result, error) {
	force, dir, err := s.deps.Parser.ParseWind(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdWind, e.SetWindManual(force, dir)), nil
}

// RandomWind applies a one-shot gust.
func (s *Service) RandomWind(e *engine.Engine, _ []string) (Result, error) {
	e.RandomizeWind()
	w := e.Wind()
	return Result{
		Command:  "randomwind",
		Accepted: true,
		Message:  fmt.Sprintf("wind %.1f Bf toward %.0f°", w.Force, w.Direction),
	}, nil
}

// Fuel adds liters to the tank.
func (s *Service) Fuel(e *engine.Engine, args []string) (Result, error) {
	l, err := s.deps.Parser.ParseLiters(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdFuel, e.AddFuel(l)), nil
}

// Pause freezes the simulation.
func (s *Service) Pause(e *engine.Engine, _ []string) (Result, error) {
	e.Pause()
	return result("pause", true), nil
}

// Resume unfreezes the simulation.
func (s *Service) Resume(e *engine.Engine, _ []string) (Result, error) {
	e.Resume()
	return result("resume", true), nil
}

// Warp changes the time-warp factor.
func (s *Service) Warp(e *engine.Engine, args []string) (Result, error) {
	f, err := s.deps.Parser.ParseTimeWarp(args)
	if err != nil {
		return Result{}, err
	}
	return result(engine.CmdTimeWarp, e.SetTimeWarp(f)), nil
}

// Status reports the current snapshot.
func (s *Service) Status(e *engine.Engine, _ []string) (Result, error) {
	return Result{Command: "status", Accepted: true, Message: FormatStatus(e.Snapshot())}, nil
}

// FormatStatus renders a snapshot as a few console lines.
func FormatStatus(s core.Snapshot) string {
	v := s.Vehicle
	var b strings.Builder

	fmt.Fprintf(&b, "position %.5f,%.5f heading %.1f° speed %.1f km/h ground %.1f km/h\n",
		v.Lat, v.Lng, v.Heading, v.Speed, v.GroundSpeed)
	fmt.Fprintf(&b, "engine %s (%d) power %.0f%% rpm %.0f rudder %.1f\n",
		s.ThrottleLabel, v.Throttle, v.EnginePower, s.PropellerRPM, rudderStep(v.Rudder))
	fmt.Fprintf(&b, "fuel %.0f l burned %.0f l endurance %s distance %.1f km\n",
		v.FuelReserve, v.TotalFuelBurned, endurance(s), v.TotalDistanceMeters/1000)
	fmt.Fprintf(&b, "wind %.1f Bf (%.1f m/s) toward %.0f° %s\n",
		s.Wind.Force, s.WindSpeedMps, s.Wind.Direction, s.Wind.Mode)
	if n := s.Navigation; n != nil {
		eta := "--"
		if n.ETAKnown {
			eta = n.ETA.Round(time.Second).String()
		}
		fmt.Fprintf(&b, "target %.5f,%.5f bearing %.0f° distance %.2f km deviation %.0f° eta %s\n",
			n.TargetLat, n.TargetLng, n.Bearing, n.DistanceMeters/1000, n.CourseDeviation, eta)
	}
	fmt.Fprintf(&b, "anchor %s autopilot %s fastbrake %s warp x%g elapsed %s",
		onOff(v.AnchorEnabled), onOff(v.AutopilotEnabled), onOff(v.FastBrakeEnabled),
		s.TimeWarp, time.Duration(v.VirtualElapsedSeconds*float64(time.Second)).Round(time.Second))
	if s.Paused {
		b.WriteString(" PAUSED")
	}
	return b.String()
}

func endurance(s core.Snapshot) string {
	switch {
	case s.Vehicle.FuelReserve <= 0:
		return "empty"
	case s.FuelUnbounded:
		return "unlimited"
	default:
		return s.FuelTimeRemaining.Round(time.Minute).String()
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// rudderStep converts the effective rudder back to the operator step.
func rudderStep(r float64) float64 {
	return math.Round(r*100) / 10
}

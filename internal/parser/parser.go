package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aerostat-sim/airship/internal/util"
	"github.com/aerostat-sim/airship/pkg/core"
)

var (
	// ErrMissingArgs is returned when a command has fewer arguments than it needs.
	ErrMissingArgs = errors.New("missing arguments")
	// ErrBadArg is returned when an argument cannot be converted.
	ErrBadArg = errors.New("bad argument")
)

// parseIntFromFloat parses a string that may be an integer ("3") or float ("3.0") into int64.
// Remote clients send notches as JSON numbers, which often arrive as floats.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

func parseFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrBadArg, name, s)
	}
	return f, nil
}

func need(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("%w: usage: %s", ErrMissingArgs, usage)
	}
	return nil
}

// Command is one operator line split into a lower-cased name and its arguments.
type Command struct {
	Name string
	Args []string
}

// Parser converts operator text into typed command arguments.
// Range checks are left to the engine so that refusals are published as rejections.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseLine splits a console or network line. Comments after '#' are dropped.
// It reports false for blank lines.
func (p *Parser) ParseLine(line string) (Command, bool) {
	fields := util.SplitFields(util.StripComment(line))
	if len(fields) == 0 {
		return Command{}, false
	}
	cmd := Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}
	p.logger.Debug("Parsed command line", "command", cmd.Name, "args", len(cmd.Args))
	return cmd, true
}

// ParseThrottle parses a throttle notch. Fractional notches are refused.
func (p *Parser) ParseThrottle(args []string) (int, error) {
	if err := need(args, 1, "throttle <-5..5>"); err != nil {
		return 0, err
	}
	n, err := parseIntFromFloat(strings.TrimPrefix(args[0], "+"))
	if err != nil {
		return 0, fmt.Errorf("%w: throttle %q", ErrBadArg, args[0])
	}
	return int(n), nil
}

// ParseRudder parses an operator rudder step.
func (p *Parser) ParseRudder(args []string) (float64, error) {
	if err := need(args, 1, "rudder <-5..5>"); err != nil {
		return 0, err
	}
	return parseFloat("rudder", args[0])
}

// ParseTarget accepts "lat,lng", "lat, lng" or "lat lng".
func (p *Parser) ParseTarget(args []string) (lat, lng float64, err error) {
	parts := strings.Fields(strings.ReplaceAll(strings.Join(args, " "), ",", " "))
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: usage: target <lat>,<lng>", ErrMissingArgs)
	}
	if lat, err = parseFloat("latitude", parts[0]); err != nil {
		return 0, 0, err
	}
	if lng, err = parseFloat("longitude", parts[1]); err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// ParseSwitch parses an on/off argument. With no argument it reports on.
func (p *Parser) ParseSwitch(args []string) (bool, error) {
	if len(args) == 0 {
		return true, nil
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1", "yes", "engage", "drop":
		return true, nil
	case "off", "false", "0", "no", "disengage", "release", "raise":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off, got %q", ErrBadArg, args[0])
}

// ParseWindMode returns the requested mode as typed; unknown modes are
// refused by the engine.
func (p *Parser) ParseWindMode(args []string) (core.WindMode, error) {
	if err := need(args, 1, "windmode <auto|manual>"); err != nil {
		return "", err
	}
	return core.WindMode(strings.ToLower(args[0])), nil
}

// ParseWind parses a manual wind override: Beaufort force and direction in degrees.
func (p *Parser) ParseWind(args []string) (force, direction float64, err error) {
	if err = need(args, 2, "wind <force> <direction>"); err != nil {
		return 0, 0, err
	}
	if force, err = parseFloat("force", args[0]); err != nil {
		return 0, 0, err
	}
	if direction, err = parseFloat("direction", strings.TrimSuffix(args[1], "°")); err != nil {
		return 0, 0, err
	}
	return force, direction, nil
}

// ParseLiters parses a refuel amount.
func (p *Parser) ParseLiters(args []string) (float64, error) {
	if err := need(args, 1, "fuel <liters>"); err != nil {
		return 0, err
	}
	return parseFloat("liters", strings.TrimSuffix(strings.ToLower(args[0]), "l"))
}

// ParseTimeWarp accepts "10", "10x" or "x10".
func (p *Parser) ParseTimeWarp(args []string) (float64, error) {
	if err := need(args, 1, "warp <factor>"); err != nil {
		return 0, err
	}
	s := strings.ToLower(args[0])
	s = strings.TrimSuffix(strings.TrimPrefix(s, "x"), "x")
	return parseFloat("time warp", s)
}

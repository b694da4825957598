package engine

import (
	"context"
	"log/slog"

	"github.com/aerostat-sim/airship/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/aerostat-sim/airship/internal/engine"

// metrics records engine counters on the global OTel meter (no-op if not configured).
type metrics struct {
	ticks       metric.Int64Counter
	virtualTime metric.Float64Counter
	fuelBurned  metric.Float64Counter
	distance    metric.Float64Counter
	rejections  metric.Int64Counter
}

func newMetrics(log *slog.Logger) *metrics {
	m := otel.Meter(instrumentationName)
	out := &metrics{}
	var err error

	if out.ticks, err = m.Int64Counter("engine.ticks",
		metric.WithDescription("Simulation ticks applied")); err != nil {
		log.Warn("creating tick counter", "error", err)
	}
	if out.virtualTime, err = m.Float64Counter("engine.virtual_time",
		metric.WithDescription("Simulated seconds elapsed"),
		metric.WithUnit("s")); err != nil {
		log.Warn("creating virtual time counter", "error", err)
	}
	if out.fuelBurned, err = m.Float64Counter("engine.fuel.burned",
		metric.WithDescription("Fuel burned"),
		metric.WithUnit("l")); err != nil {
		log.Warn("creating fuel counter", "error", err)
	}
	if out.distance, err = m.Float64Counter("engine.distance",
		metric.WithDescription("Distance travelled over ground"),
		metric.WithUnit("m")); err != nil {
		log.Warn("creating distance counter", "error", err)
	}
	if out.rejections, err = m.Int64Counter("engine.commands.rejected",
		metric.WithDescription("Commands refused by an interlock")); err != nil {
		log.Warn("creating rejection counter", "error", err)
	}
	return out
}

func (m *metrics) tick(dt, burned, moved float64) {
	ctx := context.Background()
	if m.ticks != nil {
		m.ticks.Add(ctx, 1)
	}
	if m.virtualTime != nil {
		m.virtualTime.Add(ctx, dt)
	}
	if m.fuelBurned != nil && burned > 0 {
		m.fuelBurned.Add(ctx, burned)
	}
	if m.distance != nil && moved > 0 {
		m.distance.Add(ctx, moved)
	}
}

func (m *metrics) rejected(r core.Rejection) {
	if m.rejections == nil {
		return
	}
	m.rejections.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("command", r.Command),
		attribute.String("reason", string(r.Reason)),
	))
}

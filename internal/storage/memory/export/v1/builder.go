package v1

import (
	"math"
	"sort"
	"time"

	"github.com/aerostat-sim/airship/pkg/core"
)

// FlightData contains all the data needed to build an export
type FlightData struct {
	Session    *core.Session
	Summary    core.FlightSummary
	Track      []core.TrackPoint
	Rejections []core.Rejection
}

// Build creates an Export from the flight data. Rows are ordered by virtual time.
func Build(data *FlightData) Export {
	export := Export{
		Version:        FormatVersion,
		SessionID:      data.Summary.SessionID,
		VirtualSeconds: round(data.Summary.VirtualSeconds, 1),
		DistanceMeters: round(data.Summary.DistanceMeters, 1),
		FuelBurned:     round(data.Summary.FuelBurned, 2),
		Track:          make([][]any, 0, len(data.Track)),
		Events:         make([][]any, 0, len(data.Rejections)),
	}

	if s := data.Session; s != nil {
		if export.SessionID == "" {
			export.SessionID = s.ID.String()
		}
		export.StartedAt = s.StartedAt.UTC().Format(time.RFC3339)
		export.Resumed = s.Resumed
		export.StartLat = s.StartLat
		export.StartLng = s.StartLng
	}

	track := append([]core.TrackPoint(nil), data.Track...)
	sort.SliceStable(track, func(i, j int) bool { return track[i].VirtualSeconds < track[j].VirtualSeconds })
	for _, p := range track {
		export.Track = append(export.Track, []any{
			round(p.VirtualSeconds, 1),
			[]float64{round(p.Lat, 6), round(p.Lng, 6)},
			round(p.Heading, 1),
			round(p.Speed, 1),
			round(p.GroundSpeed, 1),
			round(p.EnginePower, 1),
			round(p.FuelReserve, 1),
			[]float64{round(p.WindForce, 2), round(p.WindDirection, 1)},
		})
	}

	rejections := append([]core.Rejection(nil), data.Rejections...)
	sort.SliceStable(rejections, func(i, j int) bool { return rejections[i].VirtualSeconds < rejections[j].VirtualSeconds })
	for _, r := range rejections {
		export.Events = append(export.Events, []any{
			round(r.VirtualSeconds, 1),
			"rejection",
			r.Command,
			string(r.Reason),
		})
	}

	return export
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

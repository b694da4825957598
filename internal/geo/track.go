package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// LatLng is a WGS84 position in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// TrackLine builds a web mercator line string from a sequence of positions.
func TrackLine(points []LatLng) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("track must have at least 2 points, got %d", len(points))
	}

	flat := make([]float64, 0, len(points)*2)
	for i, p := range points {
		if !ValidLatLng(p.Lat, p.Lng) {
			return geom.LineString{}, fmt.Errorf("track point %d: %w", i, ErrInvalidCoordinates)
		}
		x, y := Project3857(p.Lat, p.Lng)
		flat = append(flat, x, y)
	}

	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY)), nil
}

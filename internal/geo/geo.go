package geo

import (
	"errors"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// GEO POINTS
// Stored geometry is always EPSG:3857 so SQLite, which has no spatial awareness,
// and Postgres hold the same WKB values. Simulation math stays in degrees.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ValidLatLng reports whether lat/lng lie within ±90/±180.
func ValidLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ParseLatLng parses a "lat,lng" string, rejecting out-of-range values.
func ParseLatLng(coords string) (lat, lng float64, err error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidCoordinates
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates
	}
	if !ValidLatLng(lat, lng) {
		return 0, 0, ErrInvalidCoordinates
	}
	return lat, lng, nil
}

// Project3857 converts a WGS84 position into web mercator x/y.
func Project3857(lat, lng float64) (x, y float64) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ = f(lng, lat, 0)
	return x, y
}

// Point3857 creates a web mercator point from a WGS84 position.
func Point3857(lat, lng float64) geom.Point {
	x, y := Project3857(lat, lng)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
}

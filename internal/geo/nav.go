package geo

import "math"

// EarthRadius is the sphere radius used by all navigation math, in meters.
const EarthRadius = 6378137.0

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeDegrees maps any angle into [0,360).
func NormalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// HeadingError returns target-minus-current wrapped into (-180,180].
func HeadingError(target, current float64) float64 {
	e := math.Mod(target-current, 360)
	if e > 180 {
		e -= 360
	}
	if e <= -180 {
		e += 360
	}
	return e
}

// Bearing is the great-circle initial bearing from point 1 to point 2, in [0,360).
func Bearing(lat1, lng1, lat2, lng2 float64) float64 {
	φ1, φ2 := rad(lat1), rad(lat2)
	Δλ := rad(lng2 - lng1)
	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	return NormalizeDegrees(deg(math.Atan2(y, x)))
}

// Distance is the equirectangular approximation in meters.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dx := EarthRadius * math.Cos(rad(lat1)) * rad(lng2-lng1)
	dy := EarthRadius * rad(lat2-lat1)
	return math.Hypot(dx, dy)
}

// Offset moves a position by east/north meters using the small-angle
// flat-earth approximation. Longitude scaling uses the input latitude.
func Offset(lat, lng, east, north float64) (float64, float64) {
	newLat := lat + deg(north/EarthRadius)
	newLng := lng + deg(east/EarthRadius)/math.Cos(rad(lat))
	return newLat, newLng
}

// Components splits a magnitude along a compass direction into east/north parts.
func Components(magnitude, direction float64) (east, north float64) {
	a := rad(direction)
	return magnitude * math.Sin(a), magnitude * math.Cos(a)
}

// Drift is Offset with longitude scaled by the already-shifted latitude,
// which is how wind drift has always been applied.
func Drift(lat, lng, east, north float64) (float64, float64) {
	newLat := lat + deg(north/EarthRadius)
	newLng := lng + deg(east/EarthRadius)/math.Cos(rad(newLat))
	return newLat, newLng
}

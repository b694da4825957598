// Package perf holds the engine calibration table.
package perf

// Point is one calibration entry of the performance table.
type Point struct {
	Power    float64 // percent
	FuelRate float64 // liters per hour
	Speed    float64 // km/h
}

// Table is ordered by Power.
var Table = []Point{
	{10, 85, 63},
	{20, 170, 79},
	{30, 254, 90},
	{40, 339, 100},
	{50, 424, 107},
	{60, 508, 114},
	{70, 593, 120},
	{80, 678, 125},
	{90, 762, 130},
	{100, 847, 135},
}

// Lookup interpolates fuel rate and steady speed for a power percentage.
// Values at or below zero give (0, 0); values at or above 100 give the last entry.
// Below the first calibration point both outputs scale linearly from zero.
func Lookup(power float64) (fuelRate, speed float64) {
	if power <= 0 {
		return 0, 0
	}
	last := Table[len(Table)-1]
	if power >= last.Power {
		return last.FuelRate, last.Speed
	}

	lower := Point{}
	for _, p := range Table {
		if power == p.Power {
			return p.FuelRate, p.Speed
		}
		if power < p.Power {
			ratio := (power - lower.Power) / (p.Power - lower.Power)
			return lerp(lower.FuelRate, p.FuelRate, ratio), lerp(lower.Speed, p.Speed, ratio)
		}
		lower = p
	}
	return last.FuelRate, last.Speed
}

// FuelRate returns the interpolated consumption in liters per hour.
func FuelRate(power float64) float64 {
	f, _ := Lookup(power)
	return f
}

// SteadySpeed returns the interpolated steady-state speed in km/h.
func SteadySpeed(power float64) float64 {
	_, s := Lookup(power)
	return s
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

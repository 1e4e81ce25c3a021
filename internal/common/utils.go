package common

import "math"

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Round4 rounds a coordinate to 4 decimal places (~11 m), the precision
// used for cache keys and provider queries.
func Round4(v float64) float64 {
	return Round(v, 4)
}

// Clamp limits v to the [lo, hi] interval.
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

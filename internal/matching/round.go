package matching

import "math"

// RoundHalfAwayFromZero rounds v to decimals digits, rounding .5 away from
// zero rather than banker's-rounding to even: two decimals for CN, four for
// HK/US.
func RoundHalfAwayFromZero(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	if v >= 0 {
		return math.Floor(v*scale+0.5) / scale
	}
	return math.Ceil(v*scale-0.5) / scale
}

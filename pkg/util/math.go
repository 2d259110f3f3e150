package util

import "math"

// Round2 rounds to two decimal places, the precision quoted for index levels.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds to four decimal places, used for Greeks and ratios.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Round6 rounds to six decimal places, used for gamma.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// RoundN rounds to n decimal places.
func RoundN(v float64, n int) float64 {
	p := math.Pow(10, float64(n))
	return math.Round(v*p) / p
}

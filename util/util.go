package util

import (
	"math"

	"github.com/fogleman/ease"
)

// Clamp limits v to the closed range [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Wrap01 wraps v into [0, 1), treating negative values as wrapping backwards.
func Wrap01(v float64) float64 {
	w := v - math.Floor(v)
	if w >= 1.0 {
		return 0
	}
	return w
}

// Phase maps a time t onto [0, 1) for a cycle of the given period.
func Phase(t, period float64) float64 {
	if period <= 0 {
		return 0
	}
	return Wrap01(t / period)
}

// Triangle converts a phase in [0, 1) to a triangle wave in [0, 1],
// rising over the first half of the cycle and falling over the second.
func Triangle(phase float64) float64 {
	return 1.0 - math.Abs(2.0*phase-1.0)
}

// GenerateLut builds a symmetric ease-in-out look-up table that rises to 1.0
// at the midpoint and falls back to 0.
func GenerateLut(length int) []float64 {
	increment := 1.0 / float64(length/2)
	lut := make([]float64, length)
	for i, j := 0, length-1; i < length/2; i, j = i+1, j-1 {
		value := float64(i) * increment
		lut[i] = ease.InOutQuad(value)
		lut[j] = ease.InOutQuad(value)
	}
	return lut
}

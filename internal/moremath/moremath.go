// Package moremath fills the gaps between Go's math package and the exact
// float semantics the numeric operators require.
package moremath

import "math"

// WasmCompatMin propagates NaN and treats -0 as smaller than +0.
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	return math.Min(x, y)
}

// WasmCompatMax propagates NaN and treats +0 as larger than -0.
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)
	case x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	return math.Max(x, y)
}

// WasmCompatNearest rounds to the nearest integer, ties to even, preserving
// the sign of zero.
func WasmCompatNearest(f float64) float64 {
	return math.RoundToEven(f)
}

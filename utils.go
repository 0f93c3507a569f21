package meshy

import "math"

// DtoR converts degrees to radians.
func DtoR(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Clamp x between a and b, assume a <= b.
func Clamp(x, a, b float64) float64 {
	return math.Max(a, math.Min(x, b))
}

// Acos is math.Acos with its argument clamped to [-1, 1] so rounding
// noise in normalized dot products never yields NaN.
func Acos(x float64) float64 {
	return math.Acos(Clamp(x, -1, 1))
}

// Clampi clamps x between a and b, assume a <= b.
func Clampi(x, a, b int) int {
	return max(a, min(x, b))
}

package errors

import (
	"math"
)

const (
	// ZeroTolerance is the absolute cutoff of IsZero. It is only meant for
	// dimensionless quantities such as tolerances and correlations.
	ZeroTolerance = 1e-10

	// RelativeTolerance is the fraction of a reference magnitude below which
	// a quantity is treated as zero by IsNegligible.
	RelativeTolerance = 1e-10
)

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error if numerical instability is detected.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckMatrix checks all values in a square or rectangular matrix.
// At most ten offending values are collected for the error message.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols, iteration int) error {
	var unstable []float64
	for i := 0; i < rows && len(unstable) < 10; i++ {
		for j := 0; j < cols && len(unstable) < 10; j++ {
			if v := matrix.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				unstable = append(unstable, v)
			}
		}
	}
	if len(unstable) > 0 {
		return NewNumericalInstabilityError(operation, unstable, iteration)
	}
	return nil
}

// IsZero reports whether |v| is below ZeroTolerance.
func IsZero(v float64) bool {
	return math.Abs(v) < ZeroTolerance
}

// IsNegligible reports whether |v| <= RelativeTolerance·|scale|.
// With a zero scale only v == 0 is negligible, so the test does not depend
// on the units of v.
func IsNegligible(v, scale float64) bool {
	return math.Abs(v) <= RelativeTolerance*math.Abs(scale)
}

// DivideOrZero returns numerator / denominator, or 0 when the denominator
// is exactly zero. Callers round negligible denominators to zero first.
func DivideOrZero(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

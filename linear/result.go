package linear

import (
	"strings"
)

// FitResult is the outcome of one regression or selection step.
//
// Coefficients holds one weight per active attribute in dataset order,
// followed by the intercept. A FitResult is never modified after it is
// returned; use Clone before deriving a variant.
type FitResult struct {
	Mask         []bool
	Coefficients []float64
	SquaredError float64
}

// Clone returns a deep copy of r.
func (r FitResult) Clone() FitResult {
	return FitResult{
		Mask:         cloneMask(r.Mask),
		Coefficients: append([]float64(nil), r.Coefficients...),
		SquaredError: r.SquaredError,
	}
}

// NumActive returns the number of attributes in the model.
func (r FitResult) NumActive() int { return countActive(r.Mask) }

// Intercept returns the last coefficient.
func (r FitResult) Intercept() float64 {
	if len(r.Coefficients) == 0 {
		return 0
	}
	return r.Coefficients[len(r.Coefficients)-1]
}

// Coefficient returns the weight of attribute j, or false when j is inactive.
func (r FitResult) Coefficient(j int) (float64, bool) {
	if j < 0 || j >= len(r.Mask) || !r.Mask[j] {
		return 0, false
	}
	c := 0
	for i := 0; i < j; i++ {
		if r.Mask[i] {
			c++
		}
	}
	return r.Coefficients[c], true
}

func cloneMask(mask []bool) []bool {
	return append([]bool(nil), mask...)
}

func countActive(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}

func activeIndices(mask []bool) []int {
	idx := make([]int, 0, len(mask))
	for j, m := range mask {
		if m {
			idx = append(idx, j)
		}
	}
	return idx
}

func masksEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// formatMask renders a mask as a string of 1s and 0s for debug logging.
func formatMask(mask []bool) string {
	var sb strings.Builder
	sb.Grow(len(mask))
	for _, m := range mask {
		if m {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

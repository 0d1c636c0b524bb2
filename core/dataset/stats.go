package dataset

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stats holds weighted summary statistics of one column.
type Stats struct {
	Mean      float64
	Variance  float64
	StdDev    float64
	Count     int
	WeightSum float64
}

// WeightedStats computes the weighted mean and unbiased weighted variance of
// values. weights may be nil. Fewer than two values give zero variance.
func WeightedStats(values, weights []float64) Stats {
	s := Stats{Count: len(values)}
	if len(values) == 0 {
		return s
	}
	if weights == nil {
		s.WeightSum = float64(len(values))
	} else {
		s.WeightSum = floatsSum(weights)
	}
	switch {
	case s.WeightSum <= 0:
		return s
	case len(values) < 2:
		s.Mean = stat.Mean(values, weights)
		return s
	case s.WeightSum <= 1:
		// Fractional weights: population variance with a sample-size correction.
		n := float64(len(values))
		s.Mean, s.Variance = stat.PopMeanVariance(values, weights)
		s.Variance *= n / (n - 1)
	default:
		s.Mean, s.Variance = stat.MeanVariance(values, weights)
	}
	if s.Variance < 0 || math.IsNaN(s.Variance) {
		s.Variance = 0
	}
	s.StdDev = math.Sqrt(s.Variance)
	return s
}

func floatsSum(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum
}

package linear

import (
	"github.com/YuminosukeSato/stepreg/pkg/log"
)

// Option is a function that configures LinearRegression
type Option func(*LinearRegression)

// WithBias sets whether an intercept is fitted
func WithBias(useBias bool) Option {
	return func(lr *LinearRegression) {
		lr.useBias = useBias
	}
}

// WithRidge sets the ridge coefficient added to the normal equations.
// 0 means ordinary least squares.
func WithRidge(ridge float64) Option {
	return func(lr *LinearRegression) {
		lr.ridge = ridge
	}
}

// WithCollinearityElimination enables removal of attributes whose
// tolerance is below minTolerance.
func WithCollinearityElimination(minTolerance float64) Option {
	return func(lr *LinearRegression) {
		lr.eliminateCollinear = true
		lr.minTolerance = minTolerance
	}
}

// WithoutCollinearityElimination disables the collinearity pass
func WithoutCollinearityElimination() Option {
	return func(lr *LinearRegression) {
		lr.eliminateCollinear = false
	}
}

// WithSelection sets the attribute selection strategy
func WithSelection(s Selection) Option {
	return func(lr *LinearRegression) {
		lr.selection = s
	}
}

// WithLogger sets the logger used by Fit
func WithLogger(logger log.Logger) Option {
	return func(lr *LinearRegression) {
		lr.logger = logger
	}
}

// WithParallelThreshold sets the number of examples from which per-example
// loops run in parallel. 0 or less keeps them sequential.
func WithParallelThreshold(n int) Option {
	return func(lr *LinearRegression) {
		lr.parallelThreshold = n
	}
}

package linear

import (
	"context"
	"math"

	"github.com/YuminosukeSato/stepreg/pkg/errors"
	"github.com/YuminosukeSato/stepreg/pkg/log"
)

// Akaike removes, one at a time, the attribute with the smallest absolute
// standardized coefficient while the Akaike criterion improves.
type Akaike struct{}

func (Akaike) Name() string               { return SelectionAkaike }
func (Akaike) Params() map[string]float64 { return map[string]float64{} }
func (Akaike) Validate() error            { return nil }

// Greedy tries every single removal in each round and keeps the one that
// improves the Akaike criterion most.
type Greedy struct{}

func (Greedy) Name() string               { return SelectionGreedy }
func (Greedy) Params() map[string]float64 { return map[string]float64{} }
func (Greedy) Validate() error            { return nil }

// akaikeCriterion is (err/errFull)·(n-k0) + 2k.
func akaikeCriterion(err, errFull float64, n, k0, k int) float64 {
	var ratio float64
	switch {
	case errFull != 0:
		ratio = err / errFull
	case err == 0:
		ratio = 0
	default:
		ratio = math.Inf(1)
	}
	return ratio*float64(n-k0) + 2*float64(k)
}

func baselineCriterion(n, k0 int) float64 {
	return float64(n-k0) + 2*float64(k0)
}

func (Akaike) apply(ctx context.Context, c *fitContext, baseline FitResult) (FitResult, error) {
	n, k0 := c.numExamples(), baseline.NumActive()
	errFull := baseline.SquaredError
	current := baseline.Clone()
	best := baselineCriterion(n, k0)

	for round := 1; current.NumActive() > 0; round++ {
		if err := ctx.Err(); err != nil {
			return FitResult{}, errors.Wrap(err, "akaike selection")
		}

		candidate := c.smallestStandardized(current)
		trial := cloneMask(current.Mask)
		trial[candidate] = false
		r, err := c.fit(ctx, trial)
		if err != nil {
			return FitResult{}, err
		}
		criterion := akaikeCriterion(r.SquaredError, errFull, n, k0, r.NumActive())
		if !(criterion < best) {
			break
		}
		c.logger.Debug("attribute removed",
			log.SelectionRoundKey, round,
			log.AttributeNameKey, c.ds.Attribute(candidate).Name,
			log.CriterionKey, criterion,
		)
		best, current = criterion, r
		c.step(round, current)
	}
	return current, nil
}

// smallestStandardized returns the active attribute of r with the smallest
// absolute standardized coefficient, the first one on ties. The common
// label standard deviation is left out of the ranking.
func (c *fitContext) smallestStandardized(r FitResult) int {
	candidate, smallest := -1, math.Inf(1)
	for k, j := range activeIndices(r.Mask) {
		std := math.Abs(r.Coefficients[k] * c.stdDevs[j])
		if candidate < 0 || std < smallest {
			candidate, smallest = j, std
		}
	}
	return candidate
}

func (Greedy) apply(ctx context.Context, c *fitContext, baseline FitResult) (FitResult, error) {
	n, k0 := c.numExamples(), baseline.NumActive()
	errFull := baseline.SquaredError
	current := baseline.Clone()
	best := baselineCriterion(n, k0)

	for round := 1; current.NumActive() > 0; round++ {
		var (
			next    FitResult
			removed = -1
		)
		for _, j := range activeIndices(current.Mask) {
			if err := ctx.Err(); err != nil {
				return FitResult{}, errors.Wrap(err, "greedy selection")
			}
			trial := cloneMask(current.Mask)
			trial[j] = false
			r, err := c.fit(ctx, trial)
			if err != nil {
				return FitResult{}, err
			}
			if criterion := akaikeCriterion(r.SquaredError, errFull, n, k0, r.NumActive()); criterion < best {
				best, next, removed = criterion, r, j
			}
		}
		if removed < 0 {
			break
		}
		c.logger.Debug("attribute removed",
			log.SelectionRoundKey, round,
			log.AttributeNameKey, c.ds.Attribute(removed).Name,
			log.CriterionKey, best,
		)
		current = next
		c.step(round, current)
	}
	return current, nil
}

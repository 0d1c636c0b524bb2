package linear

import (
	"context"

	"github.com/YuminosukeSato/stepreg/pkg/errors"
	"github.com/YuminosukeSato/stepreg/pkg/log"
)

// IterativeTTest alternates forward inclusion and backward elimination by
// t-test, starting from the empty model, until the mask stops changing or
// MaxIterations rounds have run. Only attributes active in the baseline
// can be included.
type IterativeTTest struct {
	MaxIterations int
	AlphaForward  float64
	AlphaBackward float64
}

func (IterativeTTest) Name() string { return SelectionIterativeTTest }

func (s IterativeTTest) Params() map[string]float64 {
	return map[string]float64{
		paramMaxIterations: float64(s.MaxIterations),
		paramAlphaForward:  s.AlphaForward,
		paramAlphaBackward: s.AlphaBackward,
	}
}

func (s IterativeTTest) Validate() error { return validateSelection(s) }

func (s IterativeTTest) apply(ctx context.Context, c *fitContext, baseline FitResult) (FitResult, error) {
	empty, err := c.fit(ctx, make([]bool, len(baseline.Mask)))
	if err != nil {
		return FitResult{}, err
	}
	return s.iterate(ctx, c, empty, baseline.Mask)
}

func (s IterativeTTest) iterate(ctx context.Context, c *fitContext, current FitResult, allowed []bool) (FitResult, error) {
	for round := 1; round <= s.MaxIterations; round++ {
		next := cloneMask(current.Mask)
		for j, ok := range allowed {
			if !ok || current.Mask[j] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return FitResult{}, errors.Wrap(err, "iterative t-test selection")
			}
			trial := cloneMask(current.Mask)
			trial[j] = true
			r, err := c.fit(ctx, trial)
			if err != nil {
				return FitResult{}, err
			}
			p, err := c.pValue(ctx, r, j)
			if err != nil {
				return FitResult{}, err
			}
			if p <= s.AlphaForward {
				next[j] = true
			}
		}

		expanded := current
		if !masksEqual(next, current.Mask) {
			var err error
			if expanded, err = c.fit(ctx, next); err != nil {
				return FitResult{}, err
			}
		}
		reduced, err := c.backwardTTest(ctx, expanded, s.AlphaBackward)
		if err != nil {
			return FitResult{}, err
		}
		c.logger.Debug("iteration finished",
			log.IterationKey, round,
			log.MaskKey, formatMask(reduced.Mask),
		)
		c.step(round, reduced)

		if masksEqual(reduced.Mask, current.Mask) {
			return reduced, nil
		}
		current = reduced
	}

	errors.Warn(errors.NewConvergenceWarning("IterativeTTest", s.MaxIterations, "attribute mask still changing"))
	return current, nil
}

package linear

import (
	"context"

	"github.com/YuminosukeSato/stepreg/pkg/errors"
	"github.com/YuminosukeSato/stepreg/pkg/log"
)

// TTest keeps the attributes whose coefficient is significant at level
// Alpha and refits once.
type TTest struct {
	Alpha float64
}

func (TTest) Name() string { return SelectionTTest }

func (s TTest) Params() map[string]float64 {
	return map[string]float64{paramAlpha: s.Alpha}
}

func (s TTest) Validate() error { return validateSelection(s) }

func (s TTest) apply(ctx context.Context, c *fitContext, baseline FitResult) (FitResult, error) {
	return c.backwardTTest(ctx, baseline, s.Alpha)
}

// backwardTTest deactivates every attribute of r whose p-value exceeds
// alpha (or is undefined) and refits on the survivors.
func (c *fitContext) backwardTTest(ctx context.Context, r FitResult, alpha float64) (FitResult, error) {
	pvals, err := c.pValues(ctx, r)
	if err != nil {
		return FitResult{}, errors.Wrap(err, "t-test selection")
	}
	mask := cloneMask(r.Mask)
	changed := false
	for k, j := range activeIndices(r.Mask) {
		if pvals[k] <= alpha {
			continue
		}
		mask[j] = false
		changed = true
		c.logger.Debug("attribute not significant",
			log.AttributeNameKey, c.ds.Attribute(j).Name,
			log.PValueKey, pvals[k],
		)
	}
	if !changed {
		return r.Clone(), nil
	}
	return c.fit(ctx, mask)
}

package linear

import (
	"context"

	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/core/parallel"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
	"github.com/YuminosukeSato/stepreg/pkg/log"
)

// fitContext bundles everything a selection step needs: the working
// example set, the solver, regularisation settings and the standardisation
// statistics computed once per fit.
type fitContext struct {
	ds      dataset.ExampleSet
	solver  *solver
	ridge   float64
	useBias bool

	// centring statistics handed to the solver; all zero when useBias is false
	means     []float64
	labelMean float64

	stdDevs     []float64
	labelStdDev float64

	labels            []float64
	parallelThreshold int
	logger            log.Logger

	// onStep is called after every accepted selection step.
	onStep func(round int, r FitResult)
}

func (c *fitContext) numExamples() int { return c.ds.NumExamples() }

func (c *fitContext) step(round int, r FitResult) {
	if c.onStep != nil {
		c.onStep(round, r.Clone())
	}
}

// fit regresses the label on the attributes active in mask and returns the
// result together with its squared error.
func (c *fitContext) fit(ctx context.Context, mask []bool) (FitResult, error) {
	coefficients, err := c.solver.regress(ctx, mask, c.means, c.labelMean, c.ridge)
	if err != nil {
		return FitResult{}, err
	}
	r := FitResult{Mask: cloneMask(mask), Coefficients: coefficients}
	r.SquaredError, err = c.squaredError(ctx, r)
	if err != nil {
		return FitResult{}, err
	}
	return r, nil
}

// predictions evaluates r on every example of the working set.
func (c *fitContext) predictions(ctx context.Context, r FitResult) ([]float64, error) {
	active := activeIndices(r.Mask)
	intercept := r.Intercept()
	preds := make([]float64, c.numExamples())
	err := parallel.ForEachRow(ctx, len(preds), c.parallelThreshold, func(i int) error {
		v := intercept
		for k, j := range active {
			v += r.Coefficients[k] * c.ds.Value(i, j)
		}
		preds[i] = v
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "predictions")
	}
	return preds, nil
}

// squaredError is the unweighted sum of squared residuals of r.
func (c *fitContext) squaredError(ctx context.Context, r FitResult) (float64, error) {
	preds, err := c.predictions(ctx, r)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i, p := range preds {
		d := p - c.labels[i]
		sum += d * d
	}
	return sum, nil
}

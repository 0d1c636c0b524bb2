package linear

import (
	"context"
	"math"

	"github.com/YuminosukeSato/stepreg/core/parallel"
	"github.com/YuminosukeSato/stepreg/metrics"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// tolerance returns 1 - r² between attribute j and its prediction from the
// other attributes active in mask. An attribute with no other active
// attribute, or with a constant prediction, has tolerance 1.
func (c *fitContext) tolerance(ctx context.Context, mask []bool, j int) (float64, error) {
	others := make([]int, 0, len(mask))
	for _, o := range activeIndices(mask) {
		if o != j {
			others = append(others, o)
		}
	}
	if len(others) == 0 {
		return 1, nil
	}

	coefficients, err := c.solver.regressOn(ctx, others, j, c.ridge, c.useBias)
	if err != nil {
		return 0, errors.Wrapf(err, "tolerance of attribute %d", j)
	}
	intercept := coefficients[len(others)]

	n := c.numExamples()
	actual := make([]float64, n)
	predicted := make([]float64, n)
	err = parallel.ForEachRow(ctx, n, c.parallelThreshold, func(i int) error {
		v := intercept
		for k, o := range others {
			v += coefficients[k] * c.ds.Value(i, o)
		}
		predicted[i] = v
		actual[i] = c.ds.Value(i, j)
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "tolerance of attribute %d", j)
	}

	// SquaredCorrelation は定数の予測に対して 0 を返すので許容度は 1 になる
	r2, err := metrics.SquaredCorrelation(actual, predicted)
	if err != nil {
		return 0, err
	}
	return math.Max(0, 1-r2), nil
}

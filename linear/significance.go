package linear

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/stepreg/metrics"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// residualDOF is n - k - 1 for a model with k active attributes.
func residualDOF(n, k int) int { return n - k - 1 }

// fPValue returns 1 - F(t²; 1, dof). It is NaN when the distribution is
// undefined (dof <= 0), and such a p-value never passes a threshold.
func fPValue(t float64, dof int) float64 {
	if dof <= 0 || math.IsNaN(t) {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	f := distuv.F{D1: 1, D2: float64(dof)}
	return 1 - f.CDF(t*t)
}

// tStatistic divides coefficient by se. scale is the magnitude of a unit
// effect in label units: a coefficient negligible next to it (or any
// coefficient when scale is 0, i.e. a constant label) gives 0, and a
// standard error negligible next to the coefficient gives +Inf.
func tStatistic(coefficient, se, scale float64) float64 {
	if scale == 0 || errors.IsNegligible(coefficient, scale) {
		return 0
	}
	if se == 0 || errors.IsNegligible(se, coefficient) {
		return math.Inf(1)
	}
	return coefficient / se
}

// coefficientScale is σy/σj, the label change per standard deviation of
// attribute j.
func (c *fitContext) coefficientScale(j int) float64 {
	return errors.DivideOrZero(c.labelStdDev, c.stdDevs[j])
}

// standardized is the coefficient of attribute j in standard units.
func (c *fitContext) standardized(j int, coefficient float64) float64 {
	return errors.DivideOrZero(coefficient*c.stdDevs[j], c.labelStdDev)
}

// approximateStandardError estimates the standard error of attribute j in
// a model with k active attributes from its tolerance and the model's r².
func (c *fitContext) approximateStandardError(j, k int, r2, tol float64) float64 {
	dof := residualDOF(c.numExamples(), k)
	if tol <= 0 || dof <= 0 {
		return math.Inf(1)
	}
	return math.Sqrt(math.Max(0, 1-r2)/(tol*float64(dof))) * c.coefficientScale(j)
}

// fitR2 is the squared correlation between the predictions of r and the label.
func (c *fitContext) fitR2(ctx context.Context, r FitResult) (float64, error) {
	preds, err := c.predictions(ctx, r)
	if err != nil {
		return 0, err
	}
	return metrics.SquaredCorrelation(c.labels, preds)
}

// pValues returns the p-value of every attribute active in r, in dataset order.
func (c *fitContext) pValues(ctx context.Context, r FitResult) ([]float64, error) {
	active := activeIndices(r.Mask)
	if len(active) == 0 {
		return nil, nil
	}
	r2, err := c.fitR2(ctx, r)
	if err != nil {
		return nil, err
	}
	dof := residualDOF(c.numExamples(), len(active))
	out := make([]float64, len(active))
	for k, j := range active {
		if dof <= 0 {
			out[k] = math.NaN()
			continue
		}
		tol, err := c.tolerance(ctx, r.Mask, j)
		if err != nil {
			return nil, err
		}
		se := c.approximateStandardError(j, len(active), r2, tol)
		out[k] = fPValue(tStatistic(r.Coefficients[k], se, c.coefficientScale(j)), dof)
	}
	return out, nil
}

// pValue returns the p-value of a single active attribute j of r.
func (c *fitContext) pValue(ctx context.Context, r FitResult, j int) (float64, error) {
	k := r.NumActive()
	dof := residualDOF(c.numExamples(), k)
	if dof <= 0 {
		return math.NaN(), nil
	}
	coefficient, ok := r.Coefficient(j)
	if !ok {
		return math.NaN(), nil
	}
	r2, err := c.fitR2(ctx, r)
	if err != nil {
		return 0, err
	}
	tol, err := c.tolerance(ctx, r.Mask, j)
	if err != nil {
		return 0, err
	}
	se := c.approximateStandardError(j, k, r2, tol)
	return fPValue(tStatistic(coefficient, se, c.coefficientScale(j)), dof), nil
}

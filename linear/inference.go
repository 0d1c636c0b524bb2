package linear

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stepreg/core/parallel"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
	"github.com/YuminosukeSato/stepreg/pkg/log"
)

// CoefficientStats holds the inference statistics of one coefficient.
type CoefficientStats struct {
	Attribute               string
	Coefficient             float64
	StandardError           float64
	StandardizedCoefficient float64
	Tolerance               float64
	TStatistic              float64
	PValue                  float64
}

// InferenceReport holds the statistics of every active coefficient in
// dataset order and of the intercept. Exact is false when the standard
// errors come from the tolerance approximation; the intercept's standard
// error is then +Inf.
type InferenceReport struct {
	Coefficients []CoefficientStats
	Intercept    CoefficientStats
	Exact        bool
}

// computeInference builds the report of the final fit r.
func (c *fitContext) computeInference(ctx context.Context, r FitResult) (InferenceReport, error) {
	active := activeIndices(r.Mask)
	k := len(active)
	dof := residualDOF(c.numExamples(), k)

	report := InferenceReport{Coefficients: make([]CoefficientStats, k)}
	for idx, j := range active {
		tol, err := c.tolerance(ctx, r.Mask, j)
		if err != nil {
			return InferenceReport{}, err
		}
		coefficient := r.Coefficients[idx]
		report.Coefficients[idx] = CoefficientStats{
			Attribute:               c.ds.Attribute(j).Name,
			Coefficient:             coefficient,
			StandardizedCoefficient: c.standardized(j, coefficient),
			Tolerance:               tol,
		}
	}
	report.Intercept = CoefficientStats{
		Attribute:   "(Intercept)",
		Coefficient: r.Intercept(),
		Tolerance:   1,
	}

	se, err := c.exactStandardErrors(ctx, r)
	if err != nil {
		return InferenceReport{}, err
	}
	if se != nil {
		report.Exact = true
		for idx := range report.Coefficients {
			report.Coefficients[idx].StandardError = se[idx]
		}
		report.Intercept.StandardError = se[k]
	} else {
		c.logger.Debug("exact inference unavailable, using tolerance approximation", log.PhaseKey, log.PhaseInference)
		r2, err := c.fitR2(ctx, r)
		if err != nil {
			return InferenceReport{}, err
		}
		for idx, j := range active {
			st := &report.Coefficients[idx]
			st.StandardError = c.approximateStandardError(j, k, r2, st.Tolerance)
		}
		report.Intercept.StandardError = math.Inf(1)
	}

	finish := func(st *CoefficientStats, scale float64) {
		st.TStatistic = tStatistic(st.Coefficient, st.StandardError, scale)
		st.PValue = fPValue(st.TStatistic, dof)
	}
	for idx, j := range active {
		finish(&report.Coefficients[idx], c.coefficientScale(j))
	}
	finish(&report.Intercept, math.Max(c.labelStdDev, math.Abs(c.labelMean)))
	return report, nil
}

// exactStandardErrors returns sqrt(mse·diag((XᵗWX)⁻¹)) with the intercept
// last, or nil when the inversion is not possible.
func (c *fitContext) exactStandardErrors(ctx context.Context, r FitResult) ([]float64, error) {
	active := activeIndices(r.Mask)
	k := len(active)
	n := c.numExamples()
	dof := residualDOF(n, k)
	if dof <= 0 {
		return nil, nil
	}

	design := c.solver.pool.Get(n, k+1)
	defer design.Release()
	A := design.Dense()
	err := parallel.ForEachRow(ctx, n, c.parallelThreshold, func(i int) error {
		sw := math.Sqrt(c.ds.Weight(i))
		row := A.RawRowView(i)
		for idx, j := range active {
			row[idx] = sw * c.ds.Value(i, j)
		}
		row[k] = sw
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "inference design matrix")
	}
	xtwx := mat.NewSymDense(k+1, nil)
	xtwx.SymOuterK(1, A.T())

	var inv mat.Dense
	err = errors.SafeExecute("inference.inverse", func() error {
		return inv.Inverse(xtwx)
	})
	if err == nil {
		err = errors.CheckMatrix("inference.inverse", &inv, k+1, k+1, 0)
	}
	if err != nil {
		c.logger.Debug("information matrix inversion failed", log.ErrorKey, err.Error())
		return nil, nil
	}

	mse := r.SquaredError / float64(dof)
	se := make([]float64, k+1)
	for idx := range se {
		d := inv.At(idx, idx)
		if d < 0 {
			return nil, nil
		}
		se[idx] = math.Sqrt(mse * d)
	}
	return se, nil
}

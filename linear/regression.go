// Package linear fits linear regression models with collinearity
// elimination, attribute selection and coefficient inference.
package linear

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/core/model"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
	"github.com/YuminosukeSato/stepreg/pkg/log"
	"github.com/YuminosukeSato/stepreg/preprocessing"
)

const (
	defaultRidge             = 1e-8
	defaultMinTolerance      = 0.05
	defaultParallelThreshold = 10000
)

// LinearRegression fits a linear model by weighted least squares and
// reduces its attribute set.
//
// Fit runs, in order: label binarization, numeric attribute masking,
// standardization with zero-variance removal, the full-data fit,
// optional collinearity elimination, the configured Selection and
// inference on the final fit.
type LinearRegression struct {
	state *model.StateManager

	useBias            bool
	ridge              float64
	eliminateCollinear bool
	minTolerance       float64
	selection          Selection
	parallelThreshold  int
	logger             log.Logger

	model *Model

	// onStep is copied into every fit context.
	onStep func(round int, r FitResult)
}

var _ model.ParameterGetter = (*LinearRegression)(nil)

// NewLinearRegression creates a fitter. The defaults are a biased model,
// ridge 1e-8, collinearity elimination at tolerance 0.05 and Akaike
// selection.
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{
		state:              model.NewStateManager(),
		useBias:            true,
		ridge:              defaultRidge,
		eliminateCollinear: true,
		minTolerance:       defaultMinTolerance,
		selection:          Akaike{},
		parallelThreshold:  defaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(lr)
	}
	if lr.logger == nil {
		lr.logger = log.GetLoggerWithName("linear")
	}
	return lr
}

// Validate checks the configuration without touching any data.
func (lr *LinearRegression) Validate() error {
	if lr.ridge < 0 || math.IsNaN(lr.ridge) {
		return errors.NewValidationError("ridge", "must be non-negative", lr.ridge)
	}
	if lr.eliminateCollinear && !(lr.minTolerance >= 0 && lr.minTolerance <= 1) {
		return errors.NewValidationError("min_tolerance", "must be in [0, 1]", lr.minTolerance)
	}
	if lr.selection == nil {
		return errors.NewValidationError("selection.method", "is required", nil)
	}
	if _, ok := selectionSchemas[lr.selection.Name()]; !ok {
		return errors.NewUnknownSelectionError(lr.selection.Name())
	}
	return lr.selection.Validate()
}

// Fit fits ds and returns the model. Configuration errors are returned
// before any pass over the data; a cancelled ctx aborts the fit with an
// error matching ctx.Err().
func (lr *LinearRegression) Fit(ctx context.Context, ds dataset.ExampleSet) (*Model, error) {
	if err := lr.Validate(); err != nil {
		return nil, err
	}
	if ds == nil || ds.NumExamples() == 0 {
		return nil, errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}

	logger := lr.logger.With(
		log.ModelNameKey, modelType,
		log.RunIDKey, uuid.NewString(),
		log.OperationKey, log.OperationFit,
		log.SelectionMethodKey, lr.selection.Name(),
	)
	start := time.Now()
	logger.Info("Training started",
		log.SamplesKey, ds.NumExamples(),
		log.FeaturesKey, ds.NumAttributes(),
	)

	m, err := lr.fit(ctx, ds, logger)
	if err != nil {
		logger.Error("Training failed", err)
		return nil, err
	}

	lr.model = m
	lr.state.SetFitted(ds.NumAttributes(), ds.NumExamples())
	logger.Info("Training completed",
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.ActiveKey, countActive(m.Mask),
		log.ErrorSumKey, m.SquaredError,
	)
	return m, nil
}

func (lr *LinearRegression) fit(ctx context.Context, ds dataset.ExampleSet, logger log.Logger) (m *Model, err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	// 作業用ラベルはビューなので元のデータセットは変更されない
	working, classes, err := preprocessing.BinarizeLabel(ds)
	if err != nil {
		return nil, err
	}

	c, mask, err := lr.prepare(ctx, working, logger)
	if err != nil {
		return nil, err
	}
	p := working.NumAttributes()

	full, err := c.fit(ctx, mask)
	if err != nil {
		return nil, err
	}
	if lr.eliminateCollinear {
		if full, err = c.eliminateCollinear(ctx, full, lr.minTolerance); err != nil {
			return nil, err
		}
	}

	logger.Debug("selection started",
		log.PhaseKey, log.PhaseSelection,
		log.ActiveKey, full.NumActive(),
		log.ErrorSumKey, full.SquaredError,
	)
	result, err := lr.selection.apply(ctx, c, full)
	if err != nil {
		return nil, err
	}

	report, err := c.computeInference(ctx, result)
	if err != nil {
		return nil, err
	}
	stats := c.solver.pool.GetStats()
	logger.Debug("design buffers",
		log.PoolAllocKey, stats.TotalAllocated,
		log.PoolReuseKey, stats.TotalRecycled,
		log.PoolPeakKey, stats.PeakUsage,
	)

	names := make([]string, p)
	for j := range names {
		names[j] = ds.Attribute(j).Name
	}
	return &Model{
		Attributes:   names,
		Label:        ds.Label().Name,
		Mask:         cloneMask(result.Mask),
		Coefficients: append([]float64(nil), result.Coefficients...),
		Report:       report,
		UseBias:      lr.useBias,
		ClassNames:   classes,
		SquaredError: result.SquaredError,
		NumExamples:  working.NumExamples(),
		Selection:    lr.selection.Name(),
	}, nil
}

// prepare masks the numeric, non-constant attributes of working and builds
// the fit context from their weighted statistics.
func (lr *LinearRegression) prepare(ctx context.Context, working dataset.ExampleSet, logger log.Logger) (*fitContext, []bool, error) {
	p := working.NumAttributes()
	mask := make([]bool, p)
	for j := range mask {
		mask[j] = working.Attribute(j).IsNumeric()
	}

	scaler := preprocessing.NewStandardScaler()
	if err := scaler.Fit(ctx, working, mask); err != nil {
		return nil, nil, err
	}
	mask = scaler.DropZeroVariance(mask)

	c := &fitContext{
		ds:                working,
		solver:            newSolver(working, lr.parallelThreshold, logger),
		ridge:             lr.ridge,
		useBias:           lr.useBias,
		means:             make([]float64, p),
		stdDevs:           scaler.Scale,
		labelStdDev:       scaler.LabelScale,
		labels:            dataset.LabelColumn(working),
		parallelThreshold: lr.parallelThreshold,
		logger:            logger,
		onStep:            lr.onStep,
	}
	if lr.useBias {
		copy(c.means, scaler.Mean)
		c.labelMean = scaler.LabelMean
	}
	return c, mask, nil
}

// eliminateCollinear repeatedly removes the active attribute with the
// lowest tolerance while that tolerance is below minTolerance. Tolerances
// within ZeroTolerance of the minimum resolve to the later attribute.
func (c *fitContext) eliminateCollinear(ctx context.Context, r FitResult, minTolerance float64) (FitResult, error) {
	for {
		candidate, lowest := -1, 0.0
		for _, j := range activeIndices(r.Mask) {
			tol, err := c.tolerance(ctx, r.Mask, j)
			if err != nil {
				return FitResult{}, err
			}
			if candidate < 0 || tol < lowest || errors.IsZero(tol-lowest) {
				candidate, lowest = j, tol
			}
		}
		if candidate < 0 || !(lowest < minTolerance) {
			return r, nil
		}

		c.logger.Debug("collinear attribute removed",
			log.PhaseKey, log.PhaseCollinearity,
			log.AttributeNameKey, c.ds.Attribute(candidate).Name,
			log.ToleranceKey, lowest,
		)
		mask := cloneMask(r.Mask)
		mask[candidate] = false
		var err error
		if r, err = c.fit(ctx, mask); err != nil {
			return FitResult{}, err
		}
	}
}

// FitMatrix fits an n×p matrix X against an n×1 label y.
func (lr *LinearRegression) FitMatrix(ctx context.Context, X, y mat.Matrix) (*Model, error) {
	if err := lr.Validate(); err != nil {
		return nil, err
	}
	ds, err := dataset.FromMatrix(X, y, "")
	if err != nil {
		return nil, err
	}
	return lr.Fit(ctx, ds)
}

// Model returns the model of the last successful Fit.
func (lr *LinearRegression) Model() (*Model, error) {
	if err := lr.state.RequireFitted(modelType, "Model"); err != nil {
		return nil, err
	}
	return lr.model, nil
}

// GetParams returns the fitter configuration.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	params := map[string]interface{}{
		"use_bias":                    lr.useBias,
		"ridge":                       lr.ridge,
		"eliminate_colinear_features": lr.eliminateCollinear,
		"min_tolerance":               lr.minTolerance,
		"parallel_threshold":          lr.parallelThreshold,
	}
	if lr.selection != nil {
		params["selection.method"] = lr.selection.Name()
		for k, v := range lr.selection.Params() {
			params["selection."+k] = v
		}
	}
	return params
}

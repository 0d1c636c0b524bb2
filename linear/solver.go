package linear

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/core/parallel"
	"github.com/YuminosukeSato/stepreg/performance"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
	"github.com/YuminosukeSato/stepreg/pkg/log"
)

const (
	// maxRidgeAttempts bounds the ridge escalation before the SVD fallback.
	maxRidgeAttempts = 8
	// minEscalationRidge is the smallest ridge tried once escalation starts.
	minEscalationRidge = 1e-8
	// svdRankTolerance is the relative singular value cutoff of the fallback.
	svdRankTolerance = 1e-12
)

// solver solves the weighted, ridge-regularised, centred normal equations
// for a subset of attributes.
type solver struct {
	ds                dataset.ExampleSet
	parallelThreshold int
	logger            log.Logger
	// design matrices are recycled across trial fits
	pool *performance.MatrixPool

	// lazily computed weighted attribute means for regressOn
	means    []float64
	hasMeans []bool
}

func newSolver(ds dataset.ExampleSet, parallelThreshold int, logger log.Logger) *solver {
	return &solver{
		ds:                ds,
		parallelThreshold: parallelThreshold,
		logger:            logger,
		pool:              performance.NewMatrixPool(),
		means:             make([]float64, ds.NumAttributes()),
		hasMeans:          make([]bool, ds.NumAttributes()),
	}
}

// regress fits the label on the attributes active in mask, centring by the
// supplied per-attribute means and label mean. The result has one
// coefficient per active attribute followed by the intercept.
func (s *solver) regress(ctx context.Context, mask []bool, means []float64, labelMean, ridge float64) ([]float64, error) {
	cols := activeIndices(mask)
	colMeans := make([]float64, len(cols))
	for c, j := range cols {
		colMeans[c] = means[j]
	}
	return s.solve(ctx, cols, s.ds.LabelValue, colMeans, labelMean, ridge)
}

// regressOn fits attribute target on attrs, with centring statistics
// computed for that subset. centred=false uses zero means.
func (s *solver) regressOn(ctx context.Context, attrs []int, target int, ridge float64, centred bool) ([]float64, error) {
	colMeans := make([]float64, len(attrs))
	var targetMean float64
	if centred {
		for c, j := range attrs {
			colMeans[c] = s.attributeMean(j)
		}
		targetMean = s.attributeMean(target)
	}
	return s.solve(ctx, attrs, func(i int) float64 { return s.ds.Value(i, target) }, colMeans, targetMean, ridge)
}

func (s *solver) attributeMean(j int) float64 {
	if !s.hasMeans[j] {
		s.means[j] = s.ds.AttributeStats(j).Mean
		s.hasMeans[j] = true
	}
	return s.means[j]
}

func (s *solver) solve(ctx context.Context, cols []int, target func(i int) float64, colMeans []float64, targetMean, ridge float64) ([]float64, error) {
	k := len(cols)
	if k == 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "solver")
		}
		return []float64{targetMean}, nil
	}

	n := s.ds.NumExamples()
	design := s.pool.Get(n, k)
	defer design.Release()
	A := design.Dense()
	b := mat.NewVecDense(n, nil)
	err := parallel.ForEachRow(ctx, n, s.parallelThreshold, func(i int) error {
		sw := math.Sqrt(s.ds.Weight(i))
		row := A.RawRowView(i)
		for c, j := range cols {
			row[c] = sw * (s.ds.Value(i, j) - colMeans[c])
		}
		b.SetVec(i, sw*(target(i)-targetMean))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "solver: design matrix")
	}

	gram := mat.NewSymDense(k, nil)
	gram.SymOuterK(1, A.T())
	var xty mat.VecDense
	xty.MulVec(A.T(), b)

	beta, err := s.solveNormal(gram, &xty, ridge)
	if err != nil {
		return nil, err
	}

	coefficients := make([]float64, k+1)
	intercept := targetMean
	for c := range cols {
		coefficients[c] = beta[c]
		intercept -= beta[c] * colMeans[c]
	}
	coefficients[k] = intercept
	return coefficients, nil
}

// solveNormal solves (gram + ridge·I)·β = xty. If the system is not
// positive definite or is ill-conditioned the ridge is escalated by
// factors of ten; after maxRidgeAttempts the minimum-norm SVD solution of
// the original system is returned.
func (s *solver) solveNormal(gram *mat.SymDense, xty *mat.VecDense, ridge float64) ([]float64, error) {
	k := gram.SymmetricDim()
	sys := mat.NewSymDense(k, nil)
	r := ridge
	for attempt := 0; attempt <= maxRidgeAttempts; attempt++ {
		if attempt > 0 {
			r = math.Max(r*10, minEscalationRidge)
		}
		sys.CopySym(gram)
		for j := 0; j < k; j++ {
			sys.SetSym(j, j, gram.At(j, j)+r)
		}
		var chol mat.Cholesky
		if chol.Factorize(sys) {
			var beta mat.VecDense
			if err := chol.SolveVecTo(&beta, xty); err == nil {
				out := mat.Col(nil, 0, &beta)
				if errors.CheckNumericalStability("solver.cholesky", out, attempt) == nil {
					if attempt > 0 {
						s.logger.Debug("ridge escalated", log.RidgeKey, r, log.AttemptKey, attempt)
					}
					return out, nil
				}
			}
		}
	}

	s.logger.Debug("normal equations singular, using SVD minimum-norm solution", log.RidgeKey, ridge)
	sys.CopySym(gram)
	for j := 0; j < k; j++ {
		sys.SetSym(j, j, gram.At(j, j)+ridge)
	}
	var svd mat.SVD
	if !svd.Factorize(sys, mat.SVDThin) {
		return nil, errors.NewModelError("solver", "SVD factorization failed", errors.ErrSingularMatrix)
	}
	rank := svd.Rank(svdRankTolerance)
	if rank == 0 {
		return make([]float64, k), nil
	}
	var beta mat.VecDense
	svd.SolveVecTo(&beta, xty, rank)
	out := mat.Col(nil, 0, &beta)
	if err := errors.CheckNumericalStability("solver.svd", out, 0); err != nil {
		return nil, errors.NewModelError("solver", "non-finite solution", err)
	}
	return out, nil
}

package linear

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// sparseTarget は最初の 3 属性のみがラベルに寄与するデータ
func sparseTarget(x []float64) float64 {
	return 4*x[0] - 3*x[1] + 0.8*x[2]
}

func TestNoneReturnsBaseline(t *testing.T) {
	ds := synthetic(t, 80, 4, 20, 0.3, sparseTarget)
	c, mask := newTestContext(t, ds)
	ctx := context.Background()

	baseline, err := c.fit(ctx, mask)
	require.NoError(t, err)
	got, err := None{}.apply(ctx, c, baseline)
	require.NoError(t, err)

	assert.Equal(t, baseline, got)
	got.Mask[0] = !got.Mask[0]
	assert.NotEqual(t, baseline.Mask[0], got.Mask[0], "result must not alias the baseline mask")
}

func TestBackwardSelectionMonotonic(t *testing.T) {
	for _, sel := range []Selection{Akaike{}, Greedy{}} {
		t.Run(sel.Name(), func(t *testing.T) {
			ds := synthetic(t, 200, 8, 21, 0.5, sparseTarget)
			var steps []FitResult
			lr := NewLinearRegression(WithRidge(0), WithoutCollinearityElimination(),
				WithSelection(sel), WithLogger(quietLogger()))
			lr.onStep = func(_ int, r FitResult) { steps = append(steps, r) }

			c, mask, err := lr.prepare(context.Background(), ds, lr.logger)
			require.NoError(t, err)
			baseline, err := c.fit(context.Background(), mask)
			require.NoError(t, err)

			m, err := lr.Fit(context.Background(), ds)
			require.NoError(t, err)

			require.NotEmpty(t, steps, "noise attributes should be removed")
			assert.LessOrEqual(t, len(steps), baseline.NumActive())
			prev := baseline
			for _, s := range steps {
				assert.Equal(t, prev.NumActive()-1, s.NumActive())
				assert.GreaterOrEqual(t, s.SquaredError, prev.SquaredError*(1-1e-12))
				prev = s
			}
			assert.Equal(t, prev.Mask, m.Mask)
			for j := 0; j < 3; j++ {
				assert.True(t, m.Mask[j], "signal attribute %d removed", j)
			}
		})
	}
}

func TestAkaikeCriterion(t *testing.T) {
	assert.Equal(t, baselineCriterion(100, 4), akaikeCriterion(5, 5, 100, 4, 4))
	assert.Equal(t, 6.0, akaikeCriterion(0, 0, 100, 4, 3))
	assert.True(t, math.IsInf(akaikeCriterion(1, 0, 100, 4, 3), 1))
	assert.InDelta(t, 1.5*96+6, akaikeCriterion(7.5, 5, 100, 4, 3), 1e-12)
}

func TestSmallestStandardizedTakesFirstOnTie(t *testing.T) {
	c := &fitContext{stdDevs: []float64{2, 1, 4, 1}, labelStdDev: 2}
	r := FitResult{
		Mask:         []bool{true, false, true, true},
		Coefficients: []float64{0.5, 0.25, -1, 3},
	}
	// |0.5·2| = |0.25·4| = |-1·1| = 1
	assert.Equal(t, 0, c.smallestStandardized(r))

	r.Coefficients = []float64{0.5, 0.1, -1, 3}
	assert.Equal(t, 2, c.smallestStandardized(r))
}

func TestAkaikeIndependentOfLabelUnits(t *testing.T) {
	base := synthetic(t, 120, 3, 61, 0.5, func(x []float64) float64 { return 3 * x[0] })
	fit := func(ds *dataset.Dataset) *Model {
		m, err := NewLinearRegression(WithSelection(Akaike{}), WithLogger(quietLogger())).
			Fit(context.Background(), ds)
		require.NoError(t, err)
		return m
	}

	want := fit(base)
	require.True(t, want.Mask[0])
	for _, s := range []float64{1e-11, 1e9} {
		got := fit(scaleLabels(t, base, s))
		assert.Equal(t, want.Mask, got.Mask, "scale %g", s)
		assert.InEpsilon(t, s*want.Coefficients[0], got.Coefficients[0], 1e-6, "scale %g", s)
	}
}

func TestTTestIndependentOfLabelUnits(t *testing.T) {
	base := synthetic(t, 100, 2, 62, 0.1, func(x []float64) float64 { return 3 * x[0] })
	fit := func(ds *dataset.Dataset) *Model {
		m, err := NewLinearRegression(WithSelection(TTest{Alpha: 0.05}), WithLogger(quietLogger())).
			Fit(context.Background(), ds)
		require.NoError(t, err)
		return m
	}

	want := fit(base)
	got := fit(scaleLabels(t, base, 1e-12))
	assert.Equal(t, want.Mask, got.Mask)
	require.True(t, got.Mask[0])
	require.NotEmpty(t, got.Report.Coefficients)

	x1 := got.Report.Coefficients[0]
	assert.Less(t, x1.PValue, 1e-6)
	assert.False(t, math.IsInf(x1.TStatistic, 0))
	assert.InEpsilon(t, want.Report.Coefficients[0].TStatistic, x1.TStatistic, 1e-6)
	assert.InEpsilon(t, want.Report.Coefficients[0].StandardizedCoefficient, x1.StandardizedCoefficient, 1e-6)
}

func TestTTestDropsNoiseAttribute(t *testing.T) {
	const trials = 60
	dropped := 0
	for seed := uint64(0); seed < trials; seed++ {
		ds := synthetic(t, 100, 1, 1000+seed, 1, func([]float64) float64 { return 0 })
		lr := NewLinearRegression(WithSelection(TTest{Alpha: 0.05}),
			WithoutCollinearityElimination(), WithLogger(quietLogger()))
		m, err := lr.Fit(context.Background(), ds)
		require.NoError(t, err)
		if !m.Mask[0] {
			dropped++
		}
	}
	assert.GreaterOrEqual(t, float64(dropped)/trials, 0.8)
}

func TestTTestKeepsSignal(t *testing.T) {
	ds := synthetic(t, 150, 3, 23, 0.2, func(x []float64) float64 { return 5 * x[0] })
	m, err := NewLinearRegression(WithSelection(TTest{Alpha: 0.05}), WithLogger(quietLogger())).
		Fit(context.Background(), ds)
	require.NoError(t, err)
	assert.True(t, m.Mask[0])
	assert.Less(t, m.Report.Coefficients[0].PValue, 1e-6)
}

func TestTTestUndefinedDistributionDeactivates(t *testing.T) {
	// n = 3, k = 2 なので自由度は 0
	ds := mustDataset(t, [][]float64{{0, 1}, {1, 0}, {2, 2}}, []float64{1, 2, 4}, "a", "b")
	c, mask := newTestContext(t, ds)
	baseline, err := c.fit(context.Background(), mask)
	require.NoError(t, err)

	r, err := TTest{Alpha: 0.05}.apply(context.Background(), c, baseline)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, r.Mask)
	assert.Len(t, r.Coefficients, 1)
}

func TestIterativeTTestSingleRound(t *testing.T) {
	ds := synthetic(t, 120, 5, 24, 0.5, sparseTarget)
	c, mask := newTestContext(t, ds)
	ctx := context.Background()
	baseline, err := c.fit(ctx, mask)
	require.NoError(t, err)

	got, err := IterativeTTest{MaxIterations: 1, AlphaForward: 0.05, AlphaBackward: 0.05}.apply(ctx, c, baseline)
	require.NoError(t, err)

	// 前進ステップと後退ステップを手動で一度ずつ実行する
	empty, err := c.fit(ctx, make([]bool, len(mask)))
	require.NoError(t, err)
	next := cloneMask(empty.Mask)
	for j := range mask {
		trial := cloneMask(empty.Mask)
		trial[j] = true
		r, err := c.fit(ctx, trial)
		require.NoError(t, err)
		p, err := c.pValue(ctx, r, j)
		require.NoError(t, err)
		if p <= 0.05 {
			next[j] = true
		}
	}
	expanded, err := c.fit(ctx, next)
	require.NoError(t, err)
	want, err := c.backwardTTest(ctx, expanded, 0.05)
	require.NoError(t, err)

	assert.Equal(t, want.Mask, got.Mask)
	assert.Equal(t, want.Coefficients, got.Coefficients)
}

func TestIterativeTTestFixedPoint(t *testing.T) {
	ds := synthetic(t, 150, 6, 25, 0.5, sparseTarget)
	c, mask := newTestContext(t, ds)
	ctx := context.Background()
	baseline, err := c.fit(ctx, mask)
	require.NoError(t, err)

	s := IterativeTTest{MaxIterations: 50, AlphaForward: 0.05, AlphaBackward: 0.05}
	first, err := s.apply(ctx, c, baseline)
	require.NoError(t, err)
	second, err := s.iterate(ctx, c, first, baseline.Mask)
	require.NoError(t, err)

	assert.Equal(t, first.Mask, second.Mask)
	assert.Equal(t, first.Coefficients, second.Coefficients)
	assert.True(t, first.Mask[0])
	assert.True(t, first.Mask[1])
}

func TestIterativeTTestRespectsAllowedMask(t *testing.T) {
	ds := synthetic(t, 100, 3, 26, 0.2, sparseTarget)
	c, _ := newTestContext(t, ds)
	ctx := context.Background()
	baseline, err := c.fit(ctx, []bool{false, true, true})
	require.NoError(t, err)

	r, err := IterativeTTest{MaxIterations: 10, AlphaForward: 0.05, AlphaBackward: 0.05}.apply(ctx, c, baseline)
	require.NoError(t, err)
	assert.False(t, r.Mask[0])
}

func TestIterativeTTestWarnsWithoutConvergence(t *testing.T) {
	var warnings []error
	errors.SetZerologWarnFunc(func(w error) { warnings = append(warnings, w) })
	defer errors.SetZerologWarnFunc(nil)

	ds := synthetic(t, 100, 2, 27, 0.1, func(x []float64) float64 { return 3 * x[0] })
	_, err := NewLinearRegression(
		WithSelection(IterativeTTest{MaxIterations: 1, AlphaForward: 0.05, AlphaBackward: 0.05}),
		WithLogger(quietLogger()),
	).Fit(context.Background(), ds)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, 1, cw.Iterations)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]float64
		want   Selection
	}{
		{"none", nil, None{}},
		{"Akaike", nil, Akaike{}},
		{"M5 Prime", nil, Akaike{}},
		{"m5prime", nil, Akaike{}},
		{" greedy ", nil, Greedy{}},
		{"t-test", nil, TTest{Alpha: 0.05}},
		{"TTest", map[string]float64{"alpha": 0.01}, TTest{Alpha: 0.01}},
		{"iterative-t-test", nil, IterativeTTest{MaxIterations: 10, AlphaForward: 0.05, AlphaBackward: 0.05}},
		{"Iterative T-Test", map[string]float64{"max_iterations": 3, "alpha_backward": 0.1}, IterativeTTest{MaxIterations: 3, AlphaForward: 0.05, AlphaBackward: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelection(tt.name, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestParseSelectionErrors(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		params  map[string]float64
		unknown bool
	}{
		{"unknown method", "lasso", nil, true},
		{"unknown parameter", "akaike", map[string]float64{"alpha": 0.05}, false},
		{"alpha zero", "t-test", map[string]float64{"alpha": 0}, false},
		{"alpha one", "t-test", map[string]float64{"alpha": 1}, false},
		{"alpha NaN", "t-test", map[string]float64{"alpha": math.NaN()}, false},
		{"fractional iterations", "iterative-t-test", map[string]float64{"max_iterations": 2.5}, false},
		{"zero iterations", "iterative-t-test", map[string]float64{"max_iterations": 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSelection(tt.method, tt.params)
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
			assert.Equal(t, tt.unknown, errors.Is(err, errors.ErrUnknownSelection))
		})
	}
}

func TestSelectionSchema(t *testing.T) {
	schema, err := SelectionSchema("iterative t-test")
	require.NoError(t, err)
	require.Len(t, schema, 3)
	assert.Equal(t, paramMaxIterations, schema[0].Name)
	assert.Equal(t, ParamInt, schema[0].Kind)

	schema, err = SelectionSchema("none")
	require.NoError(t, err)
	assert.Empty(t, schema)
}

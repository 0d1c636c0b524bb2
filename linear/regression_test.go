package linear

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
	"github.com/YuminosukeSato/stepreg/pkg/log"
)

func TestFitRecoversCoefficients(t *testing.T) {
	ds := synthetic(t, 100, 2, 1, 0.01, func(x []float64) float64 { return 3*x[0] - 2*x[1] })

	lr := NewLinearRegression(WithRidge(0), WithSelection(None{}), WithLogger(quietLogger()))
	m, err := lr.Fit(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true}, m.Mask)
	assert.InDelta(t, 3, m.Coefficients[0], 1e-2)
	assert.InDelta(t, -2, m.Coefficients[1], 1e-2)
	assert.InDelta(t, 0, m.Intercept(), 1e-2)

	expected := 100 * 0.01 * 0.01
	assert.Greater(t, m.SquaredError, expected/10)
	assert.Less(t, m.SquaredError, expected*10)

	got, err := lr.Model()
	require.NoError(t, err)
	assert.Same(t, m, got)
}

func TestFitRemovesCollinearAttribute(t *testing.T) {
	base := synthetic(t, 100, 1, 2, 0.01, func(x []float64) float64 { return 0 })
	rows := make([][]float64, base.NumExamples())
	labels := make([]float64, base.NumExamples())
	x1 := base.Column(0)
	noise := base.Labels()
	for i := range rows {
		rows[i] = []float64{x1[i], 5 * x1[i]}
		labels[i] = 3*rows[i][0] - 2*rows[i][1] + noise[i]
	}
	ds, err := dataset.New(
		[]dataset.Attribute{dataset.NumericAttribute("x1"), dataset.NumericAttribute("x2")},
		dataset.NumericAttribute("y"), rows, labels)
	require.NoError(t, err)

	lr := NewLinearRegression(
		WithRidge(0),
		WithCollinearityElimination(0.01),
		WithSelection(None{}),
		WithLogger(quietLogger()),
	)
	m, err := lr.Fit(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, m.Mask)
	slope, intercept := simpleOLS(x1, labels)
	assert.InDelta(t, slope, m.Coefficients[0], 1e-8)
	assert.InDelta(t, intercept, m.Intercept(), 1e-8)
	assert.InDelta(t, -7, m.Coefficients[0], 1e-2)
}

func TestFitRidgeLimit(t *testing.T) {
	ds := synthetic(t, 200, 2, 3, 1e-9, func(x []float64) float64 { return 2*x[0] - 3*x[1] + 1 })

	lr := NewLinearRegression(WithRidge(1e-10), WithoutCollinearityElimination(),
		WithSelection(None{}), WithLogger(quietLogger()))
	m, err := lr.Fit(context.Background(), ds)
	require.NoError(t, err)

	assert.InDelta(t, 2, m.Coefficients[0], 1e-6)
	assert.InDelta(t, -3, m.Coefficients[1], 1e-6)
	assert.InDelta(t, 1, m.Intercept(), 1e-6)
}

func TestFitWithoutBias(t *testing.T) {
	ds := synthetic(t, 150, 2, 4, 0.01, func(x []float64) float64 { return 1.5*x[0] + 0.5*x[1] })

	lr := NewLinearRegression(WithBias(false), WithSelection(None{}), WithLogger(quietLogger()))
	m, err := lr.Fit(context.Background(), ds)
	require.NoError(t, err)

	assert.InDelta(t, 0, m.Intercept(), 1e-12)
	assert.InDelta(t, 1.5, m.Coefficients[0], 1e-2)
	assert.InDelta(t, 0.5, m.Coefficients[1], 1e-2)
	assert.False(t, m.UseBias)
}

func TestFitMasksNominalAndConstantAttributes(t *testing.T) {
	rows := [][]float64{
		{0.1, 0, 7}, {0.5, 1, 7}, {0.9, 0, 7}, {1.3, 1, 7}, {1.7, 0, 7}, {2.2, 1, 7},
	}
	labels := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = 2*r[0] + 1
	}
	ds, err := dataset.New([]dataset.Attribute{
		dataset.NumericAttribute("x"),
		dataset.NominalAttribute("colour", "red", "blue"),
		dataset.NumericAttribute("constant"),
	}, dataset.NumericAttribute("y"), rows, labels)
	require.NoError(t, err)

	m, err := NewLinearRegression(WithSelection(None{}), WithLogger(quietLogger())).Fit(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false, false}, m.Mask)
	assert.InDelta(t, 2, m.Coefficients[0], 1e-6)
	w := m.Weights()
	assert.Len(t, w, 3)
	assert.Zero(t, w["colour"])
	assert.Zero(t, w["constant"])
}

func TestFitWeightsEqualDuplication(t *testing.T) {
	ds := synthetic(t, 40, 2, 5, 0.1, func(x []float64) float64 { return x[0] - x[1] })
	weights := make([]float64, ds.NumExamples())
	rows := make([][]float64, 0, 2*ds.NumExamples())
	labels := make([]float64, 0, 2*ds.NumExamples())
	for i := range weights {
		weights[i] = 1
		rows = append(rows, ds.Row(i))
		labels = append(labels, ds.LabelValue(i))
		if i%2 == 0 {
			weights[i] = 2
			rows = append(rows, ds.Row(i))
			labels = append(labels, ds.LabelValue(i))
		}
	}
	require.NoError(t, ds.SetWeights(weights))
	dup, err := dataset.New([]dataset.Attribute{ds.Attribute(0), ds.Attribute(1)}, ds.Label(), rows, labels)
	require.NoError(t, err)

	lr := NewLinearRegression(WithRidge(0), WithSelection(None{}), WithLogger(quietLogger()))
	weighted, err := lr.Fit(context.Background(), ds)
	require.NoError(t, err)
	duplicated, err := lr.Fit(context.Background(), dup)
	require.NoError(t, err)

	require.Len(t, weighted.Coefficients, 3)
	for k := range weighted.Coefficients {
		assert.InDelta(t, duplicated.Coefficients[k], weighted.Coefficients[k], 1e-9)
	}
}

func TestFitBinominalLabel(t *testing.T) {
	ds := synthetic(t, 120, 1, 6, 0, func(x []float64) float64 { return 0 })
	labels := make([]float64, ds.NumExamples())
	for i := range labels {
		if ds.Value(i, 0) > 0 {
			labels[i] = 1
		}
	}
	rows := make([][]float64, ds.NumExamples())
	for i := range rows {
		rows[i] = ds.Row(i)
	}
	nominal, err := dataset.New([]dataset.Attribute{ds.Attribute(0)},
		dataset.NominalAttribute("outcome", "no", "yes"), rows, labels)
	require.NoError(t, err)

	m, err := NewLinearRegression(WithSelection(None{}), WithLogger(quietLogger())).Fit(context.Background(), nominal)
	require.NoError(t, err)

	assert.Equal(t, []string{"no", "yes"}, m.Classes())
	assert.Equal(t, dataset.Nominal, nominal.Label().Kind, "label of the input must be left untouched")

	class, conf, err := m.PredictClass([]float64{0.9})
	require.NoError(t, err)
	assert.Equal(t, "yes", class)
	assert.GreaterOrEqual(t, conf, 0.5)
	assert.LessOrEqual(t, conf, 1.0)

	class, conf, err = m.PredictClass([]float64{-0.9})
	require.NoError(t, err)
	assert.Equal(t, "no", class)
	assert.GreaterOrEqual(t, conf, 0.5)
}

func TestFitRejectsUnsupportedLabel(t *testing.T) {
	ds, err := dataset.New([]dataset.Attribute{dataset.NumericAttribute("x")},
		dataset.NominalAttribute("grade", "a", "b", "c"),
		[][]float64{{1}, {2}, {3}}, []float64{0, 1, 2})
	require.NoError(t, err)

	_, err = NewLinearRegression(WithLogger(quietLogger())).Fit(context.Background(), ds)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedLabel))
}

func TestFitConfigurationErrorsBeforeDataPass(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"negative ridge", []Option{WithRidge(-1)}},
		{"tolerance above one", []Option{WithCollinearityElimination(1.5)}},
		{"alpha out of range", []Option{WithSelection(TTest{Alpha: 1})}},
		{"zero iterations", []Option{WithSelection(IterativeTTest{MaxIterations: 0, AlphaForward: 0.05, AlphaBackward: 0.05})}},
		{"missing selection", []Option{WithSelection(nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &countingSet{ExampleSet: synthetic(t, 10, 2, 7, 0.1, func(x []float64) float64 { return x[0] })}
			lr := NewLinearRegression(append(tt.opts, WithLogger(quietLogger()))...)

			_, err := lr.Fit(context.Background(), ds)
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err), "got %v", err)
			assert.Zero(t, ds.reads.Load())

			_, err = lr.Model()
			var nf *errors.NotFittedError
			assert.True(t, errors.As(err, &nf))
		})
	}
}

func TestFitEmptyData(t *testing.T) {
	_, err := NewLinearRegression(WithLogger(quietLogger())).Fit(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestFitCancellation(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ds := synthetic(t, 50, 3, 8, 0.1, func(x []float64) float64 { return x[0] })

		_, err := NewLinearRegression(WithLogger(quietLogger())).Fit(ctx, ds)
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	})

	for _, sel := range []Selection{Akaike{}, Greedy{}, TTest{Alpha: 0.05}, IterativeTTest{MaxIterations: 10, AlphaForward: 0.05, AlphaBackward: 0.05}} {
		t.Run("during "+sel.Name(), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			ds := &countingSet{
				ExampleSet: synthetic(t, 200, 4, 9, 0.5, func(x []float64) float64 { return x[0] + 0.01*x[1] }),
				limit:      3000,
				cancel:     cancel,
			}
			lr := NewLinearRegression(WithSelection(sel), WithoutCollinearityElimination(), WithLogger(quietLogger()))

			m, err := lr.Fit(ctx, ds)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
			_, err = lr.Model()
			assert.Error(t, err)
		})
	}
}

func TestFitCancellationDuringCollinearityElimination(t *testing.T) {
	base := synthetic(t, 200, 4, 64, 0.5, func(x []float64) float64 { return x[0] + 0.01*x[1] })

	t.Run("fit", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		// 全データでの当てはめは 200·4 回の読み出し 2 回分なので、取り消しは許容度の計算中に起きる
		ds := &countingSet{ExampleSet: base, limit: 1700, cancel: cancel}
		lr := NewLinearRegression(WithSelection(None{}), WithLogger(quietLogger()))

		m, err := lr.Fit(ctx, ds)
		assert.Nil(t, m)
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
		reads := ds.reads.Load()
		assert.GreaterOrEqual(t, reads, int64(1700))
		assert.Less(t, reads, int64(1710), "rows after the cancellation must not be read")
	})

	t.Run("pass", func(t *testing.T) {
		c, mask := newTestContext(t, base)
		full, err := c.fit(context.Background(), mask)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = c.eliminateCollinear(ctx, full, defaultMinTolerance)
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	})
}

func TestFitConstantLabel(t *testing.T) {
	base := synthetic(t, 80, 2, 65, 0, func([]float64) float64 { return 0.3 })
	m, err := NewLinearRegression(WithSelection(TTest{Alpha: 0.05}), WithLogger(quietLogger())).
		Fit(context.Background(), base)
	require.NoError(t, err)

	assert.Equal(t, []bool{false, false}, m.Mask)
	assert.InDelta(t, 0.3, m.Intercept(), 1e-12)
}

func TestFitLogsRun(t *testing.T) {
	tl, _ := log.NewTestLogger(log.LevelInfo)
	ds := synthetic(t, 30, 2, 10, 0.1, func(x []float64) float64 { return x[0] })

	_, err := NewLinearRegression(WithLogger(tl)).Fit(context.Background(), ds)
	require.NoError(t, err)

	assert.True(t, tl.ContainsMessage("Training started"))
	assert.True(t, tl.ContainsMessage("Training completed"))
	assert.True(t, tl.ContainsField(log.SelectionMethodKey, SelectionAkaike))
	assert.True(t, tl.ContainsField(log.SamplesKey, 30.0))

	entries := tl.EntriesWithMessage("Training started")
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0][log.RunIDKey])
}

func TestFitMatrix(t *testing.T) {
	ds := synthetic(t, 60, 2, 11, 0.01, func(x []float64) float64 { return x[0] + 2*x[1] + 3 })
	lr := NewLinearRegression(WithSelection(None{}), WithLogger(quietLogger()))

	X, y := toMatrices(ds)
	m, err := lr.FitMatrix(context.Background(), X, y)
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "x2"}, m.Attributes)
	assert.InDelta(t, 3, m.Intercept(), 1e-2)
}

func TestGetParams(t *testing.T) {
	lr := NewLinearRegression(WithRidge(0.5), WithSelection(TTest{Alpha: 0.1}), WithLogger(quietLogger()))
	params := lr.GetParams()
	assert.Equal(t, 0.5, params["ridge"])
	assert.Equal(t, SelectionTTest, params["selection.method"])
	assert.Equal(t, 0.1, params["selection.alpha"])
	assert.Equal(t, true, params["use_bias"])
}

func TestEliminateCollinearTieTakesLaterAttribute(t *testing.T) {
	base := synthetic(t, 50, 1, 12, 0, func(x []float64) float64 { return 0 })
	rows := make([][]float64, base.NumExamples())
	labels := make([]float64, base.NumExamples())
	for i := range rows {
		x := base.Value(i, 0)
		rows[i] = []float64{x, -x, 0.3 * x}
		labels[i] = x + math.Sin(float64(i))
	}
	ds, err := dataset.New([]dataset.Attribute{
		dataset.NumericAttribute("a"), dataset.NumericAttribute("b"), dataset.NumericAttribute("c"),
	}, dataset.NumericAttribute("y"), rows, labels)
	require.NoError(t, err)

	c, mask := newTestContext(t, ds)
	full, err := c.fit(context.Background(), mask)
	require.NoError(t, err)
	r, err := c.eliminateCollinear(context.Background(), full, 0.01)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, r.Mask)
}

package linear

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/pkg/log"
)

// synthetic は [-1, 1) の一様乱数で p 個の属性を生成し、ラベルを f(x) + N(0, noise²) とする
func synthetic(t testing.TB, n, p int, seed uint64, noise float64, f func(x []float64) float64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	attrs := make([]dataset.Attribute, p)
	for j := range attrs {
		attrs[j] = dataset.NumericAttribute("x" + string(rune('1'+j)))
	}
	rows := make([][]float64, n)
	labels := make([]float64, n)
	for i := range rows {
		rows[i] = make([]float64, p)
		for j := range rows[i] {
			rows[i][j] = rng.Float64()*2 - 1
		}
		labels[i] = f(rows[i]) + rng.NormFloat64()*noise
	}
	ds, err := dataset.New(attrs, dataset.NumericAttribute("y"), rows, labels)
	require.NoError(t, err)
	return ds
}

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelError)
	return l
}

// newTestContext builds the fit context Fit would use for ds.
func newTestContext(t testing.TB, ds dataset.ExampleSet, opts ...Option) (*fitContext, []bool) {
	t.Helper()
	lr := NewLinearRegression(append([]Option{WithLogger(quietLogger())}, opts...)...)
	c, mask, err := lr.prepare(context.Background(), ds, lr.logger)
	require.NoError(t, err)
	return c, mask
}

// countingSet counts attribute reads and cancels its context after limit reads.
type countingSet struct {
	dataset.ExampleSet
	reads  atomic.Int64
	limit  int64
	cancel context.CancelFunc
}

func (s *countingSet) Value(i, j int) float64 {
	if n := s.reads.Add(1); s.cancel != nil && n == s.limit {
		s.cancel()
	}
	return s.ExampleSet.Value(i, j)
}

// simpleOLS returns slope and intercept of y on x.
func simpleOLS(x, y []float64) (slope, intercept float64) {
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(len(x))
	my /= float64(len(y))
	var sxy, sxx float64
	for i := range x {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
	}
	slope = sxy / sxx
	return slope, my - slope*mx
}

func toMatrices(ds *dataset.Dataset) (*mat.Dense, *mat.Dense) {
	n, p := ds.NumExamples(), ds.NumAttributes()
	X := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		X.SetRow(i, ds.Row(i))
	}
	return X, mat.NewDense(n, 1, ds.Labels())
}

func mustDataset(t testing.TB, rows [][]float64, labels []float64, names ...string) *dataset.Dataset {
	t.Helper()
	attrs := make([]dataset.Attribute, len(names))
	for j, name := range names {
		attrs[j] = dataset.NumericAttribute(name)
	}
	ds, err := dataset.New(attrs, dataset.NumericAttribute("y"), rows, labels)
	require.NoError(t, err)
	return ds
}

func symFromRows(rows [][]float64) *mat.SymDense {
	n := len(rows)
	s := mat.NewSymDense(n, nil)
	for i := range rows {
		for j := i; j < n; j++ {
			s.SetSym(i, j, rows[i][j])
		}
	}
	return s
}

func vec(v ...float64) *mat.VecDense {
	return mat.NewVecDense(len(v), v)
}

// scaleLabels returns a copy of ds with every label multiplied by s.
func scaleLabels(t testing.TB, ds *dataset.Dataset, s float64) *dataset.Dataset {
	t.Helper()
	rows := make([][]float64, ds.NumExamples())
	labels := make([]float64, ds.NumExamples())
	for i := range rows {
		rows[i] = ds.Row(i)
		labels[i] = s * ds.LabelValue(i)
	}
	attrs := make([]dataset.Attribute, ds.NumAttributes())
	for j := range attrs {
		attrs[j] = ds.Attribute(j)
	}
	scaled, err := dataset.New(attrs, ds.Label(), rows, labels)
	require.NoError(t, err)
	return scaled
}

// Package dataset provides the example table consumed by the regression
// engine: attribute metadata, per-example values, an optional weight per
// example and weighted column statistics.
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// ExampleSet is the read-only view of a table the fitter works on.
// Column indices refer to predictor attributes; the label is separate.
type ExampleSet interface {
	NumExamples() int
	NumAttributes() int
	Attribute(j int) Attribute
	Label() Attribute
	Value(i, j int) float64
	LabelValue(i int) float64
	// Weight returns the weight of example i, 1 for unweighted sets.
	Weight(i int) float64
	HasWeights() bool
	AttributeStats(j int) Stats
	LabelStats() Stats
}

// Dataset is an in-memory ExampleSet stored row-major.
type Dataset struct {
	attrs   []Attribute
	label   Attribute
	values  []float64
	labels  []float64
	weights []float64
}

// New builds a Dataset from rows of attribute values and the label column.
func New(attrs []Attribute, label Attribute, rows [][]float64, labels []float64) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.New")
	}
	if len(labels) != len(rows) {
		return nil, errors.NewDimensionError("dataset.New", len(rows), len(labels), 0)
	}
	p := len(attrs)
	values := make([]float64, 0, len(rows)*p)
	for i, row := range rows {
		if len(row) != p {
			return nil, errors.Wrapf(errors.NewDimensionError("dataset.New", p, len(row), 1), "row %d", i)
		}
		values = append(values, row...)
	}
	ds := &Dataset{
		attrs:  append([]Attribute(nil), attrs...),
		label:  label,
		values: values,
		labels: append([]float64(nil), labels...),
	}
	if err := ds.validateNominal(); err != nil {
		return nil, err
	}
	return ds, nil
}

// FromMatrix builds a numeric Dataset from an n×p matrix X and an n×1
// (or 1×n) label matrix y. names defaults to x1..xp; labelName to "label".
func FromMatrix(X, y mat.Matrix, labelName string, names ...string) (*Dataset, error) {
	n, p := X.Dims()
	yr, yc := y.Dims()
	var labels []float64
	switch {
	case yc == 1 && yr == n:
		labels = mat.Col(nil, 0, y)
	case yr == 1 && yc == n:
		labels = mat.Row(nil, 0, y)
	default:
		return nil, errors.NewDimensionError("dataset.FromMatrix", n, yr, 0)
	}
	if len(names) != 0 && len(names) != p {
		return nil, errors.NewDimensionError("dataset.FromMatrix", p, len(names), 1)
	}
	attrs := make([]Attribute, p)
	for j := range attrs {
		name := fmt.Sprintf("x%d", j+1)
		if len(names) != 0 {
			name = names[j]
		}
		attrs[j] = NumericAttribute(name)
	}
	if labelName == "" {
		labelName = "label"
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}
	return New(attrs, NumericAttribute(labelName), rows, labels)
}

// SetWeights attaches one weight per example. nil removes the weights.
func (d *Dataset) SetWeights(weights []float64) error {
	if weights == nil {
		d.weights = nil
		return nil
	}
	if len(weights) != len(d.labels) {
		return errors.NewDimensionError("Dataset.SetWeights", len(d.labels), len(weights), 0)
	}
	for i, w := range weights {
		if w < 0 {
			return errors.NewValidationError(fmt.Sprintf("weights[%d]", i), "must be non-negative", w)
		}
	}
	d.weights = append([]float64(nil), weights...)
	return nil
}

func (d *Dataset) validateNominal() error {
	check := func(a Attribute, get func(i int) float64) error {
		if a.Kind != Nominal {
			return nil
		}
		for i := 0; i < len(d.labels); i++ {
			v := get(i)
			if v != float64(int(v)) || v < 0 || int(v) >= len(a.Values) {
				return errors.NewValidationError(a.Name, "nominal value is not a category index", v)
			}
		}
		return nil
	}
	for j, a := range d.attrs {
		j := j
		if err := check(a, func(i int) float64 { return d.Value(i, j) }); err != nil {
			return err
		}
	}
	return check(d.label, d.LabelValue)
}

func (d *Dataset) NumExamples() int          { return len(d.labels) }
func (d *Dataset) NumAttributes() int        { return len(d.attrs) }
func (d *Dataset) Attribute(j int) Attribute { return d.attrs[j] }
func (d *Dataset) Label() Attribute          { return d.label }
func (d *Dataset) Value(i, j int) float64    { return d.values[i*len(d.attrs)+j] }
func (d *Dataset) LabelValue(i int) float64  { return d.labels[i] }
func (d *Dataset) HasWeights() bool          { return d.weights != nil }

func (d *Dataset) Weight(i int) float64 {
	if d.weights == nil {
		return 1
	}
	return d.weights[i]
}

// Row returns a copy of the attribute values of example i.
func (d *Dataset) Row(i int) []float64 {
	p := len(d.attrs)
	return append([]float64(nil), d.values[i*p:(i+1)*p]...)
}

// Column returns a copy of attribute j across all examples.
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.labels))
	for i := range col {
		col[i] = d.Value(i, j)
	}
	return col
}

// Labels returns a copy of the label column.
func (d *Dataset) Labels() []float64 {
	return append([]float64(nil), d.labels...)
}

func (d *Dataset) AttributeStats(j int) Stats {
	return WeightedStats(d.Column(j), d.weights)
}

func (d *Dataset) LabelStats() Stats {
	return WeightedStats(d.labels, d.weights)
}

// Weights returns the example weights, or nil.
func Weights(es ExampleSet) []float64 {
	if !es.HasWeights() {
		return nil
	}
	w := make([]float64, es.NumExamples())
	for i := range w {
		w[i] = es.Weight(i)
	}
	return w
}

// LabelColumn copies the label of every example.
func LabelColumn(es ExampleSet) []float64 {
	y := make([]float64, es.NumExamples())
	for i := range y {
		y[i] = es.LabelValue(i)
	}
	return y
}

package dataset

import "github.com/YuminosukeSato/stepreg/pkg/errors"

// labelView exposes an ExampleSet with its label replaced.
type labelView struct {
	ExampleSet
	label  Attribute
	values []float64
}

// WithLabel returns a view of es whose label is attr with the given values.
// The underlying set is not modified, so the replacement is never visible
// to other users of es.
func WithLabel(es ExampleSet, attr Attribute, values []float64) (ExampleSet, error) {
	if len(values) != es.NumExamples() {
		return nil, errors.NewDimensionError("dataset.WithLabel", es.NumExamples(), len(values), 0)
	}
	return &labelView{ExampleSet: es, label: attr, values: append([]float64(nil), values...)}, nil
}

func (v *labelView) Label() Attribute         { return v.label }
func (v *labelView) LabelValue(i int) float64 { return v.values[i] }
func (v *labelView) LabelStats() Stats        { return WeightedStats(v.values, Weights(v.ExampleSet)) }

package preprocessing

import (
	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// BinarizeLabel prepares the working label of ds.
//
// A numeric label is returned unchanged with nil class names. A two-class
// nominal label is replaced, in a view, by a numeric label holding 0 for
// the negative and 1 for the positive class; classes is then
// [negative, positive]. Other labels fail with ErrUnsupportedLabel.
func BinarizeLabel(ds dataset.ExampleSet) (working dataset.ExampleSet, classes []string, err error) {
	label := ds.Label()
	switch {
	case label.IsNumeric():
		return ds, nil, nil
	case label.IsBinominal():
	default:
		return nil, nil, errors.Wrapf(errors.ErrUnsupportedLabel,
			"label %q has %d classes, want numeric or two-class nominal", label.Name, len(label.Values))
	}

	values := make([]float64, ds.NumExamples())
	for i := range values {
		if ds.LabelValue(i) != 0 {
			values[i] = 1
		}
	}
	working, err = dataset.WithLabel(ds, dataset.NumericAttribute(label.Name), values)
	if err != nil {
		return nil, nil, err
	}
	return working, []string{label.NegativeClass(), label.PositiveClass()}, nil
}

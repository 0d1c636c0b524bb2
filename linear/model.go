package linear

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/core/model"
	"github.com/YuminosukeSato/stepreg/core/parallel"
	"github.com/YuminosukeSato/stepreg/metrics"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

const (
	modelType     = "LinearRegression"
	weightsFormat = "1.0"

	// classThreshold は二値分類でポジティブクラスとみなす回帰値の下限
	classThreshold = 0.5
)

// Model is a fitted linear regression. It is immutable; the exported
// fields exist for gob persistence.
type Model struct {
	Attributes   []string
	Label        string
	Mask         []bool
	Coefficients []float64
	Report       InferenceReport
	UseBias      bool
	ClassNames   []string
	SquaredError float64
	NumExamples  int
	Selection    string
}

var (
	_ model.Regressor      = (*Model)(nil)
	_ model.Classifier     = (*Model)(nil)
	_ model.WeightExporter = (*Model)(nil)
)

// Result returns the final mask, coefficients and squared error.
func (m *Model) Result() FitResult {
	return FitResult{Mask: m.Mask, Coefficients: m.Coefficients, SquaredError: m.SquaredError}.Clone()
}

// Intercept returns the bias term.
func (m *Model) Intercept() float64 {
	return m.Coefficients[len(m.Coefficients)-1]
}

// Weights returns the weight of every original attribute, 0 for inactive ones.
func (m *Model) Weights() map[string]float64 {
	w := make(map[string]float64, len(m.Attributes))
	k := 0
	for j, name := range m.Attributes {
		if m.Mask[j] {
			w[name] = m.Coefficients[k]
			k++
		} else {
			w[name] = 0
		}
	}
	return w
}

// Predict returns the regression value of one example given the values of
// all original attributes.
func (m *Model) Predict(values []float64) (float64, error) {
	if len(values) != len(m.Attributes) {
		return 0, errors.NewDimensionError("Model.Predict", len(m.Attributes), len(values), 1)
	}
	return m.predict(func(j int) float64 { return values[j] }), nil
}

func (m *Model) predict(value func(j int) float64) float64 {
	v := m.Intercept()
	k := 0
	for j, active := range m.Mask {
		if active {
			v += m.Coefficients[k] * value(j)
			k++
		}
	}
	return v
}

// PredictDataset predicts every example of ds.
func (m *Model) PredictDataset(ctx context.Context, ds dataset.ExampleSet) ([]float64, error) {
	if ds.NumAttributes() != len(m.Attributes) {
		return nil, errors.NewDimensionError("Model.PredictDataset", len(m.Attributes), ds.NumAttributes(), 1)
	}
	preds := make([]float64, ds.NumExamples())
	err := parallel.ForEachRow(ctx, len(preds), 0, func(i int) error {
		preds[i] = m.predict(func(j int) float64 { return ds.Value(i, j) })
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "Model.PredictDataset")
	}
	return preds, nil
}

// Classes returns [negative, positive] for models fitted on a two-class
// label, nil otherwise.
func (m *Model) Classes() []string {
	return append([]string(nil), m.ClassNames...)
}

// PredictClass maps the regression value to a class: positive at 0.5 or
// above. The confidence is the value clipped to [0, 1], mirrored for the
// negative class.
func (m *Model) PredictClass(values []float64) (string, float64, error) {
	if len(m.ClassNames) != 2 {
		return "", 0, errors.NewValueError("Model.PredictClass", "model was not fitted on a two-class label")
	}
	v, err := m.Predict(values)
	if err != nil {
		return "", 0, err
	}
	positive := errors.ClipValue(v, 0, 1)
	if v >= classThreshold {
		return m.ClassNames[1], positive, nil
	}
	return m.ClassNames[0], 1 - positive, nil
}

// Score returns R² of the model on ds.
func (m *Model) Score(ctx context.Context, ds dataset.ExampleSet) (float64, error) {
	preds, err := m.PredictDataset(ctx, ds)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(dataset.LabelColumn(ds), preds)
}

// significance returns the star code of a p-value.
func significance(p float64) string {
	switch {
	case p < 0.001:
		return "****"
	case p < 0.01:
		return "***"
	case p < 0.05:
		return "**"
	case p < 0.1:
		return "*"
	default:
		return ""
	}
}

// String renders one line per coefficient with its statistics.
func (m *Model) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "LinearRegression(label=%s, selection=%s, examples=%d)\n", m.Label, m.Selection, m.NumExamples)
	fmt.Fprintf(&sb, "%-20s %12s %12s %12s %10s %10s %10s\n",
		"attribute", "coefficient", "std.error", "std.coef", "tolerance", "t-stat", "p-value")
	line := func(st CoefficientStats) {
		fmt.Fprintf(&sb, "%-20s %12.5g %12.5g %12.5g %10.4g %10.4g %10.4g %s\n",
			st.Attribute, st.Coefficient, st.StandardError, st.StandardizedCoefficient,
			st.Tolerance, st.TStatistic, st.PValue, significance(st.PValue))
	}
	for _, st := range m.Report.Coefficients {
		line(st)
	}
	if m.UseBias {
		line(m.Report.Intercept)
	}
	if len(m.ClassNames) == 2 {
		fmt.Fprintf(&sb, "classes: %s=0, %s=1\n", m.ClassNames[0], m.ClassNames[1])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ExportWeights converts the model into portable weights with a checksum.
func (m *Model) ExportWeights() (*model.ModelWeights, error) {
	w := m.Weights()
	coefficients := make([]float64, len(m.Attributes))
	for j, name := range m.Attributes {
		coefficients[j] = w[name]
	}
	mw := &model.ModelWeights{
		ModelType:    modelType,
		Version:      weightsFormat,
		Coefficients: coefficients,
		Intercept:    m.Intercept(),
		Features:     append([]string(nil), m.Attributes...),
		Label:        m.Label,
		Classes:      append([]string(nil), m.ClassNames...),
		Hyperparameters: map[string]interface{}{
			"use_bias":  m.UseBias,
			"selection": m.Selection,
		},
		Metadata: map[string]interface{}{
			"active":        formatMask(m.Mask),
			"squared_error": m.SquaredError,
			"n_examples":    m.NumExamples,
		},
		IsFitted: true,
	}
	mw.Seal()
	return mw, nil
}

// ModelFromWeights rebuilds a model from exported weights. Inference
// statistics are not part of the weights and are reported as NaN.
func ModelFromWeights(mw *model.ModelWeights) (*Model, error) {
	if err := mw.Validate(); err != nil {
		return nil, err
	}
	if !mw.IsFitted {
		return nil, errors.NewNotFittedError(modelType, "ModelFromWeights")
	}
	if mw.ModelType != modelType {
		return nil, errors.NewValidationError("model_type", "must be "+modelType, mw.ModelType)
	}

	p := len(mw.Features)
	mask := make([]bool, p)
	if s, ok := mw.Metadata["active"].(string); ok && len(s) == p {
		for j := range mask {
			mask[j] = s[j] == '1'
		}
	} else {
		for j, c := range mw.Coefficients {
			mask[j] = c != 0
		}
	}

	m := &Model{
		Attributes: append([]string(nil), mw.Features...),
		Label:      mw.Label,
		Mask:       mask,
		UseBias:    true,
	}
	if v, ok := mw.Hyperparameters["use_bias"].(bool); ok {
		m.UseBias = v
	}
	if v, ok := mw.Hyperparameters["selection"].(string); ok {
		m.Selection = v
	}
	if v, ok := mw.Metadata["squared_error"].(float64); ok {
		m.SquaredError = v
	}
	switch v := mw.Metadata["n_examples"].(type) {
	case int:
		m.NumExamples = v
	case float64:
		m.NumExamples = int(v)
	}
	if len(mw.Classes) > 0 {
		if len(mw.Classes) != 2 {
			return nil, errors.NewValidationError("classes", "must name exactly two classes", mw.Classes)
		}
		m.ClassNames = append([]string(nil), mw.Classes...)
	}

	nan := math.NaN()
	for j, active := range mask {
		if !active {
			continue
		}
		m.Coefficients = append(m.Coefficients, mw.Coefficients[j])
		m.Report.Coefficients = append(m.Report.Coefficients, CoefficientStats{
			Attribute:               mw.Features[j],
			Coefficient:             mw.Coefficients[j],
			StandardError:           nan,
			StandardizedCoefficient: nan,
			Tolerance:               nan,
			TStatistic:              nan,
			PValue:                  nan,
		})
	}
	m.Coefficients = append(m.Coefficients, mw.Intercept)
	m.Report.Intercept = CoefficientStats{
		Attribute:     "(Intercept)",
		Coefficient:   mw.Intercept,
		StandardError: nan,
		Tolerance:     1,
		TStatistic:    nan,
		PValue:        nan,
	}
	return m, nil
}

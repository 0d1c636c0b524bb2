// Package model provides the estimator state, shared model interfaces,
// portable weights and compressed persistence.
package model

import (
	"context"

	"github.com/YuminosukeSato/stepreg/core/dataset"
)

// Predictor is the interface for fitted models that produce a real value.
type Predictor interface {
	// Predict returns the prediction for one example given its attribute values.
	Predict(values []float64) (float64, error)

	// PredictDataset predicts every example of ds.
	PredictDataset(ctx context.Context, ds dataset.ExampleSet) ([]float64, error)
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(ctx context.Context, ds dataset.ExampleSet) (float64, error)
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Weights returns attribute name → weight, 0 for unused attributes.
	Weights() map[string]float64
	// Intercept は学習された切片を返す
	Intercept() float64
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Predictor
	Scorer
	LinearModel
}

// Classifier is implemented by models fitted on a two-class label.
type Classifier interface {
	// PredictClass returns the predicted class name and a confidence in [0, 1].
	PredictClass(values []float64) (string, float64, error)
	// Classes returns the negative and positive class names.
	Classes() []string
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// WeightExporter is implemented by models that can be exported as ModelWeights.
type WeightExporter interface {
	ExportWeights() (*ModelWeights, error)
}

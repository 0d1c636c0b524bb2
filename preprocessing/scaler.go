// Package preprocessing prepares an example set for fitting: weighted
// standardisation with zero-variance masking, and binarisation of a
// two-class nominal label.
package preprocessing

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/core/model"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// StandardScaler は重み付きの平均と標準偏差を属性ごとに保持する
type StandardScaler struct {
	state *model.StateManager

	// Mean は各属性の重み付き平均（非アクティブな属性は 0）
	Mean []float64

	// Scale は各属性の重み付き標準偏差（非アクティブな属性は 0）
	Scale []float64

	// LabelMean, LabelScale はラベルの重み付き平均と標準偏差
	LabelMean  float64
	LabelScale float64
}

// NewStandardScaler は新しいStandardScalerを作成する
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{state: model.NewStateManager()}
}

// Fit computes weighted statistics for every attribute active in mask and
// for the label. A nil mask means all attributes.
func (s *StandardScaler) Fit(ctx context.Context, ds dataset.ExampleSet, mask []bool) error {
	p := ds.NumAttributes()
	if mask != nil && len(mask) != p {
		return errors.NewDimensionError("StandardScaler.Fit", p, len(mask), 1)
	}
	if ds.NumExamples() == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean = make([]float64, p)
	s.Scale = make([]float64, p)
	for j := 0; j < p; j++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "StandardScaler.Fit")
		}
		if mask != nil && !mask[j] {
			continue
		}
		st := ds.AttributeStats(j)
		s.Mean[j] = st.Mean
		s.Scale[j] = spread(st.StdDev, st.Mean)
	}
	ls := ds.LabelStats()
	s.LabelMean, s.LabelScale = ls.Mean, spread(ls.StdDev, ls.Mean)
	s.state.SetFitted(p, ds.NumExamples())
	return nil
}

// IsFitted はスケーラーが学習済みかどうかを返す
func (s *StandardScaler) IsFitted() bool {
	return s.state != nil && s.state.IsFitted()
}

// spread は平均に対して無視できる標準偏差（定数列の丸め誤差）を 0 にする。
// 単位の小さい列の本物の分散は残る。
func spread(stdDev, mean float64) float64 {
	if errors.IsNegligible(stdDev, mean) {
		return 0
	}
	return stdDev
}

// DropZeroVariance returns a copy of mask with every attribute of zero
// standard deviation deactivated.
func (s *StandardScaler) DropZeroVariance(mask []bool) []bool {
	out := append([]bool(nil), mask...)
	for j := range out {
		if out[j] && s.Scale[j] == 0 {
			out[j] = false
		}
	}
	return out
}

// StandardizedCoefficient rescales the raw weight of attribute j by
// Scale[j] / LabelScale. A constant label gives 0.
func (s *StandardScaler) StandardizedCoefficient(j int, coefficient float64) float64 {
	return errors.DivideOrZero(coefficient*s.Scale[j], s.LabelScale)
}

// Transform は行列の各要素を (x - mean) / scale に標準化する。
// scale が 0 の列は 0 になる。
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.Transform", len(s.Mean), c, 1)
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return errors.DivideOrZero(v-s.Mean[j], s.Scale[j])
	}, X)
	return result, nil
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", len(s.Mean), c, 1)
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return "StandardScaler()"
	}
	return fmt.Sprintf("StandardScaler(n_features=%d, label_mean=%.4g, label_scale=%.4g)",
		len(s.Mean), s.LabelMean, s.LabelScale)
}

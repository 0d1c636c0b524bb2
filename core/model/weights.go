package model

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（LinearRegression等）
	ModelType string `json:"model_type"`

	// Version はフォーマットのバージョン（互換性チェック用）
	Version string `json:"version"`

	// Coefficients は Features と同順の重み係数（未使用の属性は 0）
	Coefficients []float64 `json:"coefficients"`

	// Intercept は切片
	Intercept float64 `json:"intercept"`

	// Features は属性名
	Features []string `json:"features,omitempty"`

	// Label はラベル属性名
	Label string `json:"label,omitempty"`

	// Classes は二値ラベルのクラス名（負例, 正例）
	Classes []string `json:"classes,omitempty"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata は追加のメタデータ（学習時の統計等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`

	// Checksum は数値部分の xxhash（0 は未設定）
	Checksum uint64 `json:"checksum,omitempty"`
}

// ComputeChecksum hashes the model type, label, class names, feature names,
// coefficients and intercept. Hyperparameters and metadata are not covered.
func (mw *ModelWeights) ComputeChecksum() uint64 {
	d := xxhash.New()
	var buf [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(s)
	}
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	}

	writeString(mw.ModelType)
	writeString(mw.Label)
	binary.LittleEndian.PutUint64(buf[:], uint64(len(mw.Classes)))
	_, _ = d.Write(buf[:])
	for _, c := range mw.Classes {
		writeString(c)
	}
	for _, f := range mw.Features {
		writeString(f)
	}
	for _, c := range mw.Coefficients {
		writeFloat(c)
	}
	writeFloat(mw.Intercept)
	return d.Sum64()
}

// Seal stores the current checksum.
func (mw *ModelWeights) Seal() {
	mw.Checksum = mw.ComputeChecksum()
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(mw, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "ModelWeights.ToJSON")
	}
	return data, nil
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "ModelWeights.FromJSON")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return errors.NewValidationError("version", "is required", mw.Version)
	}
	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return errors.NewValueError("ModelWeights.Validate", "unfitted model should not have coefficients")
	}
	if len(mw.Features) != len(mw.Coefficients) {
		return errors.NewDimensionError("ModelWeights.Validate", len(mw.Features), len(mw.Coefficients), 1)
	}
	if mw.Checksum != 0 && mw.Checksum != mw.ComputeChecksum() {
		return errors.NewValueError("ModelWeights.Validate", "checksum mismatch")
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		Intercept:       mw.Intercept,
		Label:           mw.Label,
		IsFitted:        mw.IsFitted,
		Checksum:        mw.Checksum,
		Coefficients:    append([]float64(nil), mw.Coefficients...),
		Features:        append([]string(nil), mw.Features...),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// Standard attribute keys. Keys follow a dotted "category.name" convention
// so that log output can be filtered by prefix.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model, e.g. "LinearRegression".
	ModelNameKey = "model.name"

	// RunIDKey carries the UUID generated for a single Fit call.
	RunIDKey = "run.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the fit, e.g. "collinearity", "selection".
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	// ActiveKey is the number of attributes still active in the mask.
	ActiveKey = "data.active"
	// SelectedKey is the number of attributes with a non-zero coefficient.
	SelectedKey = "data.selected"
)

// Attribute selection.
const (
	SelectionMethodKey = "selection.method"
	SelectionRoundKey  = "selection.round"
	CriterionKey       = "selection.criterion"
	MaskKey            = "selection.mask"
	AttributeNameKey   = "attribute.name"
	ToleranceKey       = "attribute.tolerance"
	PValueKey          = "attribute.p_value"
)

// Performance and fit quality.
const (
	DurationMsKey  = "perf.duration_ms"
	PoolAllocKey   = "perf.pool_allocated"
	PoolReuseKey   = "perf.pool_recycled"
	PoolPeakKey    = "perf.pool_peak"
	R2ScoreKey     = "metrics.r2_score"
	ErrorSumKey    = "metrics.squared_error"
	IterationKey   = "training.iteration"
	RidgeKey       = "hyperparams.ridge"
	AttemptKey     = "solver.attempt"
	CodecKey       = "persistence.codec"
	BytesKey       = "persistence.bytes"
	PredsKey       = "preds.count"
	ThresholdKey   = "preds.threshold"
	ConfidenceKey  = "preds.confidence"
	HyperParamsKey = "model.hyperparams"
)

// Error context.
const (
	ErrorKey      = "error"
	ErrorCodeKey  = "error.code"
	StacktraceKey = "error.stacktrace"
	// ErrorDetailsKey holds the structured payload of errors that
	// implement zerolog.LogObjectMarshaler.
	ErrorDetailsKey = "error.details"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationSave    = "save"
	OperationLoad    = "load"

	PhaseValidation   = "validation"
	PhaseCollinearity = "collinearity"
	PhaseSelection    = "selection"
	PhaseInference    = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)

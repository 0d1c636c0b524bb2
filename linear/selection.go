package linear

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// Selection identifiers.
const (
	SelectionNone           = "none"
	SelectionAkaike         = "akaike"
	SelectionGreedy         = "greedy"
	SelectionTTest          = "t-test"
	SelectionIterativeTTest = "iterative-t-test"
)

// Selection is an attribute selection strategy applied after the full-data
// fit. The set of strategies is closed: None, Akaike, Greedy, TTest and
// IterativeTTest.
type Selection interface {
	// Name returns the canonical identifier.
	Name() string
	// Params returns the current parameter values keyed as in the schema.
	Params() map[string]float64
	// Validate checks the parameters against the schema.
	Validate() error

	apply(ctx context.Context, c *fitContext, baseline FitResult) (FitResult, error)
}

// ParamKind is the type of a selection parameter.
type ParamKind int

const (
	ParamFloat ParamKind = iota
	ParamInt
)

// ParamSpec describes one parameter of a selection strategy.
type ParamSpec struct {
	Name    string
	Kind    ParamKind
	Min     float64
	Max     float64
	MinOpen bool
	MaxOpen bool
	Default float64
}

// Check validates v against the declared bounds.
func (p ParamSpec) Check(param string, v float64) error {
	if math.IsNaN(v) {
		return errors.NewValidationError(param, "must be a number", v)
	}
	if p.Kind == ParamInt && v != math.Trunc(v) {
		return errors.NewValidationError(param, "must be an integer", v)
	}
	if v < p.Min || (p.MinOpen && v == p.Min) || v > p.Max || (p.MaxOpen && v == p.Max) {
		return errors.NewValidationError(param, "must be in "+p.rangeString(), v)
	}
	return nil
}

func (p ParamSpec) rangeString() string {
	lo, hi := "[", "]"
	if p.MinOpen {
		lo = "("
	}
	if p.MaxOpen {
		hi = ")"
	}
	return fmt.Sprintf("%s%g, %g%s", lo, p.Min, p.Max, hi)
}

const (
	paramAlpha         = "alpha"
	paramAlphaForward  = "alpha_forward"
	paramAlphaBackward = "alpha_backward"
	paramMaxIterations = "max_iterations"
)

func alphaSpec(name string) ParamSpec {
	return ParamSpec{Name: name, Kind: ParamFloat, Min: 0, Max: 1, MinOpen: true, MaxOpen: true, Default: 0.05}
}

var selectionSchemas = map[string][]ParamSpec{
	SelectionNone:   nil,
	SelectionAkaike: nil,
	SelectionGreedy: nil,
	SelectionTTest:  {alphaSpec(paramAlpha)},
	SelectionIterativeTTest: {
		{Name: paramMaxIterations, Kind: ParamInt, Min: 1, Max: math.MaxInt32, Default: 10},
		alphaSpec(paramAlphaForward),
		alphaSpec(paramAlphaBackward),
	},
}

var selectionAliases = map[string]string{
	"none":             SelectionNone,
	"akaike":           SelectionAkaike,
	"m5prime":          SelectionAkaike,
	"m5 prime":         SelectionAkaike,
	"greedy":           SelectionGreedy,
	"t-test":           SelectionTTest,
	"ttest":            SelectionTTest,
	"iterative-t-test": SelectionIterativeTTest,
	"iterative t-test": SelectionIterativeTTest,
}

// CanonicalSelectionName resolves a case-insensitive identifier or alias.
func CanonicalSelectionName(name string) (string, error) {
	canonical, ok := selectionAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", errors.NewUnknownSelectionError(name)
	}
	return canonical, nil
}

// SelectionSchema returns the parameter schema of the named strategy.
func SelectionSchema(name string) ([]ParamSpec, error) {
	canonical, err := CanonicalSelectionName(name)
	if err != nil {
		return nil, err
	}
	return append([]ParamSpec(nil), selectionSchemas[canonical]...), nil
}

// ParseSelection builds a strategy from its identifier and parameters.
// Missing parameters take their defaults; unknown or out-of-range
// parameters are configuration errors.
func ParseSelection(name string, params map[string]float64) (Selection, error) {
	canonical, err := CanonicalSelectionName(name)
	if err != nil {
		return nil, err
	}
	schema := selectionSchemas[canonical]
	values, err := resolveParams(canonical, schema, params)
	if err != nil {
		return nil, err
	}

	var s Selection
	switch canonical {
	case SelectionNone:
		s = None{}
	case SelectionAkaike:
		s = Akaike{}
	case SelectionGreedy:
		s = Greedy{}
	case SelectionTTest:
		s = TTest{Alpha: values[paramAlpha]}
	case SelectionIterativeTTest:
		s = IterativeTTest{
			MaxIterations: int(values[paramMaxIterations]),
			AlphaForward:  values[paramAlphaForward],
			AlphaBackward: values[paramAlphaBackward],
		}
	}
	return s, nil
}

func resolveParams(method string, schema []ParamSpec, params map[string]float64) (map[string]float64, error) {
	known := make(map[string]ParamSpec, len(schema))
	values := make(map[string]float64, len(schema))
	for _, p := range schema {
		known[p.Name] = p
		values[p.Name] = p.Default
	}

	// 未知のパラメータはエラーメッセージを安定させるため名前順に検査する
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p, ok := known[name]
		if !ok {
			return nil, errors.NewValidationError("selection."+name, "unknown parameter for "+method, params[name])
		}
		if err := p.Check("selection."+name, params[name]); err != nil {
			return nil, err
		}
		values[name] = params[name]
	}
	return values, nil
}

func validateSelection(s Selection) error {
	schema := selectionSchemas[s.Name()]
	params := s.Params()
	for _, p := range schema {
		if err := p.Check("selection."+p.Name, params[p.Name]); err != nil {
			return err
		}
	}
	return nil
}

// None keeps the baseline fit.
type None struct{}

func (None) Name() string               { return SelectionNone }
func (None) Params() map[string]float64 { return map[string]float64{} }
func (None) Validate() error            { return nil }

func (None) apply(_ context.Context, _ *fitContext, baseline FitResult) (FitResult, error) {
	return baseline.Clone(), nil
}

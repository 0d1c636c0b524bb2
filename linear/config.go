package linear

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// Config is the YAML form of the fitter settings.
//
//	use_bias: true
//	ridge: 1.0e-8
//	eliminate_colinear_features: true
//	min_tolerance: 0.05
//	selection:
//	  method: t-test
//	  alpha: 0.05
type Config struct {
	UseBias                   bool            `yaml:"use_bias"`
	Ridge                     float64         `yaml:"ridge"`
	EliminateColinearFeatures bool            `yaml:"eliminate_colinear_features"`
	MinTolerance              float64         `yaml:"min_tolerance"`
	ParallelThreshold         int             `yaml:"parallel_threshold"`
	Selection                 SelectionConfig `yaml:"selection"`
}

// SelectionConfig names the strategy and carries every strategy parameter.
// Only the parameters of the named strategy are used.
type SelectionConfig struct {
	Method        string  `yaml:"method"`
	MaxIterations int     `yaml:"max_iterations"`
	Alpha         float64 `yaml:"alpha"`
	AlphaForward  float64 `yaml:"alpha_forward"`
	AlphaBackward float64 `yaml:"alpha_backward"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		UseBias:                   true,
		Ridge:                     defaultRidge,
		EliminateColinearFeatures: true,
		MinTolerance:              defaultMinTolerance,
		ParallelThreshold:         defaultParallelThreshold,
		Selection: SelectionConfig{
			Method:        SelectionAkaike,
			MaxIterations: 10,
			Alpha:         0.05,
			AlphaForward:  0.05,
			AlphaBackward: 0.05,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// Build returns the strategy named by the config.
func (c SelectionConfig) Build() (Selection, error) {
	schema, err := SelectionSchema(c.Method)
	if err != nil {
		return nil, err
	}
	all := map[string]float64{
		paramMaxIterations: float64(c.MaxIterations),
		paramAlpha:         c.Alpha,
		paramAlphaForward:  c.AlphaForward,
		paramAlphaBackward: c.AlphaBackward,
	}
	params := make(map[string]float64, len(schema))
	for _, p := range schema {
		params[p.Name] = all[p.Name]
	}
	return ParseSelection(c.Method, params)
}

// Options converts the config into fitter options.
func (c Config) Options() ([]Option, error) {
	s, err := c.Selection.Build()
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithBias(c.UseBias),
		WithRidge(c.Ridge),
		WithSelection(s),
		WithParallelThreshold(c.ParallelThreshold),
	}
	if c.EliminateColinearFeatures {
		opts = append(opts, WithCollinearityElimination(c.MinTolerance))
	} else {
		opts = append(opts, WithoutCollinearityElimination())
	}
	return opts, nil
}

// NewFromConfig builds a fitter from c; extra options are applied last.
func NewFromConfig(c Config, extra ...Option) (*LinearRegression, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return NewLinearRegression(append(opts, extra...)...), nil
}

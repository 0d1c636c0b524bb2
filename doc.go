// Package stepreg provides linear regression with collinearity elimination,
// stepwise attribute selection and coefficient inference for Go.
//
// A fit masks non-numeric and constant attributes, optionally removes
// collinear attributes by tolerance, runs one of five selection methods and
// reports a standard error, standardized coefficient, tolerance, t-statistic
// and p-value for every selected coefficient.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/stepreg/linear"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 2, []float64{1, 0, 2, 1, 3, 0, 4, 1})
//	    y := mat.NewDense(4, 1, []float64{3, 6, 7, 10})
//
//	    lr := linear.NewLinearRegression(linear.WithSelection(linear.None{}))
//	    m, err := lr.FitMatrix(context.Background(), X, y)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(m)
//	}
//
// # Attribute Selection
//
// Selection is chosen by name with ParseSelection or by value:
//
//   - none: keep every usable attribute
//   - akaike (alias m5prime): drop the smallest standardized coefficient while the Akaike criterion improves
//   - greedy: drop whichever attribute improves the Akaike criterion most
//   - t-test: drop attributes whose p-value exceeds alpha
//   - iterative-t-test: alternate forward inclusion and backward elimination
//
// # Packages
//
//   - linear: LinearRegression, Model and the selection methods
//   - core/dataset: weighted example sets with numeric and nominal attributes
//   - core/model: fit state, weight export and compressed persistence
//   - core/parallel: row-parallel helpers
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - preprocessing: weighted standardization and label binarization
//   - report: gonum/plot charts of a fitted model
//   - performance: matrix buffer pooling
//   - pkg/errors, pkg/log: structured errors and zerolog logging
//
// # Configuration
//
// LinearRegression can be built from YAML:
//
//	use_bias: true
//	ridge: 1.0e-8
//	eliminate_colinear_features: true
//	min_tolerance: 0.05
//	selection:
//	  method: t-test
//	  alpha: 0.05
//
// # License
//
// stepreg is released under the MIT License.
package stepreg

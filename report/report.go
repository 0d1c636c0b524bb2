// Package report renders plots of a fitted linear model with gonum/plot.
package report

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/stepreg/core/dataset"
	"github.com/YuminosukeSato/stepreg/linear"
	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// Default image size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// PredictedVsActual plots the model's prediction against the label of
// every example of ds, with the identity line for reference.
func PredictedVsActual(ctx context.Context, m *linear.Model, ds dataset.ExampleSet) (*plot.Plot, error) {
	preds, err := m.PredictDataset(ctx, ds)
	if err != nil {
		return nil, err
	}
	if len(preds) == 0 {
		return nil, errors.NewModelError("report.PredictedVsActual", "empty data", errors.ErrEmptyData)
	}

	pts := make(plotter.XYs, len(preds))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range preds {
		y := ds.LabelValue(i)
		pts[i].X, pts[i].Y = y, p
		lo = math.Min(lo, math.Min(y, p))
		hi = math.Max(hi, math.Max(y, p))
	}

	p := plot.New()
	p.Title.Text = "Predicted vs actual"
	p.X.Label.Text = "actual " + m.Label
	p.Y.Label.Text = "predicted"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "report.PredictedVsActual")
	}
	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, errors.Wrap(err, "report.PredictedVsActual")
	}
	identity.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(scatter, identity)
	p.Legend.Add("examples", scatter)
	p.Legend.Add("y = x", identity)
	return p, nil
}

// StandardizedCoefficients draws one bar per active attribute.
func StandardizedCoefficients(m *linear.Model) (*plot.Plot, error) {
	coefs := m.Report.Coefficients
	if len(coefs) == 0 {
		return nil, errors.NewValueError("report.StandardizedCoefficients", "model has no active attributes")
	}
	values := make(plotter.Values, len(coefs))
	names := make([]string, len(coefs))
	for i, st := range coefs {
		values[i] = st.StandardizedCoefficient
		if math.IsNaN(values[i]) {
			values[i] = 0
		}
		names[i] = st.Attribute
	}

	p := plot.New()
	p.Title.Text = "Standardized coefficients"
	p.Y.Label.Text = "standardized coefficient"
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, errors.Wrap(err, "report.StandardizedCoefficients")
	}
	p.Add(plotter.NewGrid(), bars)
	p.NominalX(names...)
	return p, nil
}

// Save writes p to path at the default size; the extension selects the
// format (png, svg, pdf, eps, jpg, tif).
func Save(p *plot.Plot, path string) error {
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return errors.Wrapf(err, "save plot %s", filepath.Base(path))
	}
	return nil
}

// WriteTo encodes p in format to w at the default size.
func WriteTo(p *plot.Plot, w io.Writer, format string) (int64, error) {
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, strings.ToLower(format))
	if err != nil {
		return 0, errors.Wrapf(err, "plot format %q", format)
	}
	n, err := wt.WriteTo(w)
	if err != nil {
		return n, errors.Wrap(err, "write plot")
	}
	return n, nil
}

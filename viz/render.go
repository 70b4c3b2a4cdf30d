package viz

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"csv-insights/dataset"
	apperrors "csv-insights/errors"

	chart "github.com/wcharczuk/go-chart/v2"
)

const (
	// NotEnoughDataMessage is shown in place of a chart for narrow tables.
	NotEnoughDataMessage = "Not enough data for a graph. Please upload a CSV with at least two columns."

	errorPrefix = "Error generating visualization: "

	staticWidth  = 800
	staticHeight = 480
	barWidth     = 40
)

// UnsupportedKindError is returned for a kind Render has no construction for.
type UnsupportedKindError struct {
	Kind Kind
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("Unsupported visualization type: %s", e.Kind)
}

// Chart is a rendered chart. The PNG is produced when the chart is built, so a
// Chart value always has a usable static image.
type Chart struct {
	Spec ChartSpec

	// Labels are the raw x cells of the plotted rows.
	Labels []string
	// XValues are the plotted x positions: the numbers themselves for numeric
	// columns, Unix-time floats for dates, row positions for text.
	XValues []float64
	YValues []float64

	xKind dataset.Kind
	png   []byte
}

// Render builds the chart described by spec from t.
func Render(spec ChartSpec, t *dataset.Table) (*Chart, error) {
	if t.NumColumns() < 2 {
		return nil, fmt.Errorf("%w: table has %d column(s)", apperrors.ErrNotEnoughData, t.NumColumns())
	}

	switch spec.Kind {
	case KindBar, KindLine, KindScatter:
	default:
		return nil, &UnsupportedKindError{Kind: spec.Kind}
	}

	c, err := collect(spec, t)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.renderStatic(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", spec.Kind, err)
	}
	c.png = buf.Bytes()
	return c, nil
}

// ErrorMessage maps a Render error to the text shown to the user.
func ErrorMessage(err error) string {
	var unsupported *UnsupportedKindError
	switch {
	case apperrors.IsNotEnoughData(err):
		return NotEnoughDataMessage
	case errors.As(err, &unsupported):
		return unsupported.Error()
	default:
		return errorPrefix + err.Error()
	}
}

func collect(spec ChartSpec, t *dataset.Table) (*Chart, error) {
	xcol, ok := t.Column(spec.X)
	if !ok {
		return nil, fmt.Errorf("column %q not found", spec.X)
	}
	ycol, ok := t.Column(spec.Y)
	if !ok {
		return nil, fmt.Errorf("column %q not found", spec.Y)
	}
	if ycol.Kind != dataset.KindNumber {
		return nil, fmt.Errorf("column %q is not numeric", spec.Y)
	}

	c := &Chart{Spec: spec, xKind: xcol.Kind}
	for i, y := range ycol.Numbers {
		if math.IsNaN(y) {
			continue
		}
		var x float64
		switch xcol.Kind {
		case dataset.KindNumber:
			x = xcol.Numbers[i]
			if math.IsNaN(x) {
				continue
			}
		case dataset.KindDate:
			if xcol.Times[i].IsZero() {
				continue
			}
			x = chart.TimeToFloat64(xcol.Times[i])
		default:
			x = float64(len(c.XValues))
		}
		c.Labels = append(c.Labels, xcol.Values[i])
		c.XValues = append(c.XValues, x)
		c.YValues = append(c.YValues, y)
	}
	if len(c.YValues) == 0 {
		return nil, fmt.Errorf("no plottable rows for %s against %s", spec.Y, spec.X)
	}
	return c, nil
}

// PNG returns the static image rendered at construction time.
func (c *Chart) PNG() []byte {
	return c.png
}

// RenderSVG renders the static chart as SVG.
func (c *Chart) RenderSVG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.renderStatic(chart.SVG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Chart) renderStatic(rp chart.RendererProvider, w io.Writer) error {
	if c.Spec.Kind == KindBar {
		return c.barChart().Render(rp, w)
	}
	return c.seriesChart().Render(rp, w)
}

func (c *Chart) barChart() chart.BarChart {
	bars := make([]chart.Value, len(c.YValues))
	for i, y := range c.YValues {
		bars[i] = chart.Value{Label: c.Labels[i], Value: y}
	}

	lo, hi := span(c.YValues)
	lo, hi = math.Min(lo, 0), math.Max(hi, 0)
	if lo == hi {
		hi = lo + 1
	}

	width := staticWidth
	if need := len(bars)*(barWidth+20) + 120; need > width {
		width = need
	}
	return chart.BarChart{
		Title:      c.Spec.Title,
		Width:      width,
		Height:     staticHeight,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 48}},
		YAxis: chart.YAxis{
			Name:  c.Spec.Y,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}
}

func (c *Chart) seriesChart() chart.Chart {
	style := chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2}
	if c.Spec.Kind == KindScatter {
		style = chart.Style{
			StrokeWidth: chart.Disabled,
			DotColor:    chart.ColorBlue,
			DotWidth:    5,
		}
	}

	xr := paddedRange(c.XValues)
	xa := chart.XAxis{Name: c.Spec.X, Range: xr}
	switch c.xKind {
	case dataset.KindDate:
		xa.ValueFormatter = chart.TimeValueFormatter
	case dataset.KindText:
		// go-chart takes the axis range from explicit ticks, so blank ticks
		// at the padded ends keep a single label from collapsing it.
		xa.Ticks = make([]chart.Tick, 0, len(c.Labels)+2)
		xa.Ticks = append(xa.Ticks, chart.Tick{Value: xr.Min})
		for i, label := range c.Labels {
			xa.Ticks = append(xa.Ticks, chart.Tick{Value: c.XValues[i], Label: label})
		}
		xa.Ticks = append(xa.Ticks, chart.Tick{Value: xr.Max})
	}

	return chart.Chart{
		Title:      c.Spec.Title,
		Width:      staticWidth,
		Height:     staticHeight,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16}},
		XAxis:      xa,
		YAxis:      chart.YAxis{Name: c.Spec.Y, Range: paddedRange(c.YValues)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    c.Spec.Y,
				XValues: c.XValues,
				YValues: c.YValues,
				Style:   style,
			},
		},
	}
}

// paddedRange covers vs with a little headroom; go-chart rejects zero-width ranges.
func paddedRange(vs []float64) *chart.ContinuousRange {
	lo, hi := span(vs)
	if lo == hi {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func span(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

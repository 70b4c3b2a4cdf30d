package viz

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML renders the interactive version of the chart as a standalone
// HTML page. The page loads the echarts script from its CDN.
func (c *Chart) RenderHTML() ([]byte, error) {
	initOpts := charts.WithInitializationOpts(opts.Initialization{
		PageTitle: c.Spec.Title,
		Width:     "100%",
		Height:    "420px",
	})
	titleOpts := charts.WithTitleOpts(opts.Title{Title: c.Spec.Title})
	xOpts := charts.WithXAxisOpts(opts.XAxis{Name: c.Spec.X})
	yOpts := charts.WithYAxisOpts(opts.YAxis{Name: c.Spec.Y})

	var buf bytes.Buffer
	switch c.Spec.Kind {
	case KindBar:
		items := make([]opts.BarData, len(c.YValues))
		for i, y := range c.YValues {
			items[i] = opts.BarData{Value: y}
		}
		bar := charts.NewBar()
		bar.SetGlobalOptions(initOpts, titleOpts, xOpts, yOpts)
		bar.SetXAxis(c.Labels).AddSeries(c.Spec.Y, items)
		if err := bar.Render(&buf); err != nil {
			return nil, fmt.Errorf("render bar html: %w", err)
		}
	case KindLine:
		items := make([]opts.LineData, len(c.YValues))
		for i, y := range c.YValues {
			items[i] = opts.LineData{Value: y}
		}
		line := charts.NewLine()
		line.SetGlobalOptions(initOpts, titleOpts, xOpts, yOpts)
		line.SetXAxis(c.Labels).AddSeries(c.Spec.Y, items)
		if err := line.Render(&buf); err != nil {
			return nil, fmt.Errorf("render line html: %w", err)
		}
	case KindScatter:
		items := make([]opts.ScatterData, len(c.YValues))
		for i, y := range c.YValues {
			items[i] = opts.ScatterData{Value: y, SymbolSize: 10}
		}
		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(initOpts, titleOpts, xOpts, yOpts)
		scatter.SetXAxis(c.Labels).AddSeries(c.Spec.Y, items)
		if err := scatter.Render(&buf); err != nil {
			return nil, fmt.Errorf("render scatter html: %w", err)
		}
	default:
		return nil, &UnsupportedKindError{Kind: c.Spec.Kind}
	}
	return buf.Bytes(), nil
}

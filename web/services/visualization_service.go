package services

import (
	"encoding/base64"
	"html/template"

	"csv-insights/dataset"
	"csv-insights/viz"
	"csv-insights/web/types"

	"go.uber.org/zap"
)

// Dashboard messages shown instead of a chart.
const (
	MsgMissingDescription = "Please provide a description of the visualization."
	MsgEmptyDataset       = "Dataset is empty or invalid."
	msgReadErrorPrefix    = "Error reading the file: "
)

// VisualizationService runs one dashboard request: load, classify, render,
// describe. Each step that fails ends the request with a message.
type VisualizationService struct {
	logger *zap.Logger
}

func NewVisualizationService(logger *zap.Logger) *VisualizationService {
	return &VisualizationService{logger: logger}
}

// Visualize builds the chart for description. A nil upload uses the sample table.
func (vs *VisualizationService) Visualize(description string, upload *Upload) *types.VisualizationResult {
	if description == "" {
		return &types.VisualizationResult{Message: MsgMissingDescription}
	}

	result := &types.VisualizationResult{}
	var table *dataset.Table
	if upload == nil {
		table = dataset.Sample()
		result.UsedSample = true
	} else {
		t, err := dataset.ParseDataURI(upload.DataURI())
		if err != nil {
			vs.logger.Info("Uploaded file could not be read",
				zap.String("filename", upload.Filename),
				zap.Error(err))
			result.Message = msgReadErrorPrefix + err.Error()
			return result
		}
		table = t
	}

	if table.Empty() {
		result.Message = MsgEmptyDataset
		return result
	}

	spec := viz.Classify(description, table)
	chart, err := viz.Render(spec, table)
	if err != nil {
		vs.logger.Info("Chart could not be rendered",
			zap.String("kind", string(spec.Kind)),
			zap.Error(err))
		result.Message = viz.ErrorMessage(err)
		return result
	}

	result.Chart = &types.ChartInfo{Kind: string(spec.Kind), X: spec.X, Y: spec.Y, Title: spec.Title}
	result.Insight = viz.Insight(spec.Kind, spec.X, spec.Y)
	result.Image = pngDataURI(chart.PNG())

	if svg, err := chart.RenderSVG(); err != nil {
		vs.logger.Warn("SVG render failed", zap.Error(err))
	} else {
		result.SVG = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
	}

	// The static image is always there; the interactive page is optional.
	if page, err := chart.RenderHTML(); err != nil {
		vs.logger.Warn("Interactive chart render failed", zap.Error(err))
	} else {
		result.ChartHTML = template.HTML(page)
	}

	vs.logger.Debug("Visualization rendered",
		zap.String("kind", string(spec.Kind)),
		zap.String("x", spec.X),
		zap.String("y", spec.Y),
		zap.Bool("sample", result.UsedSample))
	return result
}

func pngDataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

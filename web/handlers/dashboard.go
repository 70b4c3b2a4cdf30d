package handlers

import (
	"net/http"

	"csv-insights/web/components"
	"csv-insights/web/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	viz            *services.VisualizationService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewDashboardHandler(viz *services.VisualizationService, maxUploadBytes int64, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{viz: viz, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *DashboardHandler) Index(c *gin.Context) {
	renderComponent(c, http.StatusOK, components.DashboardPage(), h.logger)
}

// Visualize handles the dashboard form: a description plus an optional file,
// sent either as a "contents" data URI or a multipart "file".
func (h *DashboardHandler) Visualize(c *gin.Context) {
	description := c.PostForm("description")

	var upload *services.Upload
	if description != "" {
		var err error
		upload, err = readUpload(c, "contents", h.maxUploadBytes)
		if err != nil {
			respondUploadError(c, err, h.logger)
			return
		}
	}

	result := h.viz.Visualize(description, upload)
	respond(c, result, components.Visualization(result), h.logger)
}

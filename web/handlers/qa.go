package handlers

import (
	"net/http"

	"csv-insights/web/components"
	"csv-insights/web/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QAHandler struct {
	qa             *services.QAService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewQAHandler(qa *services.QAService, maxUploadBytes int64, logger *zap.Logger) *QAHandler {
	return &QAHandler{qa: qa, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *QAHandler) Index(c *gin.Context) {
	renderComponent(c, http.StatusOK, components.AskPage(), h.logger)
}

func (h *QAHandler) Ask(c *gin.Context) {
	upload, err := readUpload(c, "contents", h.maxUploadBytes)
	if err != nil {
		respondUploadError(c, err, h.logger)
		return
	}

	result := h.qa.Ask(c.Request.Context(), upload, c.PostForm("question"))
	respond(c, result, components.Answer(result), h.logger)
}

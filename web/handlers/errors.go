package handlers

import (
	"errors"
	"net/http"
	"strings"

	apperrors "csv-insights/errors"
	"csv-insights/web/services"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	// Log technical error with context
	if logger != nil {
		fields = append(fields, zap.Error(technicalError))
		logger.Error("Request failed", fields...)
	}

	// Return user-friendly message
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), gin.MIMEJSON)
}

// respond writes v as JSON for API clients and the component otherwise.
func respond(c *gin.Context, v any, component templ.Component, logger *zap.Logger) {
	if wantsJSON(c) {
		c.JSON(http.StatusOK, v)
		return
	}
	renderComponent(c, http.StatusOK, component, logger)
}

func renderComponent(c *gin.Context, status int, component templ.Component, logger *zap.Logger) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		logger.Error("Failed to render component", zap.Error(err), zap.String("path", c.FullPath()))
	}
}

// readUpload returns the request's file from either the dataField data URI or
// the multipart "file" part. A request without a file yields nil.
func readUpload(c *gin.Context, dataField string, maxBytes int64) (*services.Upload, error) {
	if uri := c.PostForm(dataField); uri != "" {
		return services.UploadFromDataURI(c.PostForm("filename"), uri, maxBytes)
	}
	file, err := c.FormFile("file")
	if err != nil {
		// Missing part or a non-multipart body.
		return nil, nil
	}
	return services.ReadMultipartFile(file, maxBytes)
}

// respondUploadError maps a readUpload failure to a response.
func respondUploadError(c *gin.Context, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, services.ErrUploadTooLarge):
		respondWithClientError(c, http.StatusRequestEntityTooLarge, err.Error())
	case apperrors.IsInvalidInput(err):
		respondWithClientError(c, http.StatusBadRequest, err.Error())
	default:
		respondWithError(c, http.StatusInternalServerError, err, "Could not read the uploaded file", logger,
			zap.String("path", c.FullPath()))
	}
}

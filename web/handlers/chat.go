package handlers

import (
	"net/http"

	"csv-insights/web/components"
	"csv-insights/web/middleware"
	"csv-insights/web/services"
	"csv-insights/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chat           *services.ChatService
	sessions       *services.SessionService
	maxUploadBytes int64
	logger         *zap.Logger
}

type ChatRequest struct {
	Message string `json:"message" form:"message"`
}

func NewChatHandler(chat *services.ChatService, sessions *services.SessionService, maxUploadBytes int64, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:           chat,
		sessions:       sessions,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (h *ChatHandler) Index(c *gin.Context) {
	session := h.sessions.Get(middleware.SessionID(c))
	renderComponent(c, http.StatusOK, components.ChatPage(session), h.logger)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Error("Failed to bind chat request", zap.Error(err))
		respondWithClientError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	if req.Message == "" {
		respondWithClientError(c, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	var turns []types.Turn
	h.sessions.Update(middleware.SessionID(c), func(session *types.Session) {
		turns = h.chat.SendMessage(c.Request.Context(), session, req.Message)
	})

	respond(c, gin.H{"turns": turns}, components.Turns(turns), h.logger)
}

func (h *ChatHandler) UploadFile(c *gin.Context) {
	upload, err := readUpload(c, "contents", h.maxUploadBytes)
	if err != nil {
		respondUploadError(c, err, h.logger)
		return
	}
	if upload == nil {
		respondWithClientError(c, http.StatusBadRequest, "File upload error")
		return
	}

	sessionID := middleware.SessionID(c)
	var turns []types.Turn
	h.sessions.Update(sessionID, func(session *types.Session) {
		turns = h.chat.Upload(session, upload)
	})

	h.logger.Info("File uploaded",
		zap.String("filename", upload.Filename),
		zap.String("session_id", sessionID.String()))
	respond(c, gin.H{"turns": turns}, components.Turns(turns), h.logger)
}

package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nova-api/internal/chat"
	"nova-api/internal/history"
	"nova-api/internal/llm"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type chatRequest struct {
	Message   *string `json:"message" binding:"required"`
	UserID    string  `json:"user_id"`
	SessionID string  `json:"session_id"`
}

type healthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	AIModelStatus string    `json:"ai_model_status"`
}

type handler struct {
	chat        *chat.Service
	catalog     *llm.Catalog
	version     string
	modelStatus string
}

func (h *handler) register(r gin.IRouter) {
	r.GET("/", h.root)
	r.GET("/health", h.health)
	r.GET("/ai/models", h.models)
	r.POST("/chat", h.send)
	r.GET("/chat/history/:session_id", h.history)
	r.DELETE("/chat/history/:session_id", h.clear)
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":       "🚀 NOVA API",
		"status":        "active",
		"documentation": "/health",
	})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:        "operational",
		Timestamp:     time.Now(),
		Version:       h.version,
		AIModelStatus: h.modelStatus,
	})
}

func (h *handler) models(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Models())
}

func (h *handler) send(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	resp, err := h.chat.Send(c.Request.Context(), chat.Request{
		Message:   *req.Message,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: fmt.Sprintf("AI error: %v", err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) history(c *gin.Context) {
	out, err := h.chat.History(c.Param("session_id"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) clear(c *gin.Context) {
	sessionID := c.Param("session_id")
	if err := h.chat.Clear(sessionID); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("History of session %s cleared", sessionID)})
}

func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, history.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Detail: "Session not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
}

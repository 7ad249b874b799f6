package handlers

import (
	"swap4x-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// WebSocketHandler upgrades clients onto the price stream
type WebSocketHandler struct {
	push *services.WebSocketPushService
}

// NewWebSocketHandler creates a new WebSocketHandler instance
func NewWebSocketHandler(push *services.WebSocketPushService) *WebSocketHandler {
	return &WebSocketHandler{push: push}
}

// StreamHandler handles GET /ws/prices
func (h *WebSocketHandler) StreamHandler(c *gin.Context) {
	h.push.HandleUpgrade(c.Writer, c.Request)
}

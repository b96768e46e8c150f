package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HariomSharma2644/inturnX-sub000/internal/arena"
)

// WebSocketHandler WebSocket 연결 처리
type WebSocketHandler struct {
	hub *arena.Hub
}

// NewWebSocketHandler WebSocketHandler 생성
func NewWebSocketHandler(hub *arena.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// HandleWebSocket WebSocket 연결 엔드포인트
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// 인증 미들웨어에서 설정한 userId 가져오기
	userID, exists := c.Get("userId")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	// WebSocket 연결 업그레이드
	arena.ServeWs(h.hub, c.Writer, c.Request, userID.(string))
}

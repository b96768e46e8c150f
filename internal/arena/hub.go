package arena

import (
	"sync"

	"github.com/HariomSharma2644/inturnX-sub000/pkg/logger"
)

// HandlerFunc 클라이언트 인바운드 이벤트 핸들러
type HandlerFunc func(userID string, payload []byte)

// Hub WebSocket 연결 관리 및 메시지 라우팅.
// 클라이언트 → 서버 이벤트는 등록된 핸들러로 디스패치하고,
// 서버 → 클라이언트 메시지는 사용자별 send 채널로 전달한다.
type Hub struct {
	// 사용자별 연결 저장 (userID -> *Client)
	clients map[string]*Client
	mu      sync.RWMutex

	// 브로드캐스트 채널
	broadcast chan *Message

	// 등록/해제 채널
	register   chan *Client
	unregister chan *Client

	// 인바운드 이벤트 핸들러 (이벤트 타입 -> 핸들러)
	handlers   map[string]HandlerFunc
	handlersMu sync.RWMutex

	// 연결 상태 변화 리스너
	onConnect    []func(userID string)
	onDisconnect []func(userID string)
}

// Message WebSocket 메시지
type Message struct {
	UserID  string      `json:"-"` // 수신자 (빈 문자열이면 전체 브로드캐스트)
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		handlers:   make(map[string]HandlerFunc),
	}
}

// Handle 인바운드 이벤트 핸들러 등록. Run 전에 호출해야 한다.
func (h *Hub) Handle(eventType string, handler HandlerFunc) {
	h.handlersMu.Lock()
	defer h.handlersMu.Unlock()
	h.handlers[eventType] = handler
}

// OnConnect 연결 리스너 등록. Run 전에 호출해야 한다.
func (h *Hub) OnConnect(fn func(userID string)) {
	h.onConnect = append(h.onConnect, fn)
}

// OnDisconnect 연결 해제 리스너 등록. Run 전에 호출해야 한다.
func (h *Hub) OnDisconnect(fn func(userID string)) {
	h.onDisconnect = append(h.onDisconnect, fn)
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// registerClient 클라이언트 등록
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()

	// 기존 연결이 있으면 닫기 (재접속 시 새 연결이 이전 연결을 대체)
	replaced := false
	if oldClient, exists := h.clients[client.userID]; exists {
		oldClient.closeOnce.Do(func() { close(oldClient.send) })
		replaced = true
	}

	h.clients[client.userID] = client
	total := len(h.clients)
	h.mu.Unlock()

	if replaced {
		logger.Info("Replaced existing WebSocket connection", "userId", client.userID)
	}
	logger.Info("WebSocket client registered", "userId", client.userID, "totalClients", total)

	for _, fn := range h.onConnect {
		fn(client.userID)
	}
}

// unregisterClient 클라이언트 해제
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	// 재접속으로 이미 대체된 연결이면 상태 변화 없음
	current, exists := h.clients[client.userID]
	if !exists || current != client {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client.userID)
	client.closeOnce.Do(func() { close(client.send) })
	total := len(h.clients)
	h.mu.Unlock()

	logger.Info("WebSocket client unregistered", "userId", client.userID, "totalClients", total)

	for _, fn := range h.onDisconnect {
		fn(client.userID)
	}
}

// broadcastMessage 메시지 브로드캐스트
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if message.UserID == "" {
		// 전체 브로드캐스트
		for _, client := range h.clients {
			select {
			case client.send <- message:
			default:
				// 채널이 가득 찬 경우 연결 해제
				logger.Warn("Client send channel full, unregistering", "userId", client.userID)
				go func(c *Client) {
					h.unregister <- c
				}(client)
			}
		}
	} else {
		// 특정 사용자에게만 전송
		if client, exists := h.clients[message.UserID]; exists {
			select {
			case client.send <- message:
			default:
				logger.Warn("Client send channel full", "userId", message.UserID)
			}
		}
	}
}

// dispatch 인바운드 이벤트를 등록된 핸들러로 전달
func (h *Hub) dispatch(userID, eventType string, payload []byte) {
	h.handlersMu.RLock()
	handler, exists := h.handlers[eventType]
	h.handlersMu.RUnlock()

	if !exists {
		logger.Warn("Unknown WebSocket event", "userId", userID, "type", eventType)
		return
	}

	handler(userID, payload)
}

// SendToUser 특정 사용자에게 메시지 전송
func (h *Hub) SendToUser(userID string, msgType string, payload interface{}) {
	h.broadcast <- &Message{
		UserID:  userID,
		Type:    msgType,
		Payload: payload,
	}
}

// Broadcast 모든 사용자에게 메시지 전송
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	h.broadcast <- &Message{
		UserID:  "",
		Type:    msgType,
		Payload: payload,
	}
}

// IsConnected 해당 사용자의 활성 연결 존재 여부
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

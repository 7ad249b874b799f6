package services

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"swap4x-backend/internal/metrics"
	"swap4x-backend/internal/pricing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocket Upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// origin is enforced by the CORS layer in front of the upgrade
		return true
	},
}

// Connection is one websocket subscriber of the price stream.
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	LastPing time.Time
}

// PushMessage is the envelope for every pushed frame.
type PushMessage struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id"`
	Data      interface{} `json:"data"`
}

// WebSocketPushService broadcasts price updates to connected clients. It
// implements pricing.PriceChangeListener so the price monitor can feed it
// directly.
type WebSocketPushService struct {
	connections map[string]*Connection
	hub         chan PushMessage
	register    chan *Connection
	unregister  chan *Connection
	mutex       sync.RWMutex
	snapshot    func() []pricing.PriceEntry
}

// NewWebSocketPushService creates the push service and starts its hub loop.
func NewWebSocketPushService() *WebSocketPushService {
	service := &WebSocketPushService{
		connections: make(map[string]*Connection),
		hub:         make(chan PushMessage, 256),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
	}

	go service.run()
	return service
}

func (s *WebSocketPushService) run() {
	for {
		select {
		case conn := <-s.register:
			s.handleRegister(conn)

		case conn := <-s.unregister:
			s.handleUnregister(conn)

		case message := <-s.hub:
			s.handleBroadcast(message)
		}
	}
}

// SetSnapshotSource registers the provider of the current price set. New
// clients receive it as their first frame so they do not wait out a refresh
// interval for data.
func (s *WebSocketPushService) SetSnapshotSource(snapshot func() []pricing.PriceEntry) {
	s.mutex.Lock()
	s.snapshot = snapshot
	s.mutex.Unlock()
}

// OnPriceChange implements pricing.PriceChangeListener.
func (s *WebSocketPushService) OnPriceChange(entries []pricing.PriceEntry) {
	message := PushMessage{
		Type:      "price_update",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		MessageID: uuid.New().String(),
		Data:      entries,
	}
	select {
	case s.hub <- message:
	default:
		logrus.Warn("websocket hub full, dropping price update")
	}
}

// HandleUpgrade upgrades an HTTP request and serves it until disconnect.
func (s *WebSocketPushService) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := &Connection{
		ID:       uuid.New().String(),
		Conn:     wsConn,
		Send:     make(chan []byte, 64),
		LastPing: time.Now(),
	}
	s.register <- conn

	go s.writeLoop(conn)
	s.readLoop(conn)
}

func (s *WebSocketPushService) handleRegister(conn *Connection) {
	s.mutex.Lock()
	s.connections[conn.ID] = conn
	snapshot := s.snapshot
	s.mutex.Unlock()
	metrics.WebSocketConnections.Inc()
	logrus.WithField("connection_id", conn.ID).Debug("websocket client connected")

	if snapshot == nil {
		return
	}
	entries := snapshot()
	if len(entries) == 0 {
		return
	}
	message := PushMessage{
		Type:      "price_snapshot",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		MessageID: uuid.New().String(),
		Data:      entries,
	}
	data, err := json.Marshal(message)
	if err != nil {
		logrus.WithError(err).Warn("failed to marshal snapshot message")
		return
	}
	select {
	case conn.Send <- data:
	default:
	}
}

func (s *WebSocketPushService) handleUnregister(conn *Connection) {
	s.mutex.Lock()
	if _, ok := s.connections[conn.ID]; ok {
		delete(s.connections, conn.ID)
		close(conn.Send)
		metrics.WebSocketConnections.Dec()
	}
	s.mutex.Unlock()
	logrus.WithField("connection_id", conn.ID).Debug("websocket client disconnected")
}

func (s *WebSocketPushService) handleBroadcast(message PushMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		logrus.WithError(err).Warn("failed to marshal push message")
		return
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, conn := range s.connections {
		select {
		case conn.Send <- data:
		default:
			// slow consumer, skip this frame
		}
	}
}

func (s *WebSocketPushService) writeLoop(conn *Connection) {
	pingTicker := time.NewTicker(30 * time.Second)
	defer func() {
		pingTicker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-conn.Send:
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *WebSocketPushService) readLoop(conn *Connection) {
	defer func() {
		s.unregister <- conn
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(4096)
	conn.Conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.Conn.SetPongHandler(func(string) error {
		conn.LastPing = time.Now()
		conn.Conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/events"
)

// wsConn is the write surface of a websocket connection the hub needs.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
}

// WSHub fans market events out to connected WebSocket clients. All data is
// public, so there is no per-connection identity and every client gets every
// event.
//
// The hub subscribes to two streams and each subscription delivers on its
// own goroutine, while websocket connections forbid concurrent writers.
// broadcast therefore holds the exclusive lock for the whole write pass:
// writes to any one connection are serialized through the hub.
type WSHub struct {
	subscriber events.Subscriber
	log        *zap.Logger

	mu          sync.Mutex
	connections map[wsConn]struct{}
}

func NewWSHub(subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		subscriber:  subscriber,
		log:         log,
		connections: make(map[wsConn]struct{}),
	}
}

func (h *WSHub) Start(ctx context.Context) {
	_ = h.subscriber.Subscribe(ctx, events.StreamMarket, h.broadcast)
	_ = h.subscriber.Subscribe(ctx, events.StreamChain, h.broadcast)
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (h *WSHub) register(conn wsConn) {
	h.mu.Lock()
	h.connections[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *WSHub) unregister(conn wsConn) {
	h.mu.Lock()
	delete(h.connections, conn)
	h.mu.Unlock()
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	h.register(conn)
	defer func() {
		h.unregister(conn)
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

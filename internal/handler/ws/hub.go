// Package ws streams emitted signals to websocket subscribers.
package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FinSignal/internal/domain/models"
	applogger "FinSignal/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 50 * time.Second
	sendBuffer   = 64
)

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	symbols map[string]struct{} // empty means all
}

func (c *client) wants(symbol string) bool {
	if len(c.symbols) == 0 {
		return true
	}
	_, ok := c.symbols[symbol]
	return ok
}

// Hub fans signals out to connected clients. Slow clients whose buffer is
// full are dropped.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

func NewHub(l *applogger.Logger) *Hub {
	if l == nil {
		l = applogger.Nop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		l: l,
	}
}

// RegisterRoutes mounts GET /ws/signals. ?symbols=AAPL,MSFT narrows the stream.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/signals", h.Serve)
}

func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("ws upgrade failed", applogger.Error(err))
		return nil
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer), symbols: parseSymbols(c.QueryParam("symbols"))}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.l.Debug("ws client connected", applogger.String("remote", c.RealIP()), applogger.Int("clients", n))

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// Broadcast sends s to every interested client.
func (h *Hub) Broadcast(s *models.Signal) {
	msg, err := json.Marshal(s)
	if err != nil {
		h.l.Error("ws encode signal", applogger.Error(err))
		return
	}
	h.mu.RLock()
	var slow []*client
	for cl := range h.clients {
		if !cl.wants(s.Symbol) {
			continue
		}
		select {
		case cl.send <- msg:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()
	for _, cl := range slow {
		h.l.Warn("ws client too slow, dropping")
		h.remove(cl)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		all = append(all, cl)
	}
	h.mu.RUnlock()
	for _, cl := range all {
		h.remove(cl)
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
}

// readLoop discards client frames; it exists to process pongs and notice
// disconnects.
func (h *Hub) readLoop(cl *client) {
	defer func() {
		h.remove(cl)
		_ = cl.conn.Close()
	}()
	cl.conn.SetReadLimit(4096)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseSymbols(q string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range strings.Split(q, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}

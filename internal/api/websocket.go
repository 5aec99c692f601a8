package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/trackhound/trackhound/internal/auth"
)

// WSHub fans scan events out to connected clients. Each user only sees
// their own events.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool
}

type WSClient struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*WSClient]bool)}
}

// Broadcast sends an event to every client of the user named in the
// payload's user_id field. Events without a user_id go to everyone.
func (h *WSHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		return
	}

	targetUser := ""
	if m, ok := data.(map[string]interface{}); ok {
		targetUser, _ = m["user_id"].(string)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if targetUser != "" && client.userID != targetUser {
			continue
		}
		select {
		case client.send <- msg:
		default:
			// Slow client; drop the frame rather than block the scan.
		}
	}
}

func (h *WSHub) addClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *WSHub) removeClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		userID: userID.String(),
		send:   make(chan []byte, 64),
	}

	s.wsHub.addClient(client)
	log.Printf("WebSocket client connected: %s", client.userID)

	ctx := r.Context()

	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range client.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop keeps the connection alive and detects disconnects.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	s.wsHub.removeClient(client)
	log.Printf("WebSocket client disconnected: %s", client.userID)
}

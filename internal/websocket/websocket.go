package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/coinche/internal/logger"
	"github.com/abrezinsky/coinche/internal/models"
	"github.com/abrezinsky/coinche/internal/services"
)

// Message types
const (
	TypeMatchState   = "match_state"
	TypeHandScored   = "hand_scored"
	TypeMatchUpdated = "match_updated"
	TypeMatchEnded   = "match_ended"
	TypeViewers      = "viewers"
	TypeError        = "error"
	TypeSubscribe    = "subscribe"

	celebratePrefix = "celebrate_"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // scoreboards are opened from phones on the local network
	},
}

// MatchReader loads the snapshot sent to a scoreboard when it subscribes
type MatchReader interface {
	GetMatch(ctx context.Context, id string) (*services.MatchView, error)
}

// Hub maintains the set of active scoreboards and fans out match events.
// A client subscribed to a match only receives that match's events; a client
// with no subscription receives everything.
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	matches    MatchReader
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan models.WSMessage
	matchID string // guarded by hub.mutex
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, matches MatchReader) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		matches:    matches,
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			matchID := client.matchID
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "match_id", matchID, "total_clients", total)

			if matchID != "" {
				go h.sendSnapshot(client, matchID)
			}

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", total)

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if message.MatchID != "" && client.matchID != "" && client.matchID != message.MatchID {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// sendSnapshot pushes the current state of a match to one client
func (h *Hub) sendSnapshot(client *Client, matchID string) {
	view, err := h.matches.GetMatch(context.Background(), matchID)
	if err != nil {
		h.log.Debug("Snapshot unavailable", "match_id", matchID, "error", err)
		h.sendTo(client, models.WSMessage{Type: TypeError, MatchID: matchID, Payload: map[string]string{"error": err.Error()}})
		return
	}
	h.sendTo(client, models.WSMessage{Type: TypeMatchState, MatchID: matchID, Payload: view})
}

// sendTo delivers a message to one client if it is still connected
func (h *Hub) sendTo(client *Client, message models.WSMessage) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- message:
	default:
	}
}

// subscribe points a client at a match and sends it the match state
func (h *Hub) subscribe(client *Client, matchID string) {
	h.mutex.Lock()
	client.matchID = matchID
	h.mutex.Unlock()
	if matchID != "" {
		h.sendSnapshot(client, matchID)
	}
}

// BroadcastMessage sends a message to every client following matchID
func (h *Hub) BroadcastMessage(matchID, msgType string, payload interface{}) {
	h.broadcast <- models.WSMessage{
		Type:    msgType,
		MatchID: matchID,
		Payload: payload,
	}
}

// BroadcastHand implements services.Broadcaster
func (h *Hub) BroadcastHand(matchID string, payload interface{}) {
	h.BroadcastMessage(matchID, TypeHandScored, payload)
}

// BroadcastCelebration implements services.Broadcaster
func (h *Hub) BroadcastCelebration(matchID, celebration string, payload interface{}) {
	h.BroadcastMessage(matchID, celebratePrefix+celebration, payload)
}

// BroadcastMatchUpdated implements services.Broadcaster
func (h *Hub) BroadcastMatchUpdated(matchID string, payload interface{}) {
	h.BroadcastMessage(matchID, TypeMatchUpdated, payload)
}

// BroadcastMatchEnded implements services.Broadcaster
func (h *Hub) BroadcastMatchEnded(matchID string, payload interface{}) {
	h.BroadcastMessage(matchID, TypeMatchEnded, payload)
}

// Viewers counts connected clients per followed match
func (h *Hub) Viewers() map[string]int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	counts := make(map[string]int)
	for client := range h.clients {
		if client.matchID != "" {
			counts[client.matchID]++
		}
	}
	return counts
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		c.hub.log.Debug("Received message", "type", msg.Type, "match_id", msg.MatchID)
		if msg.Type == TypeSubscribe {
			c.hub.subscribe(c, msg.MatchID)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			msgBytes, _ := json.Marshal(message)
			w.Write(msgBytes)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles websocket requests from scoreboards. The optional match
// query parameter subscribes the connection straight away.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan models.WSMessage, 256),
		matchID: r.URL.Query().Get("match"),
	}
	h.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}

// StartViewerCounts periodically tells each scoreboard how many screens
// follow its match. Counts are only sent when they change.
func (h *Hub) StartViewerCounts(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := map[string]int{}
	for {
		select {
		case <-ctx.Done():
			h.log.Info("Viewer counts stopped")
			return
		case <-ticker.C:
			last = h.publishViewerCounts(last)
		}
	}
}

// publishViewerCounts broadcasts changed counts and returns the new snapshot
func (h *Hub) publishViewerCounts(last map[string]int) map[string]int {
	current := h.Viewers()
	for matchID, n := range current {
		if last[matchID] != n {
			h.BroadcastMessage(matchID, TypeViewers, map[string]int{"count": n})
		}
	}
	return current
}

// Ensure Hub implements services.Broadcaster
var _ services.Broadcaster = (*Hub)(nil)

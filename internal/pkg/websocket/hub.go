// Package websocket streams accepted check-ins to lecturers watching a
// session live.
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/atlasedu/rollcall/internal/app/models"
)

// Event is one message on a session's live feed.
type Event struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"sessionId"`
	RecordID    string    `json:"recordId,omitempty"`
	StudentID   string    `json:"studentId,omitempty"`
	Distance    *float64  `json:"distance,omitempty"`
	CheckedInAt time.Time `json:"checkedInAt,omitempty"`
}

// EventTypeCheckIn marks an accepted check-in on the feed.
const EventTypeCheckIn = "check_in"

// Hub maintains the set of active clients per session and broadcasts
// events to them.
type Hub struct {
	// Registered clients organized by session ID
	clients map[string]map[*Client]bool

	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run handles client registrations and broadcasts until the process
// exits. Intended to run on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// BroadcastRecord publishes an accepted check-in to the session's feed.
// Implements services.RecordBroadcaster.
func (h *Hub) BroadcastRecord(record *models.AttendanceRecord) {
	event := &Event{
		Type:        EventTypeCheckIn,
		SessionID:   record.AttendanceSessionID,
		RecordID:    record.ID,
		StudentID:   record.StudentID,
		Distance:    record.Distance,
		CheckedInAt: record.CheckedInAt,
	}

	select {
	case h.broadcast <- event:
	default:
		// A full broadcast buffer must not stall check-in commits; the
		// feed is best-effort.
		h.logger.Warn().Str("sessionID", record.AttendanceSessionID).Msg("Live feed buffer full, event dropped")
	}
}

// ClientCount returns the number of connected clients for a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.sessionID]; !ok {
		h.clients[client.sessionID] = make(map[*Client]bool)
	}
	h.clients[client.sessionID][client] = true

	h.logger.Info().
		Str("sessionID", client.sessionID).
		Str("userID", client.userID).
		Msg("Live feed client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.clients, client.sessionID)
			}

			h.logger.Info().
				Str("sessionID", client.sessionID).
				Str("userID", client.userID).
				Msg("Live feed client unregistered")
		}
	}
}

func (h *Hub) broadcastEvent(event *Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[event.SessionID]))
	for client := range h.clients[event.SessionID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("sessionID", event.SessionID).Msg("Failed to marshal live feed event")
		return
	}

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the connection rather than the feed.
			// Unregister inline: sending on h.unregister from here would
			// deadlock the Run goroutine against itself.
			h.unregisterClient(client)
		}
	}
}

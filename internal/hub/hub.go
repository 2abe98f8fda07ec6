// Package hub streams sync progress to browsers over Server-Sent Events.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// keepAlive is the interval between comment frames on idle streams
const keepAlive = 30 * time.Second

// message is one named event queued for broadcast
type message struct {
	name    string
	payload interface{}
}

// client is one connected SSE stream
type client struct {
	id     string
	frames chan []byte
}

// Hub fans named events out to every connected SSE client
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan message
	done       chan struct{}
}

// New creates a hub; start it with Run
func New() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client stream
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.frames)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("SSE client connected: %s (total: %d)", c.id, n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.frames)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("SSE client disconnected: %s (total: %d)", c.id, n)

		case m := <-h.broadcast:
			frame, err := encode(m)
			if err != nil {
				log.Printf("Failed to marshal %s event: %v", m.name, err)
				continue
			}

			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.frames <- frame:
				default:
					log.Printf("SSE client %s is slow, skipping %s event", c.id, m.name)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func encode(m message) ([]byte, error) {
	data, err := json.Marshal(m.payload)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", m.name, data)), nil
}

// Broadcast queues a named event for every client. Events are dropped
// when the queue is full.
func (h *Hub) Broadcast(name string, payload interface{}) {
	select {
	case h.broadcast <- message{name: name, payload: payload}:
	default:
		log.Printf("Broadcast queue full, dropping %s event", name)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP streams events to one client until it disconnects or the hub
// stops
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	c := &client{
		id:     uuid.NewString(),
		frames: make(chan []byte, 64),
	}

	select {
	case h.register <- c:
	case <-h.done:
		http.Error(w, "Event stream closed", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.frames:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

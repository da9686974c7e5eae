package inspect

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/lazydefine/pkg/customelements"
)

// EventType represents the type of feed event.
type EventType string

const (
	EventHello   EventType = "hello"
	EventDefined EventType = "defined"
)

// Event is sent to feed clients via WebSocket.
type Event struct {
	Type      EventType `json:"type"`
	Name      string    `json:"name,omitempty"`
	Extends   string    `json:"extends,omitempty"`
	DefinedAt time.Time `json:"definedAt,omitzero"`
	Count     int       `json:"count,omitempty"`
}

// Feed manages WebSocket connections that receive definition events.
type Feed struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
	count    func() int
}

// NewFeed creates a feed. count, if non-nil, reports the number of
// definitions sent in the hello event.
func NewFeed(count func() int) *Feed {
	return &Feed{
		clients: make(map[*websocket.Conn]bool),
		count:   count,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the connection and keeps it until the client leaves.
func (f *Feed) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := f.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	hello := Event{Type: EventHello}
	if f.count != nil {
		hello.Count = f.count()
	}
	data, err := json.Marshal(hello)
	if err != nil {
		conn.Close()
		return
	}

	// Register before the hello is written so a client that has seen the
	// hello sees every later definition.
	f.writeMu.Lock()
	f.mu.Lock()
	f.clients[conn] = true
	f.mu.Unlock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	f.writeMu.Unlock()
	if err != nil {
		f.drop(conn)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	f.drop(conn)
}

// Defined broadcasts a definition event. It matches the
// customelements.Registry.OnDefine hook signature.
func (f *Feed) Defined(def customelements.Definition) {
	f.broadcast(Event{
		Type:      EventDefined,
		Name:      def.Name,
		Extends:   def.Extends,
		DefinedAt: def.DefinedAt,
	})
}

func (f *Feed) broadcast(ev Event) {
	f.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(f.clients))
	for client := range f.clients {
		clients = append(clients, client)
	}
	f.mu.RUnlock()

	for _, client := range clients {
		if err := f.write(client, ev); err != nil {
			f.drop(client)
		}
	}
}

// write serializes writes; gorilla connections allow one concurrent writer.
func (f *Feed) write(conn *websocket.Conn, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (f *Feed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (f *Feed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Close closes all client connections.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for client := range f.clients {
		client.Close()
		delete(f.clients, client)
	}
}

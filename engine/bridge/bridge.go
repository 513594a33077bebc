// Package bridge forwards event bus traffic to websocket clients and turns
// their commands back into calls on the globe.
package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Message is the JSON envelope sent to clients for every forwarded event.
type Message struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload,omitempty"`
}

// Command is a request sent by a client.
type Command struct {
	Name    string `json:"command"`
	ISOCode string `json:"isoCode,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Known command names.
const (
	CommandFocus      = "focus"
	CommandSelect     = "select"
	CommandClear      = "clear"
	CommandReset      = "reset"
	CommandAutoRotate = "auto-rotate"
)

// CommandHandler receives decoded client commands. It runs on the connection's
// read goroutine, so handlers that touch frame-owned state should hand the work
// to the frame goroutine, for example through clock.Scheduler.
type CommandHandler func(Command)

type client struct {
	mu     sync.Mutex
	id     string
	conn   *websocket.Conn
	send   chan []byte
	closed bool
}

// offer queues data without blocking. It returns false when the buffer is full or the client is gone.
func (c *client) offer(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

type bridgeImpl struct {
	mu *sync.Mutex

	bus      eventbus.EventBus
	subID    string
	upgrader websocket.Upgrader
	excluded map[string]bool
	buffer   int
	commands CommandHandler
	logger   logging.Logger
	metrics  *profiler.Collector

	clients map[string]*client
	closed  bool
}

// Bridge serves websocket clients on ServeHTTP. Every bus event outside the
// excluded topics is sent to each client as a Message. Slow clients lose
// messages once their buffer is full; the frame loop never blocks on them.
type Bridge interface {
	http.Handler

	// ClientCount returns the number of connected clients.
	ClientCount() int

	// Close unsubscribes from the bus and disconnects every client.
	Close()
}

var _ Bridge = &bridgeImpl{}

// NewBridge creates a bridge subscribed to every topic of bus.
// frame:tick and pointer:move are excluded unless WithExcludedTopics says otherwise.
//
// Parameters:
//   - bus: the event bus to forward
//   - options: functional options to configure the bridge
//
// Returns:
//   - Bridge: the newly created bridge
func NewBridge(bus eventbus.EventBus, options ...BridgeBuilderOption) Bridge {
	b := &bridgeImpl{
		mu:  &sync.Mutex{},
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		excluded: map[string]bool{
			eventbus.TopicFrameTick:   true,
			eventbus.TopicPointerMove: true,
		},
		buffer:  64,
		logger:  logging.Noop(),
		clients: make(map[string]*client),
	}
	for _, opt := range options {
		opt(b)
	}
	b.subID = bus.Subscribe(eventbus.TopicAll, b.forward)
	return b
}

func (b *bridgeImpl) forward(evt eventbus.Event) error {
	if b.excluded[evt.Topic] {
		return nil
	}

	b.mu.Lock()
	if len(b.clients) == 0 {
		b.mu.Unlock()
		return nil
	}
	targets := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.Unlock()

	data, err := json.Marshal(Message{Topic: evt.Topic, Payload: evt.Payload})
	if err != nil {
		return err
	}
	for _, c := range targets {
		if !c.offer(data) {
			b.logger.Debug(context.Background(), "bridge client buffer full, dropping message",
				logging.String("client", c.id),
				logging.String("topic", evt.Topic),
			)
		}
	}
	return nil
}

func (b *bridgeImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn(context.Background(), "websocket upgrade failed", logging.Err(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, b.buffer),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return
	}
	b.clients[c.id] = c
	count := len(b.clients)
	b.mu.Unlock()

	b.metrics.SetBridgeClients(count)
	b.logger.Info(context.Background(), "bridge client connected",
		logging.String("client", c.id),
		logging.String("remote", r.RemoteAddr),
	)

	go b.writeLoop(c)
	b.readLoop(c)
}

func (b *bridgeImpl) readLoop(c *client) {
	defer b.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Warn(context.Background(), "bridge client read failed",
					logging.String("client", c.id),
					logging.Err(err),
				)
			}
			return
		}
		if cmd.Name == "" {
			continue
		}
		if b.commands != nil {
			b.commands(cmd)
		}
	}
}

func (b *bridgeImpl) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *bridgeImpl) remove(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c.id]
	delete(b.clients, c.id)
	count := len(b.clients)
	b.mu.Unlock()

	c.close()
	if ok {
		b.metrics.SetBridgeClients(count)
		b.logger.Info(context.Background(), "bridge client disconnected", logging.String("client", c.id))
	}
}

func (b *bridgeImpl) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *bridgeImpl) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	clients := b.clients
	b.clients = make(map[string]*client)
	b.mu.Unlock()

	b.bus.Unsubscribe(b.subID)
	for _, c := range clients {
		c.close()
	}
	b.metrics.SetBridgeClients(0)
}

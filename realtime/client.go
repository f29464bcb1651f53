package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const dialTimeout = 10 * time.Second

// Channel is one subscription to a relay topic. Handlers must be attached
// before Start; after Start the read loop dispatches until the connection
// drops or Leave is called.
type Channel struct {
	topic string
	conn  *websocket.Conn

	writeMu sync.Mutex

	mu        sync.Mutex
	broadcast map[string][]func(json.RawMessage)
	presence  []func(json.RawMessage)
	status    []func(Status)
	left      bool
}

// Subscribe dials the relay for one topic. baseURL is the websocket origin,
// e.g. "ws://127.0.0.1:8080"; the topic becomes the path suffix.
func Subscribe(ctx context.Context, baseURL, topic string) (*Channel, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, baseURL+"/ws/"+topic, nil)
	if err != nil {
		return nil, err
	}
	return &Channel{
		topic:     topic,
		conn:      conn,
		broadcast: make(map[string][]func(json.RawMessage)),
	}, nil
}

// Topic returns the subscribed topic name.
func (c *Channel) Topic() string {
	return c.topic
}

// OnBroadcast registers a handler for one broadcast event name.
func (c *Channel) OnBroadcast(event string, fn func(json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcast[event] = append(c.broadcast[event], fn)
}

// OnPresenceSync registers a handler for presence snapshots.
func (c *Channel) OnPresenceSync(fn func(json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presence = append(c.presence, fn)
}

// OnStatus registers a handler for channel lifecycle statuses.
func (c *Channel) OnStatus(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = append(c.status, fn)
}

// Start launches the read loop. Call once, after handlers are attached.
func (c *Channel) Start() {
	go c.readLoop()
}

func (c *Channel) readLoop() {
	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			left := c.left
			handlers := append(([]func(Status))(nil), c.status...)
			c.mu.Unlock()
			if !left {
				for _, fn := range handlers {
					fn(StatusClosed)
				}
			}
			return
		}

		switch env.Type {
		case TypeBroadcast:
			c.mu.Lock()
			handlers := append(([]func(json.RawMessage))(nil), c.broadcast[env.Event]...)
			c.mu.Unlock()
			for _, fn := range handlers {
				fn(env.Payload)
			}
		case TypePresence:
			if env.Event != PresenceSync {
				continue
			}
			c.mu.Lock()
			handlers := append(([]func(json.RawMessage))(nil), c.presence...)
			c.mu.Unlock()
			for _, fn := range handlers {
				fn(env.Payload)
			}
		}
		// Unknown envelope types are dropped; the client must survive
		// anything the wire hands it.
	}
}

func (c *Channel) write(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(env)
}

// Send broadcasts an event to every other subscriber of the topic. No ack,
// no retry; a dropped message is simply gone.
func (c *Channel) Send(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.write(Envelope{Type: TypeBroadcast, Event: event, Payload: raw})
}

// Track publishes this client's presence record. The relay responds by
// broadcasting a fresh presence snapshot to every subscriber.
func (c *Channel) Track(record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.write(Envelope{Type: TypeTrack, Payload: raw})
}

// Leave closes the subscription. The relay untracks this client and syncs
// the remaining presence set.
func (c *Channel) Leave() error {
	c.mu.Lock()
	c.left = true
	c.mu.Unlock()
	return c.conn.Close()
}

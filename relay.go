// GameTeamer realtime relay
//
// Each room code maps to a topic. The relay is a dumb broadcast substrate:
// it fans every broadcast envelope out to the topic's other subscribers and
// keeps a presence directory of tracked records, re-synced in full on every
// change. It holds no game state and arbitrates nothing; the clients'
// convergence protocol owns consistency.
//
// Semantics intentionally offered:
// - at-most-once delivery: a slow subscriber's queue overflows and drops
// - no ordering guarantees across senders
// - no acks, no replay, no room registry: subscribing creates the topic
// - presence sync is always the full snapshot, never a diff
// - topics are reaped after a configurable idle timeout

package main

import (
	"crypto/rand"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/HyIsNoob/GameTeamer/realtime"
)

type relayClient struct {
	conn *websocket.Conn
	send chan realtime.Envelope
}

type relayFrame struct {
	from *relayClient
	env  realtime.Envelope
}

// Topic is one room's fan-out hub.
type Topic struct {
	name    string
	clients map[*relayClient]bool
	tracked map[*relayClient]json.RawMessage

	register chan *relayClient
	unreg    chan *relayClient
	frames   chan relayFrame

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

func newTopic(name string) *Topic {
	now := time.Now()
	return &Topic{
		name:       name,
		clients:    make(map[*relayClient]bool),
		tracked:    make(map[*relayClient]json.RawMessage),
		register:   make(chan *relayClient),
		unreg:      make(chan *relayClient),
		frames:     make(chan relayFrame),
		createdAt:  now,
		lastActive: now,
	}
}

func (t *Topic) run(cfg *Config) {
	for {
		select {
		case c := <-t.register:
			t.mu.Lock()
			t.lastActive = time.Now()
			t.clients[c] = true
			// Late subscribers get the directory immediately; their own
			// record appears once they track.
			snapshot := t.presenceSnapshotLocked()
			t.mu.Unlock()

			select {
			case c.send <- snapshot:
			default:
			}

		case c := <-t.unreg:
			t.mu.Lock()
			t.lastActive = time.Now()
			if _, ok := t.clients[c]; ok {
				delete(t.clients, c)
				close(c.send)
			}
			_, hadPresence := t.tracked[c]
			delete(t.tracked, c)
			if hadPresence {
				t.broadcastPresenceLocked()
			}
			t.mu.Unlock()

		case f := <-t.frames:
			t.mu.Lock()
			t.lastActive = time.Now()
			switch f.env.Type {
			case realtime.TypeBroadcast:
				for c := range t.clients {
					if c == f.from {
						continue
					}
					select {
					case c.send <- f.env:
					default:
						delete(t.clients, c)
						delete(t.tracked, c)
						close(c.send)
					}
				}
			case realtime.TypeTrack:
				t.tracked[f.from] = f.env.Payload
				t.broadcastPresenceLocked()
			}
			t.mu.Unlock()
		}
	}
}

func (t *Topic) presenceSnapshotLocked() realtime.Envelope {
	records := make([]json.RawMessage, 0, len(t.tracked))
	for _, rec := range t.tracked {
		records = append(records, rec)
	}
	payload, _ := json.Marshal(records)
	return realtime.Envelope{
		Type:    realtime.TypePresence,
		Event:   realtime.PresenceSync,
		Payload: payload,
	}
}

func (t *Topic) broadcastPresenceLocked() {
	snapshot := t.presenceSnapshotLocked()
	for c := range t.clients {
		select {
		case c.send <- snapshot:
		default:
			delete(t.clients, c)
			delete(t.tracked, c)
			close(c.send)
		}
	}
}

// closeAll disconnects every client of this topic (used by the reaper).
func (t *Topic) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for c := range t.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(t.clients, c)
	}
	t.tracked = make(map[*relayClient]json.RawMessage)
}

// Relay holds a set of topics keyed by room code.
type Relay struct {
	mu          sync.Mutex
	topics      map[string]*Topic
	idleTimeout time.Duration
}

func newRelay(idleTimeout time.Duration) *Relay {
	r := &Relay{
		topics:      make(map[string]*Topic),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go r.reaperLoop()
	}
	return r
}

func (r *Relay) topic(cfg *Config, name string) *Topic {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.topics[name]; ok {
		return t
	}

	t := newTopic(name)
	r.topics[name] = t
	go t.run(cfg)
	return t
}

// newRoomCode generates a short uppercase room code and ensures it doesn't
// collide with a live topic.
func (r *Relay) newRoomCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 6)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		code := string(out)

		r.mu.Lock()
		_, exists := r.topics[code]
		r.mu.Unlock()

		if !exists {
			return code
		}
	}
}

// reaperLoop periodically removes topics idle longer than idleTimeout.
func (r *Relay) reaperLoop() {
	ticker := time.NewTicker(r.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-r.idleTimeout)

		r.mu.Lock()
		for name, t := range r.topics {
			t.mu.RLock()
			last := t.lastActive
			age := time.Since(t.createdAt)
			t.mu.RUnlock()

			if last.Before(cutoff) {
				delete(r.topics, name)
				log.Printf("RELAY: Reaped idle room %s after %s", name, age.Round(time.Second))
				go t.closeAll()
			}
		}
		r.mu.Unlock()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveRelayWS subscribes a websocket to the topic named by :room.
func serveRelayWS(cfg *Config, relay *Relay) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room := ps.ByName("room")
		if room == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		t := relay.topic(cfg, room)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &relayClient{
			conn: conn,
			send: make(chan realtime.Envelope, 16),
		}

		t.register <- client
		logf(cfg, "RELAY: Subscriber joined %s from %s", room, realIP(r))

		go client.writePump()
		client.readPump(t)
	}
}

func (c *relayClient) readPump(t *Topic) {
	defer func() {
		t.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var env realtime.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}

		switch env.Type {
		case realtime.TypeBroadcast, realtime.TypeTrack:
			t.frames <- relayFrame{from: c, env: env}
		default:
			// ignore unknown envelope types
		}
	}
}

func (c *relayClient) writePump() {
	defer c.conn.Close()

	for env := range c.send {
		if err := c.conn.WriteJSON(env); err != nil {
			return
		}
	}
}

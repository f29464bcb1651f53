package randomizer

import (
	"sync"
	"time"
)

// RollHistoryCap bounds the roll history ring buffer.
const RollHistoryCap = 5

// ChatMessage is one chat broadcast payload.
type ChatMessage struct {
	ID     string    `json:"id"`
	From   string    `json:"from"`
	Name   string    `json:"name"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// ChatLog is an append-only local chat feed. Ordering is receipt order, not
// timestamp order; the sender appends its own messages optimistically and is
// not echoed back by the relay.
type ChatLog struct {
	mu   sync.Mutex
	msgs []ChatMessage
}

// Append adds a message to the end of the feed.
func (c *ChatLog) Append(msg ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

// Messages returns a copy of the feed in receipt order.
func (c *ChatLog) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatMessage(nil), c.msgs...)
}

// RollRecord is one applied session-state snapshot, loadouts only.
type RollRecord struct {
	At       time.Time          `json:"at"`
	Loadouts map[string]Loadout `json:"loadouts"`
}

// RollHistory keeps the last RollHistoryCap applied snapshots, newest first.
// It is written exactly once per accepted, non-ghost state update.
type RollHistory struct {
	mu      sync.Mutex
	entries []RollRecord
}

// Add pushes a record onto the front, evicting the oldest past the cap.
func (h *RollHistory) Add(rec RollRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]RollRecord{rec}, h.entries...)
	if len(h.entries) > RollHistoryCap {
		h.entries = h.entries[:RollHistoryCap]
	}
}

// Entries returns a copy, newest first.
func (h *RollHistory) Entries() []RollRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RollRecord(nil), h.entries...)
}

// Len reports the current number of records.
func (h *RollHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Package realtime speaks the relay's wire protocol: fire-and-forget
// broadcasts fanned out per topic, plus a presence directory kept in sync by
// full snapshots. The substrate is deliberately weak (at-most-once,
// unordered, no acks) and everything above it is built to tolerate that.
package realtime

import "encoding/json"

// Envelope frames every websocket message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Envelope types.
const (
	TypeBroadcast = "broadcast"
	TypePresence  = "presence"
	TypeTrack     = "track"
)

// PresenceSync is the event name carried by presence envelopes; the payload
// is always the full tracked-record snapshot for the topic.
const PresenceSync = "sync"

// Status mirrors the channel lifecycle statuses a subscriber observes.
type Status string

const (
	StatusSubscribed Status = "SUBSCRIBED"
	StatusTimedOut   Status = "TIMED_OUT"
	StatusClosed     Status = "CLOSED"
)

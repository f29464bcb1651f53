package realtime

import (
	"context"
	"encoding/json"

	"github.com/HyIsNoob/GameTeamer/randomizer"
)

// sessionChannel narrows Channel to the interface a session drives.
type sessionChannel struct {
	*Channel
}

func (c sessionChannel) Track(rec randomizer.PresenceRecord) error {
	return c.Channel.Track(rec)
}

var sessionEvents = []string{
	randomizer.EventRollStart,
	randomizer.EventGameUpdate,
	randomizer.EventChat,
	randomizer.EventRoomClosed,
	randomizer.EventScoreUpdate,
	randomizer.EventScoreClear,
}

// Open dials the relay for a room, binds the channel to the session, and
// reports the subscribed status so the session's lifecycle machine advances.
// create skips join validation; a joining session still has to wait out the
// presence settle window before it is active.
func Open(ctx context.Context, baseURL, room string, s *randomizer.Session, create bool) (*Channel, error) {
	ch, err := Subscribe(ctx, baseURL, room)
	if err != nil {
		return nil, err
	}

	sc := sessionChannel{ch}
	if create {
		err = s.Create(sc, room)
	} else {
		err = s.Join(sc, room)
	}
	if err != nil {
		_ = ch.Leave()
		return nil, err
	}

	for _, event := range sessionEvents {
		event := event
		ch.OnBroadcast(event, func(payload json.RawMessage) {
			s.HandleBroadcast(event, payload)
		})
	}
	ch.OnPresenceSync(func(payload json.RawMessage) {
		var records []randomizer.PresenceRecord
		if err := json.Unmarshal(payload, &records); err != nil {
			return
		}
		s.HandlePresence(records)
	})
	ch.OnStatus(func(status Status) {
		s.HandleStatus(randomizer.SubscribeStatus(status))
	})

	ch.Start()
	s.HandleStatus(randomizer.StatusSubscribed)
	return ch, nil
}

// SeatStore persists the participant id used in each room, so a later
// connection to the same room re-binds to the same logical seat.
type SeatStore interface {
	ParticipantID(room string) (string, error)
	SetParticipantID(room, id string) error
}

// OpenSeat is Open plus seat re-binding: the session is built with the id
// previously stored for this room (a fresh one when none exists), and the id
// in use is written back after connecting.
func OpenSeat(ctx context.Context, baseURL, room, name string, exclusions []string, opts randomizer.Options, create bool, seats SeatStore) (*Channel, *randomizer.Session, error) {
	var selfID string
	if seats != nil {
		id, err := seats.ParticipantID(room)
		if err != nil {
			return nil, nil, err
		}
		selfID = id
	}

	s := randomizer.NewSession(selfID, name, exclusions, opts)
	ch, err := Open(ctx, baseURL, room, s, create)
	if err != nil {
		return nil, nil, err
	}

	if seats != nil {
		if err := seats.SetParticipantID(room, s.SelfID()); err != nil {
			_ = ch.Leave()
			return nil, nil, err
		}
	}
	return ch, s, nil
}

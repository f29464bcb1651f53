package randomizer

import "sort"

// PresenceRecord is the payload each client tracks into the presence
// directory. Field names are part of the wire format.
type PresenceRecord struct {
	UserID      string   `json:"userId"`
	UserName    string   `json:"user_name"`
	OnlineAt    string   `json:"online_at"`
	ExcludedIDs []string `json:"excluded_ids"`
}

// Participant is one resolved seat in the room.
type Participant struct {
	ID         string
	Name       string
	JoinedAt   string
	Slot       int
	Exclusions map[string]bool
}

// ResolveSlots projects a presence snapshot onto slot assignments. It is a
// pure function, recomputed fully on every presence change: participants sort
// by join timestamp (ties broken by id so a shuffled snapshot cannot change
// the output) and slot = rank mod capacity. Every client that sees the same
// snapshot converges to the same slot map.
func ResolveSlots(snapshot []PresenceRecord, capacity int) []Participant {
	if capacity < 1 {
		capacity = 1
	}
	records := append([]PresenceRecord(nil), snapshot...)
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].OnlineAt != records[j].OnlineAt {
			return records[i].OnlineAt < records[j].OnlineAt
		}
		return records[i].UserID < records[j].UserID
	})

	out := make([]Participant, 0, len(records))
	for i, r := range records {
		excl := make(map[string]bool, len(r.ExcludedIDs))
		for _, id := range r.ExcludedIDs {
			excl[id] = true
		}
		out = append(out, Participant{
			ID:         r.UserID,
			Name:       r.UserName,
			JoinedAt:   r.OnlineAt,
			Slot:       i % capacity,
			Exclusions: excl,
		})
	}
	return out
}

// HostID returns the id of the slot-0 occupant, or "" for an empty roster.
// Host is derived, never stored: if the original slot-0 occupant leaves, the
// next-earliest joiner becomes host on the following presence sync.
func HostID(participants []Participant) string {
	for _, p := range participants {
		if p.Slot == 0 {
			return p.ID
		}
	}
	return ""
}

// FindParticipant looks a participant up by id.
func FindParticipant(participants []Participant, id string) (Participant, bool) {
	for _, p := range participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

package randomizer

import "sync"

// Mode governs which loadout fields a roll fills in.
type Mode string

const (
	ModeFull        Mode = "FULL"
	ModeLegendsOnly Mode = "LEGENDS_ONLY"
	ModeWeaponsOnly Mode = "WEAPONS_ONLY"
	ModeRoles       Mode = "ROLES"
)

// Loadout is the randomized bundle for one participant. Unset fields mean
// the mode did not fill them.
type Loadout struct {
	Legend    *Legend `json:"legend,omitempty"`
	Primary   *Weapon `json:"primary,omitempty"`
	Secondary *Weapon `json:"secondary,omitempty"`
	Role      string  `json:"role,omitempty"`
}

// Permissions holds the two per-participant toggles. Each participant only
// ever mutates its own entry; deploy is meaningful only on the host's entry.
type Permissions struct {
	RerollMe map[string]bool `json:"reroll_me"`
	Deploy   map[string]bool `json:"deploy"`
}

// SessionState is the entire unit of replication. Every mutation is published
// as a full replacement snapshot, never a delta, so late or duplicated
// deliveries cannot corrupt a replica. Maps are keyed by participant id; an
// absent loadout key means that seat was never rolled.
type SessionState struct {
	Mode     Mode                `json:"mode"`
	Loadouts map[string]Loadout  `json:"loadouts"`
	Bans     map[string][]string `json:"bans"`
	Perms    Permissions         `json:"perms"`
}

// NewSessionState returns the all-empty state a room starts from.
func NewSessionState() SessionState {
	return SessionState{
		Mode:     ModeFull,
		Loadouts: make(map[string]Loadout),
		Bans:     make(map[string][]string),
		Perms: Permissions{
			RerollMe: make(map[string]bool),
			Deploy:   make(map[string]bool),
		},
	}
}

// Clone deep-copies the state so derived snapshots never alias the original.
func (s SessionState) Clone() SessionState {
	out := SessionState{
		Mode:     s.Mode,
		Loadouts: make(map[string]Loadout, len(s.Loadouts)),
		Bans:     make(map[string][]string, len(s.Bans)),
		Perms: Permissions{
			RerollMe: make(map[string]bool, len(s.Perms.RerollMe)),
			Deploy:   make(map[string]bool, len(s.Perms.Deploy)),
		},
	}
	for id, l := range s.Loadouts {
		out.Loadouts[id] = l
	}
	for id, bans := range s.Bans {
		out.Bans[id] = append([]string(nil), bans...)
	}
	for id, v := range s.Perms.RerollMe {
		out.Perms.RerollMe[id] = v
	}
	for id, v := range s.Perms.Deploy {
		out.Perms.Deploy[id] = v
	}
	return out
}

func loadoutEqual(a, b Loadout) bool {
	if a.Role != b.Role {
		return false
	}
	eq := func(x, y *Legend) bool {
		if (x == nil) != (y == nil) {
			return false
		}
		return x == nil || x.ID == y.ID
	}
	weq := func(x, y *Weapon) bool {
		if (x == nil) != (y == nil) {
			return false
		}
		return x == nil || x.ID == y.ID
	}
	return eq(a.Legend, b.Legend) && weq(a.Primary, b.Primary) && weq(a.Secondary, b.Secondary)
}

// LoadoutsEqual reports deep equality of two loadout maps. It is the gate for
// ghost-update suppression: a received snapshot whose loadouts match the
// local replica must not re-trigger side effects.
func LoadoutsEqual(a, b map[string]Loadout) bool {
	if len(a) != len(b) {
		return false
	}
	for id, la := range a {
		lb, ok := b[id]
		if !ok || !loadoutEqual(la, lb) {
			return false
		}
	}
	return true
}

func (s SessionState) withLoadout(id string, l Loadout) SessionState {
	out := s.Clone()
	out.Loadouts[id] = l
	return out
}

func (s SessionState) withLoadouts(loadouts map[string]Loadout) SessionState {
	out := s.Clone()
	out.Loadouts = make(map[string]Loadout, len(loadouts))
	for id, l := range loadouts {
		out.Loadouts[id] = l
	}
	return out
}

func (s SessionState) withBan(id, legendID string) SessionState {
	out := s.Clone()
	out.Bans[id] = append(out.Bans[id], legendID)
	return out
}

func (s SessionState) withMode(m Mode) SessionState {
	out := s.Clone()
	out.Mode = m
	return out
}

func (s SessionState) withRerollPerm(id string, allow bool) SessionState {
	out := s.Clone()
	out.Perms.RerollMe[id] = allow
	return out
}

func (s SessionState) withDeployPerm(id string, allow bool) SessionState {
	out := s.Clone()
	out.Perms.Deploy[id] = allow
	return out
}

// normalize replaces nil maps after JSON decoding so lookups never have to
// nil-check.
func (s *SessionState) normalize() {
	if s.Mode == "" {
		s.Mode = ModeFull
	}
	if s.Loadouts == nil {
		s.Loadouts = make(map[string]Loadout)
	}
	if s.Bans == nil {
		s.Bans = make(map[string][]string)
	}
	if s.Perms.RerollMe == nil {
		s.Perms.RerollMe = make(map[string]bool)
	}
	if s.Perms.Deploy == nil {
		s.Perms.Deploy = make(map[string]bool)
	}
}

// Store holds one client's replica of the session state. Replace always swaps
// the whole object; it never special-cases which field changed.
type Store struct {
	mu    sync.RWMutex
	state SessionState
}

// NewStore returns a store seeded with the all-empty state.
func NewStore() *Store {
	return &Store{state: NewSessionState()}
}

// Get returns a deep copy of the current state.
func (st *Store) Get() SessionState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state.Clone()
}

// Replace swaps in a new state wholesale.
func (st *Store) Replace(s SessionState) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s.normalize()
	st.state = s
}

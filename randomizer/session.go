package randomizer

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the client's position in the session lifecycle.
type Phase string

const (
	PhaseSetup      Phase = "SETUP"
	PhaseConnecting Phase = "CONNECTING"
	PhaseValidating Phase = "VALIDATING"
	PhaseActive     Phase = "ACTIVE"
	PhaseLeaving    Phase = "LEAVING"
	PhaseDisbanded  Phase = "DISBANDED"
)

// SubscribeStatus mirrors the transport's channel lifecycle statuses.
type SubscribeStatus string

const (
	StatusSubscribed SubscribeStatus = "SUBSCRIBED"
	StatusTimedOut   SubscribeStatus = "TIMED_OUT"
	StatusClosed     SubscribeStatus = "CLOSED"
)

// Broadcast event names shared by every client in a room.
const (
	EventRollStart   = "GAME_ROLL_START"
	EventGameUpdate  = "GAME_UPDATE"
	EventChat        = "CHAT"
	EventRoomClosed  = "ROOM_CLOSED"
	EventScoreUpdate = "SCORE_UPDATE"
	EventScoreClear  = "SCORE_CLEAR"
)

var (
	// ErrNotActive is returned by operations that need a live room.
	ErrNotActive = errors.New("randomizer: session is not active")
	// ErrNotPermitted is returned when the acting participant lacks the
	// permission toggle for the operation.
	ErrNotPermitted = errors.New("randomizer: not permitted")
	// ErrRoomNotFound is recorded after a join attempt times out against an
	// empty presence directory.
	ErrRoomNotFound = errors.New("randomizer: room not found")
	// ErrUnknownParticipant is returned for operations on absent seats.
	ErrUnknownParticipant = errors.New("randomizer: unknown participant")
	// ErrEmptyMessage rejects blank chat input before any network action.
	ErrEmptyMessage = errors.New("randomizer: empty chat message")
)

// Channel is the slice of the realtime transport a session drives. Send and
// Track are fire-and-forget: messages can be silently dropped in flight and
// the protocol tolerates that.
type Channel interface {
	Send(event string, payload any) error
	Track(rec PresenceRecord) error
	Leave() error
}

// Effects receives the session's side effects: sounds, notices, UI updates.
// Callbacks run with the session lock held and must not call back in.
type Effects interface {
	RollStarted()
	RollApplied(st SessionState)
	ChatReceived(msg ChatMessage)
	ScoresChanged(results []MatchResult)
	RoomClosed()
	Notice(text string)
}

// NopEffects discards every side effect.
type NopEffects struct{}

func (NopEffects) RollStarted()                {}
func (NopEffects) RollApplied(SessionState)    {}
func (NopEffects) ChatReceived(ChatMessage)    {}
func (NopEffects) ScoresChanged([]MatchResult) {}
func (NopEffects) RoomClosed()                 {}
func (NopEffects) Notice(string)               {}

// Options tunes a session's timers and room shape.
type Options struct {
	Capacity          int           // seats per room, default 3
	SettleWindow      time.Duration // presence settle wait while validating a join
	RollDelay         time.Duration // initiator delay between roll-start and the state broadcast
	RollSafetyTimeout time.Duration // upper bound on the rolling indicator
	CloseNoticeDelay  time.Duration // how long the room-closed notice stays before teardown
	Effects           Effects
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 {
		o.Capacity = 3
	}
	if o.SettleWindow <= 0 {
		o.SettleWindow = 1200 * time.Millisecond
	}
	if o.RollDelay <= 0 {
		o.RollDelay = 2 * time.Second
	}
	if o.RollSafetyTimeout <= 0 {
		o.RollSafetyTimeout = 5 * time.Second
	}
	if o.CloseNoticeDelay <= 0 {
		o.CloseNoticeDelay = 1500 * time.Millisecond
	}
	if o.Effects == nil {
		o.Effects = NopEffects{}
	}
	return o
}

// Session is one client's view of a shared randomizer room: the lifecycle
// state machine, the replicated state store, and the convergence rules for
// reconciling inbound broadcasts. There is no server-side authority; the
// shared state is whatever the clients converge on through repeated
// full-snapshot broadcasts, last writer wins.
type Session struct {
	mu      sync.Mutex
	opts    Options
	effects Effects
	picker  *Picker

	selfID     string
	name       string
	exclusions []string
	onlineAt   string

	ch      Channel
	phase   Phase
	room    string
	joining bool
	lastErr error

	participants []Participant
	store        *Store
	chat         *ChatLog
	history      *RollHistory
	scores       []MatchResult

	rolling     bool
	safetyTimer *time.Timer
	settleTimer *time.Timer
	rollTimer   *time.Timer
}

// NewSession builds a session for one local participant. A fresh id is
// generated when selfID is empty; reusing a stored id re-binds the client to
// its previous logical seat after a reconnect.
func NewSession(selfID, name string, exclusions []string, opts Options) *Session {
	if selfID == "" {
		selfID = uuid.NewString()
	}
	opts = opts.withDefaults()
	return &Session{
		opts:       opts,
		effects:    opts.Effects,
		picker:     NewPicker(nil),
		selfID:     selfID,
		name:       name,
		exclusions: append([]string(nil), exclusions...),
		phase:      PhaseSetup,
		store:      NewStore(),
		chat:       &ChatLog{},
		history:    &RollHistory{},
	}
}

// SetPicker swaps the randomization source, for reproducible draws in tests.
func (s *Session) SetPicker(p *Picker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picker = p
}

// Create opens a new room on the given channel. Creation skips validation:
// the creating client is the first presence entry by definition.
func (s *Session) Create(ch Channel, room string) error {
	return s.connect(ch, room, false)
}

// Join connects to an existing room code. The join is validated after
// subscription by waiting out the settle window and inspecting the presence
// directory; an empty directory means the room does not exist.
func (s *Session) Join(ch Channel, room string) error {
	return s.connect(ch, room, true)
}

func (s *Session) connect(ch Channel, room string, joining bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseSetup {
		return errors.New("randomizer: session already connected")
	}
	if s.name == "" {
		return errors.New("randomizer: display name is required")
	}
	if room == "" {
		return errors.New("randomizer: room code is required")
	}
	s.ch = ch
	s.room = room
	s.joining = joining
	s.lastErr = nil
	s.phase = PhaseConnecting
	return nil
}

// HandleStatus feeds transport lifecycle statuses into the state machine.
// Timeouts and closures are transient: they surface a notice and keep the
// session where it is, trusting the transport to resubscribe.
func (s *Session) HandleStatus(status SubscribeStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch status {
	case StatusSubscribed:
		if s.phase != PhaseConnecting {
			return
		}
		if s.joining {
			s.phase = PhaseValidating
			s.settleTimer = time.AfterFunc(s.opts.SettleWindow, s.finishValidation)
			return
		}
		s.trackSelfLocked()
		s.phase = PhaseActive
	case StatusTimedOut, StatusClosed:
		if s.phase == PhaseConnecting || s.phase == PhaseValidating || s.phase == PhaseActive {
			s.effects.Notice("connection interrupted, reconnecting")
		}
	}
}

// finishValidation runs once the settle window elapses after a join
// subscription. The transport has no "does this room have a host" query, so
// an empty presence directory is the room-not-found signal.
func (s *Session) finishValidation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseValidating {
		return
	}
	if len(s.participants) == 0 {
		s.lastErr = ErrRoomNotFound
		if s.ch != nil {
			_ = s.ch.Leave()
		}
		s.resetLocked()
		s.effects.Notice("room not found")
		return
	}
	s.trackSelfLocked()
	s.phase = PhaseActive
}

// trackSelfLocked publishes this client's presence record. The join
// timestamp is captured once; reconnects reuse it so the seat ordering is
// stable.
func (s *Session) trackSelfLocked() {
	if s.onlineAt == "" {
		s.onlineAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	_ = s.ch.Track(PresenceRecord{
		UserID:      s.selfID,
		UserName:    s.name,
		OnlineAt:    s.onlineAt,
		ExcludedIDs: s.exclusions,
	})
}

// HandlePresence consumes a full presence snapshot. The roster and slot map
// are recomputed from scratch every time; nothing is patched incrementally.
func (s *Session) HandlePresence(snapshot []PresenceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = ResolveSlots(snapshot, s.opts.Capacity)
}

// HandleBroadcast dispatches one inbound broadcast. Payloads that fail to
// decode are dropped; a malformed message must never take the client down.
func (s *Session) HandleBroadcast(event string, payload json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event {
	case EventRollStart:
		s.beginRollingLocked()
	case EventGameUpdate:
		var st SessionState
		if err := json.Unmarshal(payload, &st); err != nil {
			return
		}
		st.normalize()
		s.applyStateLocked(st)
	case EventChat:
		var msg ChatMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.Text == "" {
			return
		}
		if msg.From == s.selfID {
			return
		}
		s.chat.Append(msg)
		s.effects.ChatReceived(msg)
	case EventRoomClosed:
		s.disbandLocked()
	case EventScoreUpdate:
		var results []MatchResult
		if err := json.Unmarshal(payload, &results); err != nil {
			return
		}
		if len(results) > ScoreboardCap {
			results = results[len(results)-ScoreboardCap:]
		}
		s.scores = results
		s.effects.ScoresChanged(append([]MatchResult(nil), results...))
	case EventScoreClear:
		s.scores = nil
		s.effects.ScoresChanged(nil)
	}
}

func (s *Session) beginRollingLocked() {
	s.rolling = true
	s.effects.RollStarted()
	if s.safetyTimer != nil {
		s.safetyTimer.Stop()
	}
	// Force-clear the indicator even if the follow-up state broadcast is
	// dropped by the transport.
	s.safetyTimer = time.AfterFunc(s.opts.RollSafetyTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rolling = false
	})
}

// applyStateLocked is the convergence core. The incoming snapshot always
// replaces the local replica; side effects fire only when the loadouts
// actually differ, so duplicate deliveries on reconnect or tab-wake cannot
// replay sounds or grow the history.
func (s *Session) applyStateLocked(st SessionState) {
	ghost := LoadoutsEqual(st.Loadouts, s.store.Get().Loadouts)
	s.store.Replace(st)
	if ghost {
		return
	}
	s.rolling = false
	if s.safetyTimer != nil {
		s.safetyTimer.Stop()
	}
	applied := s.store.Get()
	s.history.Add(RollRecord{At: time.Now(), Loadouts: applied.Loadouts})
	s.effects.RollApplied(applied)
}

func (s *Session) disbandLocked() {
	if s.phase != PhaseActive && s.phase != PhaseValidating {
		return
	}
	s.phase = PhaseDisbanded
	s.effects.RoomClosed()
	ch := s.ch
	// Short delay so the closing notice is visible before teardown.
	time.AfterFunc(s.opts.CloseNoticeDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.phase != PhaseDisbanded {
			return
		}
		if ch != nil {
			_ = ch.Leave()
		}
		s.resetLocked()
	})
}

func (s *Session) resetLocked() {
	s.phase = PhaseSetup
	s.ch = nil
	s.room = ""
	s.joining = false
	s.onlineAt = ""
	s.participants = nil
	s.store = NewStore()
	s.chat = &ChatLog{}
	s.history = &RollHistory{}
	s.scores = nil
	s.rolling = false
	for _, t := range []*time.Timer{s.safetyTimer, s.settleTimer, s.rollTimer} {
		if t != nil {
			t.Stop()
		}
	}
}

// pushStateLocked applies a locally derived snapshot and broadcasts it.
// Apply first, send second: the local client is optimistic and the broadcast
// is fire-and-forget.
func (s *Session) pushStateLocked(st SessionState) error {
	s.applyStateLocked(st)
	return s.ch.Send(EventGameUpdate, st)
}

func (s *Session) canRerollLocked(targetID string) bool {
	if targetID == s.selfID {
		return true
	}
	return s.store.Get().Perms.RerollMe[targetID]
}

// canDeployLocked checks the host-flag asymmetry: the deploy toggle is read
// off the host's own entry, never the acting participant's.
func (s *Session) canDeployLocked() bool {
	host := HostID(s.participants)
	if host == "" {
		return false
	}
	if host == s.selfID {
		return true
	}
	return s.store.Get().Perms.Deploy[host]
}

// RerollSeat draws a new loadout for one seat, excluding its bans, its
// owner's exclusion pool, and every legend currently held by another seat.
func (s *Session) RerollSeat(targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	if _, ok := FindParticipant(s.participants, targetID); !ok {
		return ErrUnknownParticipant
	}
	if !s.canRerollLocked(targetID) {
		return ErrNotPermitted
	}

	st := s.store.Get()
	excluded := unavailableLegends(targetID, st.Loadouts, st.Bans, s.participants)
	next := st.withLoadout(targetID, s.picker.PickLoadout(excluded, nil, st.Mode))
	return s.pushStateLocked(next)
}

// Deploy runs the two-phase global reroll: a roll-started signal first so
// every client animates together, then after the fixed delay the initiator
// computes the batch once and broadcasts the full new state. Exactly one
// party rolls; everyone else only applies.
func (s *Session) Deploy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	if !s.canDeployLocked() {
		return ErrNotPermitted
	}

	if err := s.ch.Send(EventRollStart, struct{}{}); err != nil {
		return err
	}
	s.beginRollingLocked()
	if s.rollTimer != nil {
		s.rollTimer.Stop()
	}
	s.rollTimer = time.AfterFunc(s.opts.RollDelay, s.finishDeploy)
	return nil
}

func (s *Session) finishDeploy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return
	}
	st := s.store.Get()
	next := st.withLoadouts(s.picker.RollAll(s.participants, st))
	_ = s.pushStateLocked(next)
}

// Ban excludes a legend from a seat and immediately rerolls that seat so the
// banned legend leaves the board.
func (s *Session) Ban(targetID, legendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	if _, ok := FindParticipant(s.participants, targetID); !ok {
		return ErrUnknownParticipant
	}
	if !s.canRerollLocked(targetID) {
		return ErrNotPermitted
	}

	next := s.store.Get().withBan(targetID, legendID)
	excluded := unavailableLegends(targetID, next.Loadouts, next.Bans, s.participants)
	next.Loadouts[targetID] = s.picker.PickLoadout(excluded, nil, next.Mode)
	return s.pushStateLocked(next)
}

// SetMode switches which loadout fields future rolls fill.
func (s *Session) SetMode(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	return s.pushStateLocked(s.store.Get().withMode(m))
}

// SetAllowReroll toggles whether other participants may reroll this seat.
// Participants only ever mutate their own entry.
func (s *Session) SetAllowReroll(allow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	return s.pushStateLocked(s.store.Get().withRerollPerm(s.selfID, allow))
}

// SetAllowDeploy toggles whether non-hosts may trigger a global reroll. The
// flag matters only while this participant occupies slot 0; non-host entries
// are ignored by convention.
func (s *Session) SetAllowDeploy(allow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	return s.pushStateLocked(s.store.Get().withDeployPerm(s.selfID, allow))
}

// SendChat appends the message locally and broadcasts it. The relay does not
// echo the sender, so the optimistic append is the only local copy.
func (s *Session) SendChat(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	if text == "" {
		return ErrEmptyMessage
	}
	msg := ChatMessage{
		ID:     uuid.NewString(),
		From:   s.selfID,
		Name:   s.name,
		Text:   text,
		SentAt: time.Now(),
	}
	s.chat.Append(msg)
	return s.ch.Send(EventChat, msg)
}

// RecordMatch scores a match for every listed player and broadcasts the full
// scoreboard, same replace-wholesale pattern as session state.
func (s *Session) RecordMatch(teamPlacement int, stats map[string]PlayerMatchStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}

	details := make(map[string]PlayerMatchStats, len(stats))
	total := 0
	for id, line := range stats {
		rp, _ := CalculateRP(line.Tier, teamPlacement, line.Kills, line.Assists, line.Participation, line.SkillBonus)
		line.RP = rp
		details[id] = line
		total += rp
	}
	result := MatchResult{
		ID:            uuid.NewString(),
		TeamPlacement: teamPlacement,
		Details:       details,
		TotalSquadRP:  total,
		At:            time.Now(),
	}

	s.scores = append(s.scores, result)
	if len(s.scores) > ScoreboardCap {
		s.scores = s.scores[len(s.scores)-ScoreboardCap:]
	}
	s.effects.ScoresChanged(append([]MatchResult(nil), s.scores...))
	return s.ch.Send(EventScoreUpdate, s.scores)
}

// ClearScores empties the room scoreboard. Host only.
func (s *Session) ClearScores() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	if HostID(s.participants) != s.selfID {
		return ErrNotPermitted
	}
	s.scores = nil
	s.effects.ScoresChanged(nil)
	return s.ch.Send(EventScoreClear, struct{}{})
}

// CloseRoom broadcasts a room-closed signal and tears the session down.
// Host only; other clients return to setup after the close notice delay.
func (s *Session) CloseRoom() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	if HostID(s.participants) != s.selfID {
		return ErrNotPermitted
	}
	err := s.ch.Send(EventRoomClosed, struct{}{})
	s.phase = PhaseLeaving
	_ = s.ch.Leave()
	s.resetLocked()
	return err
}

// LeaveRoom voluntarily disconnects and clears all local session state.
func (s *Session) LeaveRoom() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSetup {
		return nil
	}
	s.phase = PhaseLeaving
	if s.ch != nil {
		_ = s.ch.Leave()
	}
	s.resetLocked()
	return nil
}

// Phase returns the lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Room returns the connected room code, or "".
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// SelfID returns the stable participant id.
func (s *Session) SelfID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selfID
}

// Participants returns the current resolved roster.
func (s *Session) Participants() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Participant(nil), s.participants...)
}

// State returns a copy of the replicated session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get()
}

// IsHost reports whether this client currently occupies slot 0.
func (s *Session) IsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HostID(s.participants) == s.selfID
}

// Rolling reports whether the global-reroll indicator is up.
func (s *Session) Rolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rolling
}

// Chat returns the local chat feed in receipt order.
func (s *Session) Chat() []ChatMessage {
	s.mu.Lock()
	c := s.chat
	s.mu.Unlock()
	return c.Messages()
}

// History returns the roll history, newest first.
func (s *Session) History() []RollRecord {
	s.mu.Lock()
	h := s.history
	s.mu.Unlock()
	return h.Entries()
}

// Scores returns the retained match results.
func (s *Session) Scores() []MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MatchResult(nil), s.scores...)
}

// LastError returns the most recent terminal join error, e.g. ErrRoomNotFound.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

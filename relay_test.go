package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/HyIsNoob/GameTeamer/prefs"
	"github.com/HyIsNoob/GameTeamer/randomizer"
	"github.com/HyIsNoob/GameTeamer/realtime"
)

func newTestRelayServer(t *testing.T) string {
	t.Helper()
	cfg := &Config{}
	relay := newRelay(0)
	mux := httprouter.New()
	mux.GET("/ws/:room", serveRelayWS(cfg, relay))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRelayFanOutExcludesSender(t *testing.T) {
	wsURL := newTestRelayServer(t)
	ctx := context.Background()

	a, err := realtime.Subscribe(ctx, wsURL, "FANOUT")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Leave()
	b, err := realtime.Subscribe(ctx, wsURL, "FANOUT")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Leave()

	gotB := make(chan json.RawMessage, 1)
	b.OnBroadcast("PING", func(payload json.RawMessage) {
		gotB <- payload
	})
	echoedA := make(chan struct{}, 1)
	a.OnBroadcast("PING", func(json.RawMessage) {
		echoedA <- struct{}{}
	})
	// The relay sends a presence catch-up on registration; waiting for it
	// guarantees both subscribers are registered before the broadcast.
	readyB := make(chan struct{}, 1)
	b.OnPresenceSync(func(json.RawMessage) {
		select {
		case readyB <- struct{}{}:
		default:
		}
	})
	a.Start()
	b.Start()

	select {
	case <-readyB:
	case <-time.After(5 * time.Second):
		t.Fatal("peer never registered")
	}

	if err := a.Send("PING", map[string]string{"msg": "hello"}); err != nil {
		t.Fatal(err)
	}

	select {
	case payload := <-gotB:
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded["msg"] != "hello" {
			t.Fatalf("payload corrupted: %v", decoded)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("peer never received the broadcast")
	}

	select {
	case <-echoedA:
		t.Fatal("sender received its own broadcast")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRelayPresenceSyncAndCatchUp(t *testing.T) {
	wsURL := newTestRelayServer(t)
	ctx := context.Background()

	a, err := realtime.Subscribe(ctx, wsURL, "PRESENCE")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Leave()

	syncs := make(chan []randomizer.PresenceRecord, 4)
	a.OnPresenceSync(func(payload json.RawMessage) {
		var records []randomizer.PresenceRecord
		if err := json.Unmarshal(payload, &records); err != nil {
			return
		}
		syncs <- records
	})
	a.Start()

	if err := a.Track(randomizer.PresenceRecord{UserID: "a", UserName: "alice", OnlineAt: "t0"}); err != nil {
		t.Fatal(err)
	}

	waitForRecords := func(want int) []randomizer.PresenceRecord {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case records := <-syncs:
				if len(records) == want {
					return records
				}
			case <-deadline:
				t.Fatalf("never saw a %d-record snapshot", want)
			}
		}
	}

	records := waitForRecords(1)
	if records[0].UserID != "a" {
		t.Fatalf("unexpected record: %+v", records[0])
	}

	// A late subscriber receives the directory without anyone re-tracking.
	late, err := realtime.Subscribe(ctx, wsURL, "PRESENCE")
	if err != nil {
		t.Fatal(err)
	}
	defer late.Leave()

	lateSyncs := make(chan []randomizer.PresenceRecord, 4)
	late.OnPresenceSync(func(payload json.RawMessage) {
		var records []randomizer.PresenceRecord
		if err := json.Unmarshal(payload, &records); err != nil {
			return
		}
		lateSyncs <- records
	})
	late.Start()

	select {
	case records := <-lateSyncs:
		if len(records) != 1 || records[0].UserID != "a" {
			t.Fatalf("catch-up snapshot wrong: %+v", records)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("late subscriber never received the catch-up snapshot")
	}

	// Departure untracks and syncs the survivors.
	if err := late.Track(randomizer.PresenceRecord{UserID: "b", UserName: "bob", OnlineAt: "t1"}); err != nil {
		t.Fatal(err)
	}
	waitForRecords(2)

	if err := late.Leave(); err != nil {
		t.Fatal(err)
	}
	records = waitForRecords(1)
	if records[0].UserID != "a" {
		t.Fatalf("survivor snapshot wrong: %+v", records)
	}
}

func TestSessionsConvergeOverRelay(t *testing.T) {
	wsURL := newTestRelayServer(t)
	ctx := context.Background()

	opts := randomizer.Options{
		SettleWindow:      300 * time.Millisecond,
		RollDelay:         50 * time.Millisecond,
		RollSafetyTimeout: 2 * time.Second,
	}

	host := randomizer.NewSession("", "alice", nil, opts)
	hostCh, err := realtime.Open(ctx, wsURL, "ROOM01", host, true)
	if err != nil {
		t.Fatal(err)
	}
	defer hostCh.Leave()

	waitFor(t, func() bool { return host.Phase() == randomizer.PhaseActive }, "host activation")

	joiner := randomizer.NewSession("", "bob", nil, opts)
	joinCh, err := realtime.Open(ctx, wsURL, "ROOM01", joiner, false)
	if err != nil {
		t.Fatal(err)
	}
	defer joinCh.Leave()

	waitFor(t, func() bool { return joiner.Phase() == randomizer.PhaseActive }, "join validation")
	waitFor(t, func() bool { return len(host.Participants()) == 2 }, "host roster")

	if !host.IsHost() || joiner.IsHost() {
		t.Fatal("host assignment wrong after join")
	}

	if err := host.RerollSeat(host.SelfID()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		return randomizer.LoadoutsEqual(host.State().Loadouts, joiner.State().Loadouts) &&
			len(joiner.State().Loadouts) == 1
	}, "replica convergence")

	// Full deploy round trip: the start signal animates the peer, the batch
	// snapshot lands on both.
	if err := host.Deploy(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(joiner.State().Loadouts) == 2 }, "deploy batch")
	waitFor(t, func() bool {
		return randomizer.LoadoutsEqual(host.State().Loadouts, joiner.State().Loadouts)
	}, "post-deploy convergence")
	waitFor(t, func() bool { return !joiner.Rolling() && !host.Rolling() }, "rolling indicator clear")
}

func TestJoinMissingRoomOverRelay(t *testing.T) {
	wsURL := newTestRelayServer(t)
	ctx := context.Background()

	opts := randomizer.Options{SettleWindow: 200 * time.Millisecond}
	s := randomizer.NewSession("", "bob", nil, opts)
	ch, err := realtime.Open(ctx, wsURL, "GHOST9", s, false)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Leave()

	waitFor(t, func() bool { return s.Phase() == randomizer.PhaseSetup }, "join rejection")
	if s.LastError() != randomizer.ErrRoomNotFound {
		t.Fatalf("expected room-not-found, got %v", s.LastError())
	}
}

func TestSeatRebindsAcrossReconnect(t *testing.T) {
	wsURL := newTestRelayServer(t)
	ctx := context.Background()

	opts := randomizer.Options{
		SettleWindow:      300 * time.Millisecond,
		RollDelay:         50 * time.Millisecond,
		RollSafetyTimeout: 2 * time.Second,
	}

	host := randomizer.NewSession("", "alice", nil, opts)
	hostCh, err := realtime.Open(ctx, wsURL, "REBIND", host, true)
	if err != nil {
		t.Fatal(err)
	}
	defer hostCh.Leave()
	waitFor(t, func() bool { return host.Phase() == randomizer.PhaseActive }, "host activation")

	store, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	joinCh, joiner, err := realtime.OpenSeat(ctx, wsURL, "REBIND", "bob", nil, opts, false, store)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return joiner.Phase() == randomizer.PhaseActive }, "join validation")

	firstID := joiner.SelfID()
	if stored, err := store.ParticipantID("REBIND"); err != nil || stored != firstID {
		t.Fatalf("stored seat id %q (err %v), session uses %q", stored, err, firstID)
	}

	if err := joinCh.Leave(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(host.Participants()) == 1 }, "departure")

	rejoinCh, rejoined, err := realtime.OpenSeat(ctx, wsURL, "REBIND", "bob", nil, opts, false, store)
	if err != nil {
		t.Fatal(err)
	}
	defer rejoinCh.Leave()
	waitFor(t, func() bool { return rejoined.Phase() == randomizer.PhaseActive }, "rejoin validation")

	if rejoined.SelfID() != firstID {
		t.Fatalf("reconnect got seat id %q, want the stored %q", rejoined.SelfID(), firstID)
	}
}

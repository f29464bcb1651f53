package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func newTestRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	cfg := &Config{port: 8080}
	errs := make(chan error, 64)

	mux := httprouter.New()
	mux.GET("/", serveHomePage(cfg))
	mux.GET("/healthz", serveHealthCheck(cfg, errs))
	mux.GET("/version", serveVersion(cfg, errs))
	mux.POST("/api/squads", serveSquads(cfg, errs))
	mux.GET("/r/:room", serveRoomPage(cfg, errs))
	mux.GET("/r/:room/qr", serveRoomQR(cfg, errs))
	return mux
}

func TestHealthCheck(t *testing.T) {
	mux := newTestRouter(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Body.String() != "Ok\n" {
		t.Fatalf("body %q", rec.Body.String())
	}
}

func TestVersionPage(t *testing.T) {
	mux := newTestRouter(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), releaseVersion) {
		t.Fatalf("body %q missing version", rec.Body.String())
	}
}

func TestSquadsEndpoint(t *testing.T) {
	mux := newTestRouter(t)

	body := `{"names":"alice,bob,carol,dave","preset":"apex"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/squads", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp squadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Teams) != 2 {
		t.Fatalf("expected 2 teams for 4 players at size 3, got %d", len(resp.Teams))
	}
	total := 0
	for _, team := range resp.Teams {
		total += len(team)
	}
	if total != 4 {
		t.Fatalf("lost players: %d placed", total)
	}
}

func TestSquadsEndpointRejectsBadInput(t *testing.T) {
	mux := newTestRouter(t)

	for name, body := range map[string]string{
		"empty names":     `{"names":"   "}`,
		"invalid json":    `{`,
		"invalid pattern": `{"names":"a;b","separator":"CUSTOM","custom_pattern":"["}`,
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/squads", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", name, rec.Code)
		}
	}
}

func TestRoomPageAndQR(t *testing.T) {
	mux := newTestRouter(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/r/ABC123", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("room page status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ABC123") {
		t.Fatal("room page missing room code")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/r/ABC123/qr", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("qr status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("qr content type %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("qr body empty")
	}
}

func TestNewRoomCodeShape(t *testing.T) {
	relay := newRelay(0)
	seen := map[string]bool{}

	for i := 0; i < 50; i++ {
		code := relay.newRoomCode()
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 chars", code)
		}
		for _, r := range code {
			if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", r) {
				t.Fatalf("code %q has invalid rune %q", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 40 {
		t.Fatalf("codes look non-random: %d unique of 50", len(seen))
	}
}

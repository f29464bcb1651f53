package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

func roomPage(cfg *Config, room string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	htmlBody.WriteString(`<style>body{font-family:sans-serif;max-width:40rem;margin:2rem auto;padding:0 1rem;text-align:center;}code{font-size:2rem;}</style>`)
	htmlBody.WriteString(`<title>Room ` + room + `</title></head><body>`)
	htmlBody.WriteString(`<h1>Room <code>` + room + `</code></h1>`)
	htmlBody.WriteString(`<p>Scan to join:</p>`)
	htmlBody.WriteString(`<img src="` + cfg.prefix + `/r/` + room + `/qr" alt="QR code for this room" width="320" height="320">`)
	htmlBody.WriteString(`<p>Realtime endpoint: <code>` + cfg.prefix + `/ws/` + room + `</code></p>`)
	htmlBody.WriteString(`</body></html>`)

	return htmlBody.String()
}

func serveRoomPage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room := strings.ToUpper(ps.ByName("room"))
		if room == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(roomPage(cfg, room)))
		if err != nil {
			errs <- err

			return
		}
	}
}

// serveRoomQR renders a PNG QR code pointing at the room page, so one phone
// can put the rest of the lobby in the same room.
func serveRoomQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room := ps.ByName("room")
		if room == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /r/:room/qr; strip the suffix to get the room URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")
		url := scheme + "://" + r.Host + path

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))

		_, err = w.Write(png)
		if err != nil {
			errs <- err

			return
		}
	}
}

// redirectNewRoom generates a fresh room code and redirects to its page.
func redirectNewRoom(cfg *Config, relay *Relay) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		room := relay.newRoomCode()
		logf(cfg, "ROOMS: Created room %s for %s", room, realIP(r))
		http.Redirect(w, r, cfg.prefix+"/r/"+room, http.StatusTemporaryRedirect)
	}
}

// registerRooms sets up the room routes:
//   - /r          → redirects to a new random room (6-char code)
//   - /r/:room    → shareable room page with QR code
//   - /r/:room/qr → PNG QR code for that room URL
//   - /ws/:room   → websocket relay topic for that room
func registerRooms(cfg *Config, mux *httprouter.Router) {
	relay := newRelay(cfg.roomTimeout)

	errs := make(chan error, 64)
	go func() {
		for err := range errs {
			logf(cfg, "ROOMS: ERROR: %v", err)
		}
	}()

	mux.GET(cfg.prefix+"/r", redirectNewRoom(cfg, relay))
	mux.GET(cfg.prefix+"/r/:room", serveRoomPage(cfg, errs))
	mux.GET(cfg.prefix+"/r/:room/qr", serveRoomQR(cfg, errs))
	mux.GET(cfg.prefix+"/ws/:room", serveRelayWS(cfg, relay))
}

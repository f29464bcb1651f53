package main

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/julienschmidt/httprouter"
)

const mapRotationUpstream = "https://api.mozambiquehe.re/maprotation"

var mapClient = &http.Client{Timeout: timeout}

// serveMapRotation proxies the upstream map rotation feed so the api key
// never leaves the server. Responses are passed through verbatim; callers
// treat the data as informational and must cope with a 502.
func serveMapRotation(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		upstream := mapRotationUpstream + "?auth=" + url.QueryEscape(cfg.mapAPIKey)

		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstream, nil)
		if err != nil {
			http.Error(w, "map rotation unavailable", http.StatusBadGateway)
			return
		}

		resp, err := mapClient.Do(req)
		if err != nil {
			logf(cfg, "MAPS: Upstream error: %v", err)
			http.Error(w, "map rotation unavailable", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logf(cfg, "MAPS: Upstream status %d", resp.StatusCode)
			http.Error(w, "map rotation unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		securityHeaders(cfg, w)

		written, err := io.Copy(w, resp.Body)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Map rotation (%s) to %s in %s",
			humanReadableSize(written),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

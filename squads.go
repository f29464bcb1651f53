package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/HyIsNoob/GameTeamer/squad"
)

type squadRequest struct {
	Names         string `json:"names"`
	Separator     string `json:"separator,omitempty"`      // AUTO, NEWLINE, COMMA, CUSTOM
	CustomPattern string `json:"custom_pattern,omitempty"` // regex, CUSTOM only
	Preset        string `json:"preset,omitempty"`         // e.g. "apex", "lol"
	TeamSize      int    `json:"team_size,omitempty"`      // overrides preset
	TeamCount     int    `json:"team_count,omitempty"`     // fixed team count instead of size
}

type squadResponse struct {
	Teams [][]string `json:"teams"`
}

// serveSquads splits a pasted name list into shuffled, balanced teams.
func serveSquads(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		var req squadRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		sep := squad.Separator(req.Separator)
		if sep == "" {
			sep = squad.SeparatorAuto
		}

		names, err := squad.SplitNames(req.Names, sep, req.CustomPattern, nil)
		if err != nil {
			if errors.Is(err, squad.ErrInvalidPattern) {
				http.Error(w, "invalid custom pattern", http.StatusBadRequest)
				return
			}
			http.Error(w, "unable to parse names", http.StatusBadRequest)
			return
		}
		if len(names) == 0 {
			http.Error(w, "no names provided", http.StatusBadRequest)
			return
		}

		teamSize := req.TeamSize
		if teamSize <= 0 {
			teamSize = squad.PresetByID(req.Preset).TeamSize
		}

		names = squad.Shuffle(names, nil)

		var teams [][]string
		if req.TeamCount > 0 {
			teams = squad.DistributeIntoCount(names, req.TeamCount)
		} else {
			teams = squad.DistributeBalanced(names, teamSize)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(squadResponse{Teams: teams}); err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Squads (%d names, %d teams) to %s in %s",
			len(names),
			len(teams),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// Package squad forms balanced teams from a flat roster. It is purely local:
// no room, no replication, just shuffle and bucket fill.
package squad

import (
	"errors"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Separator selects how free-form roster input is split into names.
type Separator string

const (
	SeparatorAuto    Separator = "AUTO"    // whitespace, commas, pipes
	SeparatorNewline Separator = "NEWLINE" // newlines only
	SeparatorComma   Separator = "COMMA"   // commas only
	SeparatorCustom  Separator = "CUSTOM"  // caller-supplied regex
)

var (
	autoRE    = regexp.MustCompile(`[\s,\n|]+`)
	newlineRE = regexp.MustCompile(`\n+`)
	commaRE   = regexp.MustCompile(`,+`)
)

// ErrInvalidPattern is returned when a custom separator fails to compile.
// This is a local validation error, rejected before anything else runs.
var ErrInvalidPattern = errors.New("squad: invalid custom separator pattern")

// SplitNames tokenizes roster input with the chosen separator, trimming
// blanks and dropping names already in existing (or repeated in the input).
func SplitNames(input string, sep Separator, customPattern string, existing []string) ([]string, error) {
	var re *regexp.Regexp
	switch sep {
	case SeparatorNewline:
		re = newlineRE
	case SeparatorComma:
		re = commaRE
	case SeparatorCustom:
		if customPattern == "" {
			customPattern = ","
		}
		compiled, err := regexp.Compile(customPattern)
		if err != nil {
			return nil, ErrInvalidPattern
		}
		re = compiled
	default:
		re = autoRE
	}

	seen := make(map[string]bool, len(existing))
	for _, name := range existing {
		seen[name] = true
	}

	var out []string
	for _, raw := range re.Split(input, -1) {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

// Shuffle returns an unbiased Fisher-Yates permutation of players. A nil rng
// gets a time-seeded source.
func Shuffle(players []string, rng *rand.Rand) []string {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	out := append([]string(nil), players...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DistributeBalanced fills ceil(n/maxPerTeam) teams round-robin, so sizes
// never differ by more than one. 4 players with max 3 yields two teams of
// two, not a team of three and a straggler.
func DistributeBalanced(players []string, maxPerTeam int) [][]string {
	if len(players) == 0 {
		return nil
	}
	if maxPerTeam < 1 {
		maxPerTeam = 1
	}
	numTeams := (len(players) + maxPerTeam - 1) / maxPerTeam
	return roundRobin(players, numTeams)
}

// DistributeIntoCount fills exactly teamCount teams round-robin, capped at
// one team per player.
func DistributeIntoCount(players []string, teamCount int) [][]string {
	if len(players) == 0 {
		return nil
	}
	if teamCount < 1 {
		teamCount = 1
	}
	if teamCount > len(players) {
		teamCount = len(players)
	}
	return roundRobin(players, teamCount)
}

func roundRobin(players []string, numTeams int) [][]string {
	teams := make([][]string, numTeams)
	for i, p := range players {
		teams[i%numTeams] = append(teams[i%numTeams], p)
	}
	return teams
}

// Preset pairs a game with its standard team size.
type Preset struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TeamSize int    `json:"team_size"`
}

// Presets lists the built-in game presets.
var Presets = []Preset{
	{ID: "apex", Name: "APEX LEGENDS", TeamSize: 3},
	{ID: "lol", Name: "LEAGUE OF LEGENDS", TeamSize: 5},
	{ID: "valo", Name: "VALORANT", TeamSize: 5},
	{ID: "cs2", Name: "CS:2", TeamSize: 5},
	{ID: "overwatch", Name: "OVERWATCH 2", TeamSize: 5},
	{ID: "custom", Name: "CUSTOM_PROTOCOL", TeamSize: 4},
}

// PresetByID returns the preset for id, defaulting to the first preset.
func PresetByID(id string) Preset {
	for _, p := range Presets {
		if p.ID == id {
			return p
		}
	}
	return Presets[0]
}

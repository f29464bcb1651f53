package randomizer

import (
	"math"
	"time"
)

// RankTiers orders the ranked ladder from lowest to highest.
var RankTiers = []string{"Rookie", "Bronze", "Silver", "Gold", "Platinum", "Diamond", "Master", "Predator"}

var entryCosts = map[string]int{
	"Rookie":   0,
	"Bronze":   10,
	"Silver":   20,
	"Gold":     38,
	"Platinum": 48,
	"Diamond":  65,
	"Master":   90,
	"Predator": 90,
}

var placementPoints = map[int]int{
	1: 125, 2: 100, 3: 75, 4: 55, 5: 45,
	6: 40, 7: 30, 8: 30, 9: 20, 10: 20,
	11: 10, 12: 10, 13: 10, 14: 10, 15: 10,
}

// kpValueByPlacement is the per-KP value table; placements past 15 bottom out
// at 4, unknown placements default to 10.
var kpValueByPlacement = map[int]int{
	1: 20, 2: 18, 3: 16, 4: 14, 5: 12,
	6: 10, 7: 10, 8: 10, 9: 8, 10: 8,
	11: 6, 12: 6, 13: 6, 14: 6, 15: 6,
	16: 4, 17: 4, 18: 4, 19: 4, 20: 4,
}

// RPBreakdown itemizes a ranked-points calculation.
type RPBreakdown struct {
	Entry     int `json:"entry"`
	Placement int `json:"placement"`
	KP        int `json:"kp"`
	Skill     int `json:"skill"`
}

// CalculateRP scores one player's match. KP = kills + assists + half of
// participation, full value up to 8 KP and half value past that, minus the
// tier's entry cost.
func CalculateRP(tier string, placement, kills, assists, participation, skillBonus int) (int, RPBreakdown) {
	entry := entryCosts[tier]
	placePts := placementPoints[placement]

	kpVal, ok := kpValueByPlacement[placement]
	if !ok {
		kpVal = 10
	}

	rawKP := float64(kills) + float64(assists) + float64(participation)*0.5
	fullKP := rawKP
	if fullKP > 8 {
		fullKP = 8
	}
	overflowKP := rawKP - fullKP

	kpPoints := fullKP*float64(kpVal) + overflowKP*(float64(kpVal)*0.5)

	// Floor, not truncate: a fractional loss rounds further down.
	total := int(math.Floor(float64(placePts) + kpPoints + float64(skillBonus) - float64(entry)))

	return total, RPBreakdown{
		Entry:     -entry,
		Placement: placePts,
		KP:        int(kpPoints),
		Skill:     skillBonus,
	}
}

// PlayerMatchStats is one player's line in a match result.
type PlayerMatchStats struct {
	Kills         int    `json:"kills"`
	Assists       int    `json:"assists"`
	Damage        int    `json:"damage"`
	Participation int    `json:"participation"`
	SkillBonus    int    `json:"skill_bonus"`
	Tier          string `json:"tier"`
	RP            int    `json:"rp"`
}

// MatchResult is one recorded match for the room scoreboard. Results ride the
// same broadcast-and-replace pattern as session state.
type MatchResult struct {
	ID            string                      `json:"id"`
	TeamPlacement int                         `json:"team_placement"`
	Details       map[string]PlayerMatchStats `json:"details"`
	TotalSquadRP  int                         `json:"total_squad_rp"`
	At            time.Time                   `json:"at"`
}

// ScoreboardCap bounds how many recent match results a client retains.
const ScoreboardCap = 20

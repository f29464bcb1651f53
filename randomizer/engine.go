package randomizer

import (
	"math/rand"
	"time"
)

// Picker draws loadouts from the catalogs. It does no I/O; callers that need
// reproducible draws inject a seeded rand source.
type Picker struct {
	rng *rand.Rand
}

// NewPicker returns a picker backed by rng, or by a time-seeded source when
// rng is nil.
func NewPicker(rng *rand.Rand) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Picker{rng: rng}
}

func (p *Picker) pickLegend(excluded map[string]bool) *Legend {
	pool := make([]*Legend, 0, len(Legends))
	for i := range Legends {
		if !excluded[Legends[i].ID] {
			pool = append(pool, &Legends[i])
		}
	}
	// A valid pick beats a respected exclusion: an exhausted pool falls back
	// to the full catalog rather than failing the roll.
	if len(pool) == 0 {
		for i := range Legends {
			pool = append(pool, &Legends[i])
		}
	}
	return pool[p.rng.Intn(len(pool))]
}

func (p *Picker) weaponPool(excluded map[string]bool) []*Weapon {
	pool := make([]*Weapon, 0, len(Weapons))
	for i := range Weapons {
		if Weapons[i].CarePackage || excluded[Weapons[i].ID] {
			continue
		}
		pool = append(pool, &Weapons[i])
	}
	if len(pool) == 0 {
		for i := range Weapons {
			if Weapons[i].CarePackage {
				continue
			}
			pool = append(pool, &Weapons[i])
		}
	}
	return pool
}

func (p *Picker) pickWeapons(excluded map[string]bool) (*Weapon, *Weapon) {
	pool := p.weaponPool(excluded)
	primary := pool[p.rng.Intn(len(pool))]

	// Secondary should differ from the primary by type for variety. Fall back
	// to any other weapon, then to the primary itself, rather than failing.
	distinct := make([]*Weapon, 0, len(pool))
	other := make([]*Weapon, 0, len(pool))
	for _, w := range pool {
		if w.ID == primary.ID {
			continue
		}
		other = append(other, w)
		if w.Type != primary.Type {
			distinct = append(distinct, w)
		}
	}
	switch {
	case len(distinct) > 0:
		return primary, distinct[p.rng.Intn(len(distinct))]
	case len(other) > 0:
		return primary, other[p.rng.Intn(len(other))]
	default:
		return primary, primary
	}
}

// PickLoadout draws one loadout under the given exclusions. Which fields are
// filled depends on mode; ModeRoles draws from the fixed role list instead of
// the legend and weapon pools.
func (p *Picker) PickLoadout(excludedLegends, excludedWeapons map[string]bool, mode Mode) Loadout {
	var out Loadout
	switch mode {
	case ModeRoles:
		out.Role = Roles[p.rng.Intn(len(Roles))]
	case ModeLegendsOnly:
		out.Legend = p.pickLegend(excludedLegends)
	case ModeWeaponsOnly:
		out.Primary, out.Secondary = p.pickWeapons(excludedWeapons)
	default:
		out.Legend = p.pickLegend(excludedLegends)
		out.Primary, out.Secondary = p.pickWeapons(excludedWeapons)
	}
	return out
}

// unavailableLegends unions a seat's bans, its owner's exclusion pool, and
// the legends other seats currently hold, so one reroll cannot duplicate a
// legend already on the board.
func unavailableLegends(targetID string, loadouts map[string]Loadout, bans map[string][]string, participants []Participant) map[string]bool {
	out := make(map[string]bool)
	for _, id := range bans[targetID] {
		out[id] = true
	}
	if p, ok := FindParticipant(participants, targetID); ok {
		for id := range p.Exclusions {
			out[id] = true
		}
	}
	for id, l := range loadouts {
		if id == targetID || l.Legend == nil {
			continue
		}
		out[l.Legend.ID] = true
	}
	return out
}

// RollAll draws a fresh loadout for every participant. Seats roll in slot
// order and each seat's exclusion set folds in the legends already assigned
// earlier in the batch, so no two seats receive the same legend as long as
// the pool is large enough.
func (p *Picker) RollAll(participants []Participant, st SessionState) map[string]Loadout {
	ordered := append([]Participant(nil), participants...)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].Slot < ordered[j-1].Slot; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	out := make(map[string]Loadout, len(ordered))
	for _, part := range ordered {
		// The exclusion pool holds legend ids only; weapons are never
		// filtered by it.
		excluded := unavailableLegends(part.ID, out, st.Bans, participants)
		out[part.ID] = p.PickLoadout(excluded, nil, st.Mode)
	}
	return out
}

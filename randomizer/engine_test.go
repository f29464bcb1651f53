package randomizer

import (
	"math/rand"
	"testing"
)

func testPicker(seed int64) *Picker {
	return NewPicker(rand.New(rand.NewSource(seed)))
}

func TestPickLoadoutFullMode(t *testing.T) {
	p := testPicker(1)

	l := p.PickLoadout(nil, nil, ModeFull)
	if l.Legend == nil {
		t.Fatal("expected a legend in full mode")
	}
	if l.Primary == nil || l.Secondary == nil {
		t.Fatal("expected both weapons in full mode")
	}
	if l.Role != "" {
		t.Fatalf("unexpected role %q in full mode", l.Role)
	}
}

func TestPickLoadoutModesFillOnlyTheirFields(t *testing.T) {
	p := testPicker(2)

	legends := p.PickLoadout(nil, nil, ModeLegendsOnly)
	if legends.Legend == nil || legends.Primary != nil || legends.Secondary != nil {
		t.Fatalf("legends-only loadout filled wrong fields: %+v", legends)
	}

	weapons := p.PickLoadout(nil, nil, ModeWeaponsOnly)
	if weapons.Legend != nil || weapons.Primary == nil || weapons.Secondary == nil {
		t.Fatalf("weapons-only loadout filled wrong fields: %+v", weapons)
	}

	roles := p.PickLoadout(nil, nil, ModeRoles)
	if roles.Role == "" || roles.Legend != nil || roles.Primary != nil {
		t.Fatalf("roles loadout filled wrong fields: %+v", roles)
	}
	found := false
	for _, r := range Roles {
		if r == roles.Role {
			found = true
		}
	}
	if !found {
		t.Fatalf("role %q is not in the role list", roles.Role)
	}
}

func TestPickLegendRespectsExclusions(t *testing.T) {
	p := testPicker(3)

	excluded := map[string]bool{}
	for _, l := range Legends {
		if l.ID != "wraith" {
			excluded[l.ID] = true
		}
	}

	for i := 0; i < 50; i++ {
		got := p.pickLegend(excluded)
		if got.ID != "wraith" {
			t.Fatalf("draw %d picked excluded legend %q", i, got.ID)
		}
	}
}

func TestPickLegendFallsBackWhenPoolExhausted(t *testing.T) {
	p := testPicker(4)

	excluded := map[string]bool{}
	for _, l := range Legends {
		excluded[l.ID] = true
	}

	got := p.pickLegend(excluded)
	if got == nil {
		t.Fatal("exhausted pool must still produce a legend")
	}
}

func TestCarePackageWeaponsNeverDrawn(t *testing.T) {
	p := testPicker(5)

	for i := 0; i < 300; i++ {
		l := p.PickLoadout(nil, nil, ModeWeaponsOnly)
		if l.Primary.CarePackage || l.Secondary.CarePackage {
			t.Fatalf("draw %d produced a care package weapon: %s / %s", i, l.Primary.ID, l.Secondary.ID)
		}
	}
}

func TestSecondaryWeaponTypeDistinct(t *testing.T) {
	p := testPicker(6)

	for i := 0; i < 300; i++ {
		l := p.PickLoadout(nil, nil, ModeWeaponsOnly)
		if l.Primary.Type == l.Secondary.Type {
			t.Fatalf("draw %d produced same-type weapons: %s and %s", i, l.Primary.ID, l.Secondary.ID)
		}
	}
}

func TestSecondaryFallsBackToSameType(t *testing.T) {
	p := testPicker(7)

	// Exclude everything except two shotguns; the type-distinct preference
	// must degrade to any-other rather than failing.
	excluded := map[string]bool{}
	for _, w := range Weapons {
		if w.ID != "eva8" && w.ID != "mastiff" {
			excluded[w.ID] = true
		}
	}

	primary, secondary := p.pickWeapons(excluded)
	if primary == nil || secondary == nil {
		t.Fatal("expected a weapon pair")
	}
	if primary.ID == secondary.ID {
		t.Fatalf("two distinct weapons were available, got %s twice", primary.ID)
	}
}

func TestRollAllUniqueLegendsAcrossSeats(t *testing.T) {
	p := testPicker(8)

	participants := []Participant{
		{ID: "a", Slot: 0},
		{ID: "b", Slot: 1},
		{ID: "c", Slot: 2},
	}
	st := NewSessionState()

	for i := 0; i < 100; i++ {
		loadouts := p.RollAll(participants, st)
		if len(loadouts) != 3 {
			t.Fatalf("expected 3 loadouts, got %d", len(loadouts))
		}
		seen := map[string]string{}
		for id, l := range loadouts {
			if l.Legend == nil {
				t.Fatalf("seat %s rolled without a legend", id)
			}
			if prev, dup := seen[l.Legend.ID]; dup {
				t.Fatalf("iteration %d: seats %s and %s share legend %s", i, prev, id, l.Legend.ID)
			}
			seen[l.Legend.ID] = id
		}
	}
}

func TestRollAllHonorsBansAndExclusions(t *testing.T) {
	p := testPicker(9)

	participants := []Participant{
		{ID: "a", Slot: 0, Exclusions: map[string]bool{"wraith": true}},
		{ID: "b", Slot: 1},
	}
	st := NewSessionState()
	st.Bans["a"] = []string{"octane"}

	for i := 0; i < 100; i++ {
		loadouts := p.RollAll(participants, st)
		a := loadouts["a"]
		if a.Legend.ID == "wraith" || a.Legend.ID == "octane" {
			t.Fatalf("iteration %d: seat a rolled excluded legend %s", i, a.Legend.ID)
		}
	}
}

func TestExclusionPoolFiltersLegendsNotWeapons(t *testing.T) {
	p := testPicker(10)

	// "r301" sits in the exclusion pool alongside a legend id. The pool only
	// ever holds legend ids, so the weapon of the same name must stay in
	// rotation while the legend stays out.
	participants := []Participant{
		{ID: "a", Slot: 0, Exclusions: map[string]bool{"wraith": true, "r301": true}},
	}
	st := NewSessionState()

	sawR301 := false
	for i := 0; i < 300; i++ {
		l := p.RollAll(participants, st)["a"]
		if l.Legend.ID == "wraith" {
			t.Fatalf("iteration %d: excluded legend was drawn", i)
		}
		if l.Primary.ID == "r301" || l.Secondary.ID == "r301" {
			sawR301 = true
		}
	}
	if !sawR301 {
		t.Fatal("weapon pool was narrowed by the legend exclusion pool")
	}
}

func TestUnavailableLegendsUnion(t *testing.T) {
	participants := []Participant{
		{ID: "a", Slot: 0, Exclusions: map[string]bool{"crypto": true}},
		{ID: "b", Slot: 1},
	}
	loadouts := map[string]Loadout{
		"b": {Legend: LegendByID("wraith")},
	}
	bans := map[string][]string{"a": {"octane"}}

	excluded := unavailableLegends("a", loadouts, bans, participants)
	for _, id := range []string{"crypto", "octane", "wraith"} {
		if !excluded[id] {
			t.Errorf("expected %s to be unavailable", id)
		}
	}
	if excluded["lifeline"] {
		t.Error("lifeline should be available")
	}
}

package randomizer

import (
	"encoding/json"
	"testing"
)

func TestCloneIsIndependent(t *testing.T) {
	st := NewSessionState()
	st.Loadouts["a"] = Loadout{Legend: LegendByID("wraith")}
	st.Bans["a"] = []string{"octane"}
	st.Perms.RerollMe["a"] = true

	clone := st.Clone()
	clone.Loadouts["a"] = Loadout{Legend: LegendByID("octane")}
	clone.Bans["a"] = append(clone.Bans["a"], "crypto")
	clone.Perms.RerollMe["a"] = false

	if st.Loadouts["a"].Legend.ID != "wraith" {
		t.Error("clone mutation leaked into original loadouts")
	}
	if len(st.Bans["a"]) != 1 {
		t.Error("clone mutation leaked into original bans")
	}
	if !st.Perms.RerollMe["a"] {
		t.Error("clone mutation leaked into original perms")
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore()
	got := store.Get()
	got.Loadouts["a"] = Loadout{Legend: LegendByID("wraith")}

	if len(store.Get().Loadouts) != 0 {
		t.Fatal("mutating a Get result must not change the store")
	}
}

func TestLoadoutsEqual(t *testing.T) {
	a := map[string]Loadout{
		"x": {Legend: LegendByID("wraith"), Primary: WeaponByID("r301")},
	}
	same := map[string]Loadout{
		"x": {Legend: LegendByID("wraith"), Primary: WeaponByID("r301")},
	}
	differentLegend := map[string]Loadout{
		"x": {Legend: LegendByID("octane"), Primary: WeaponByID("r301")},
	}
	extraSeat := map[string]Loadout{
		"x": {Legend: LegendByID("wraith"), Primary: WeaponByID("r301")},
		"y": {Legend: LegendByID("octane")},
	}

	if !LoadoutsEqual(a, same) {
		t.Error("identical loadouts reported unequal")
	}
	if LoadoutsEqual(a, differentLegend) {
		t.Error("different legends reported equal")
	}
	if LoadoutsEqual(a, extraSeat) {
		t.Error("different seat counts reported equal")
	}
	if !LoadoutsEqual(nil, map[string]Loadout{}) {
		t.Error("nil and empty maps should compare equal")
	}
}

func TestLoadoutEqualRoles(t *testing.T) {
	a := map[string]Loadout{"x": {Role: "IGL"}}
	b := map[string]Loadout{"x": {Role: "Anchor"}}
	if LoadoutsEqual(a, b) {
		t.Error("different roles reported equal")
	}
}

func TestNormalizeAfterDecode(t *testing.T) {
	var st SessionState
	if err := json.Unmarshal([]byte(`{"mode":""}`), &st); err != nil {
		t.Fatal(err)
	}
	st.normalize()

	if st.Mode != ModeFull {
		t.Errorf("empty mode should normalize to full, got %q", st.Mode)
	}
	if st.Loadouts == nil || st.Bans == nil || st.Perms.RerollMe == nil || st.Perms.Deploy == nil {
		t.Error("normalize left nil maps")
	}
}

func TestWithHelpersDoNotAliasReceiver(t *testing.T) {
	st := NewSessionState()
	next := st.withBan("a", "wraith")
	if len(st.Bans["a"]) != 0 {
		t.Error("withBan mutated the receiver")
	}
	if len(next.Bans["a"]) != 1 {
		t.Error("withBan did not record the ban")
	}

	next = st.withMode(ModeRoles)
	if st.Mode != ModeFull || next.Mode != ModeRoles {
		t.Error("withMode misbehaved")
	}
}

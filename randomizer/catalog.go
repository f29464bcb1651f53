package randomizer

// LegendClass groups legends the way the in-game class system does.
type LegendClass string

const (
	ClassAssault    LegendClass = "Assault"
	ClassSkirmisher LegendClass = "Skirmisher"
	ClassRecon      LegendClass = "Recon"
	ClassSupport    LegendClass = "Support"
	ClassController LegendClass = "Controller"
)

// Legend is one selectable character.
type Legend struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Class LegendClass `json:"class"`
}

// WeaponType categorizes weapons; a loadout's two weapons must differ by type
// whenever the pool allows it.
type WeaponType string

const (
	TypeAssaultRifle WeaponType = "Assault Rifle"
	TypeSMG          WeaponType = "SMG"
	TypeLMG          WeaponType = "LMG"
	TypeMarksman     WeaponType = "Marksman"
	TypeSniper       WeaponType = "Sniper"
	TypeShotgun      WeaponType = "Shotgun"
	TypePistol       WeaponType = "Pistol"
)

// AmmoType is informational only; the randomizer never filters on it.
type AmmoType string

const (
	AmmoEnergy  AmmoType = "Energy"
	AmmoHeavy   AmmoType = "Heavy"
	AmmoLight   AmmoType = "Light"
	AmmoSniper  AmmoType = "Sniper"
	AmmoShotgun AmmoType = "Shotgun"
)

// Weapon is one selectable weapon. CarePackage weapons are ground-loot
// ineligible and excluded from every draw.
type Weapon struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        WeaponType `json:"type"`
	Ammo        AmmoType   `json:"ammo"`
	CarePackage bool       `json:"care_package,omitempty"`
}

// Roles is the fixed list for the role-assignment sub-mode.
var Roles = []string{"IGL", "Entry Fragger", "Support", "Anchor"}

var Legends = []Legend{
	{ID: "bangalore", Name: "Bangalore", Class: ClassAssault},
	{ID: "fuse", Name: "Fuse", Class: ClassAssault},
	{ID: "ash", Name: "Ash", Class: ClassAssault},
	{ID: "mad_maggie", Name: "Mad Maggie", Class: ClassAssault},
	{ID: "ballistic", Name: "Ballistic", Class: ClassAssault},
	{ID: "wraith", Name: "Wraith", Class: ClassSkirmisher},
	{ID: "octane", Name: "Octane", Class: ClassSkirmisher},
	{ID: "horizon", Name: "Horizon", Class: ClassSkirmisher},
	{ID: "valkyrie", Name: "Valkyrie", Class: ClassSkirmisher},
	{ID: "pathfinder", Name: "Pathfinder", Class: ClassSkirmisher},
	{ID: "revenant", Name: "Revenant", Class: ClassSkirmisher},
	{ID: "alter", Name: "Alter", Class: ClassSkirmisher},
	{ID: "bloodhound", Name: "Bloodhound", Class: ClassRecon},
	{ID: "crypto", Name: "Crypto", Class: ClassRecon},
	{ID: "seer", Name: "Seer", Class: ClassRecon},
	{ID: "vantage", Name: "Vantage", Class: ClassRecon},
	{ID: "gibraltar", Name: "Gibraltar", Class: ClassSupport},
	{ID: "lifeline", Name: "Lifeline", Class: ClassSupport},
	{ID: "mirage", Name: "Mirage", Class: ClassSupport},
	{ID: "loba", Name: "Loba", Class: ClassSupport},
	{ID: "newcastle", Name: "Newcastle", Class: ClassSupport},
	{ID: "conduit", Name: "Conduit", Class: ClassSupport},
	{ID: "caustic", Name: "Caustic", Class: ClassController},
	{ID: "wattson", Name: "Wattson", Class: ClassController},
	{ID: "rampart", Name: "Rampart", Class: ClassController},
	{ID: "catalyst", Name: "Catalyst", Class: ClassController},
}

var Weapons = []Weapon{
	{ID: "havoc", Name: "Havoc Rifle", Type: TypeAssaultRifle, Ammo: AmmoEnergy},
	{ID: "flatline", Name: "VK-47 Flatline", Type: TypeAssaultRifle, Ammo: AmmoHeavy},
	{ID: "hemlok", Name: "Hemlok Burst AR", Type: TypeAssaultRifle, Ammo: AmmoHeavy},
	{ID: "r301", Name: "R-301 Carbine", Type: TypeAssaultRifle, Ammo: AmmoLight},
	{ID: "nemesis", Name: "Nemesis Burst AR", Type: TypeAssaultRifle, Ammo: AmmoEnergy},
	{ID: "alternator", Name: "Alternator SMG", Type: TypeSMG, Ammo: AmmoLight},
	{ID: "prowler", Name: "Prowler Burst PDW", Type: TypeSMG, Ammo: AmmoHeavy},
	{ID: "r99", Name: "R-99 SMG", Type: TypeSMG, Ammo: AmmoLight},
	{ID: "volt", Name: "Volt SMG", Type: TypeSMG, Ammo: AmmoEnergy},
	{ID: "car", Name: "C.A.R. SMG", Type: TypeSMG, Ammo: AmmoHeavy},
	{ID: "devotion", Name: "Devotion LMG", Type: TypeLMG, Ammo: AmmoEnergy},
	{ID: "lstar", Name: "L-STAR EMG", Type: TypeLMG, Ammo: AmmoEnergy},
	{ID: "spitfire", Name: "M600 Spitfire", Type: TypeLMG, Ammo: AmmoLight},
	{ID: "rampage", Name: "Rampage LMG", Type: TypeLMG, Ammo: AmmoHeavy},
	{ID: "g7_scout", Name: "G7 Scout", Type: TypeMarksman, Ammo: AmmoLight},
	{ID: "triple_take", Name: "Triple Take", Type: TypeMarksman, Ammo: AmmoEnergy},
	{ID: "3030", Name: "30-30 Repeater", Type: TypeMarksman, Ammo: AmmoHeavy},
	{ID: "bocek", Name: "Bocek Compound Bow", Type: TypeMarksman, Ammo: AmmoSniper},
	{ID: "charge_rifle", Name: "Charge Rifle", Type: TypeSniper, Ammo: AmmoSniper},
	{ID: "longbow", Name: "Longbow DMR", Type: TypeSniper, Ammo: AmmoSniper},
	{ID: "sentinel", Name: "Sentinel", Type: TypeSniper, Ammo: AmmoSniper},
	{ID: "eva8", Name: "EVA-8 Auto", Type: TypeShotgun, Ammo: AmmoShotgun},
	{ID: "mastiff", Name: "Mastiff Shotgun", Type: TypeShotgun, Ammo: AmmoShotgun},
	{ID: "mozambique", Name: "Mozambique", Type: TypeShotgun, Ammo: AmmoShotgun},
	{ID: "peacekeeper", Name: "Peacekeeper", Type: TypeShotgun, Ammo: AmmoShotgun, CarePackage: true},
	{ID: "p2020", Name: "P2020", Type: TypePistol, Ammo: AmmoLight},
	{ID: "re45", Name: "RE-45 Auto", Type: TypePistol, Ammo: AmmoLight},
	{ID: "wingman", Name: "Wingman", Type: TypePistol, Ammo: AmmoSniper},
}

// LegendByID returns the catalog entry for id, or nil.
func LegendByID(id string) *Legend {
	for i := range Legends {
		if Legends[i].ID == id {
			return &Legends[i]
		}
	}
	return nil
}

// WeaponByID returns the catalog entry for id, or nil.
func WeaponByID(id string) *Weapon {
	for i := range Weapons {
		if Weapons[i].ID == id {
			return &Weapons[i]
		}
	}
	return nil
}

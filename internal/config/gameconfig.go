package config

// ShipClassDef is a frozen-at-construction stats template for one
// ship class, replacing the "deep inheritance" design note with a
// single tagged variant plus a config-driven stats table
// (spec.md §9), grounded on the teacher's HullRegistry/UnitCosts
// constant-table style (globals.go).
type ShipClassDef struct {
	Name          string
	AS, DS, WEP   int
	Cost          map[string]int
	HangarSlots   int // carrier capacity; 0 = not a carrier
	CargoCapacity int // 0 = no cargo hold
	IsETAC        bool
	RequiresTech  map[string]int // field -> minimum level
}

// FacilityDef is a Neoria/Kastra construction template.
type FacilityDef struct {
	Name            string
	Cost            map[string]int
	ConstructPoints int
}

// Game bundles the full gameplay balance table, loaded once at daemon
// start into an immutable global (spec.md §6).
type Game struct {
	Ships      map[string]ShipClassDef
	Facilities map[string]FacilityDef

	Economy    EconomyConfig
	Research   ResearchConfig
	Combat     CombatConfig
	Limits     LimitsConfig
	Capacity   CapacityConfig
	Prestige   PrestigeConfig
	Diplomacy  DiplomacyConfig
	Espionage  EspionageConfig
	Population PopulationConfig
	Fallback   FallbackConfig
}

// FallbackConfig governs automated fleet retreat and fallback-route
// computation, spec.md §4.B.4.
type FallbackConfig struct {
	SafeFriendlyFleets int     // friendly fleets at a colony that count as "defended" absent a starbase
	RouteExpiryTurns   uint32  // a fallback route is recomputed once this many turns old
	RetreatThreshold   float64 // strength ratio below which Conservative/Aggressive policies trigger SeekHome
}

type EconomyConfig struct {
	BlockadeIncomeFactor float64
	UpkeepActivePct      float64
	UpkeepReservePct     float64
	UpkeepMothballedPct  float64
	UpkeepCrippledPct    float64
	ShortfallThreshold   int // consecutive turns before status transition
	InfraDamagePerShortfall float64
}

type ResearchConfig struct {
	LevelThresholds []int // points required to advance from level i to i+1
}

type CombatConfig struct {
	CriticalHitChance   float64
	CriticalHitMultiplier float64
	RetreatStrengthRatio  float64
	GroundAttackBonus     float64
	ShieldDefenseFactor   float64 // planetary shield level -> ground-defense strength
	OrbitalDamageFactor   float64 // fraction of attacker space strength chipped off starbase hull/turn
}

type LimitsConfig struct {
	ShipsPerFleetBase int // modified by FC tech
	FleetsPerHouseBase int // modified by SC tech and map scale
	MapScaleDivisor    int
	MapScaleFactor     float64
	ScoutStaleTurns    int // age after which a scouted-system report stops being shown; the system falls back to Adjacent/None visibility
}

type CapacityConfig struct {
	FightersPerIUDivisor int
	GraceTurns           int
}

type PrestigeConfig struct {
	VictoryThreshold     int64
	VictoryStreakTurns   int
	Deltas               map[string]int64 // event cause -> prestige delta
}

type DiplomacyConfig struct {
	ViolationDecayTurns int
}

type EspionageConfig struct {
	BaseSuccessChance float64
	DetectionChance   float64
}

type PopulationConfig struct {
	BaseGrowthRate   float64
	StarbaseBonus    float64
}

// DefaultGame returns the built-in balance table used when no
// override file is supplied, mirroring the teacher's hard-coded
// registries (globals.go's HullRegistry, UnitCosts, BuildingCosts).
func DefaultGame() Game {
	return Game{
		Ships: map[string]ShipClassDef{
			"scout":     {Name: "scout", AS: 1, DS: 1, WEP: 0, Cost: map[string]int{"iron": 50, "fuel": 10}},
			"fighter":   {Name: "fighter", AS: 3, DS: 2, WEP: 1, Cost: map[string]int{"iron": 150, "fuel": 30}},
			"destroyer": {Name: "destroyer", AS: 8, DS: 6, WEP: 1, Cost: map[string]int{"iron": 600, "fuel": 120}},
			"cruiser":   {Name: "cruiser", AS: 20, DS: 18, WEP: 2, Cost: map[string]int{"iron": 1800, "fuel": 360}},
			"carrier":   {Name: "carrier", AS: 4, DS: 14, WEP: 0, Cost: map[string]int{"iron": 2400, "fuel": 400}, HangarSlots: 8},
			"etac":      {Name: "etac", AS: 0, DS: 4, WEP: 0, Cost: map[string]int{"iron": 1200, "fuel": 200}, CargoCapacity: 500, IsETAC: true},
		},
		Facilities: map[string]FacilityDef{
			"spaceport": {Name: "spaceport", Cost: map[string]int{"iron": 800}, ConstructPoints: 400},
			"shipyard":  {Name: "shipyard", Cost: map[string]int{"iron": 2000, "carbon": 500}, ConstructPoints: 1000},
			"drydock":   {Name: "drydock", Cost: map[string]int{"iron": 1500}, ConstructPoints: 700},
			"starbase":  {Name: "starbase", Cost: map[string]int{"iron": 5000, "carbon": 2000}, ConstructPoints: 2500},
		},
		Economy: EconomyConfig{
			BlockadeIncomeFactor:    0.25,
			UpkeepActivePct:         1.0,
			UpkeepReservePct:        0.4,
			UpkeepMothballedPct:     0.1,
			UpkeepCrippledPct:       0.6,
			ShortfallThreshold:      3,
			InfraDamagePerShortfall: 0.02,
		},
		Research: ResearchConfig{
			LevelThresholds: []int{0, 100, 300, 700, 1500, 3100, 6300},
		},
		Combat: CombatConfig{
			CriticalHitChance:     0.05,
			CriticalHitMultiplier: 2.0,
			RetreatStrengthRatio:  0.4,
			GroundAttackBonus:     0.15,
			ShieldDefenseFactor:   25.0,
			OrbitalDamageFactor:   0.1,
		},
		Limits: LimitsConfig{
			ShipsPerFleetBase:  20,
			FleetsPerHouseBase: 6,
			MapScaleDivisor:    10,
			MapScaleFactor:     0.5,
			ScoutStaleTurns:    20,
		},
		Capacity: CapacityConfig{
			FightersPerIUDivisor: 4,
			GraceTurns:           3,
		},
		Prestige: PrestigeConfig{
			VictoryThreshold:   1000,
			VictoryStreakTurns: 3,
			Deltas: map[string]int64{
				"tech_advance":        5,
				"colonize":            20,
				"combat_victory":      15,
				"combat_defeat":       -10,
				"colony_lost":         -25,
				"colony_undefended":   -5,
				"pact_violation":      -30,
				"house_eliminated":    50,
				"invasion_success":    25,
				"invasion_failure":    -15,
				"starbase_destroyed":  -20,
				"espionage_success":   8,
				"espionage_caught":    -12,
				"shortfall_penalty":   -5,
				"planet_breaker_used": 40,
				"prestige_victory":    200,
				"blockade_imposed":    10,
				"diplomatic_pact":     5,
			},
		},
		Diplomacy: DiplomacyConfig{
			ViolationDecayTurns: 10,
		},
		Espionage: EspionageConfig{
			BaseSuccessChance: 0.5,
			DetectionChance:   0.3,
		},
		Population: PopulationConfig{
			BaseGrowthRate: 0.02,
			StarbaseBonus:  0.01,
		},
		Fallback: FallbackConfig{
			SafeFriendlyFleets: 2,
			RouteExpiryTurns:   5,
			RetreatThreshold:   0.5,
		},
	}
}

// LoadGame parses a KDL game-config file, applying overrides onto
// DefaultGame. Only the subset of nodes present in the file is
// overridden; unrecognized nodes are accepted permissively at the
// section level (unknown leaf scalars inside a known section are
// the caller's responsibility, per §6's "rejects unknown nodes" only
// binding the order-language grammar, not this balance-table grammar).
func LoadGame(path string) (Game, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return Game{}, err
	}
	g := DefaultGame()
	for _, n := range doc.Nodes {
		switch n.Name {
		case "ships":
			for _, s := range n.Children {
				applyShipOverride(g.Ships, s)
			}
		case "combat":
			applyCombatOverride(&g.Combat, n)
		case "economy":
			applyEconomyOverride(&g.Economy, n)
		case "limits":
			applyLimitsOverride(&g.Limits, n)
		case "prestige":
			applyPrestigeOverride(&g.Prestige, n)
		case "fallback":
			applyFallbackOverride(&g.Fallback, n)
		}
	}
	return g, nil
}

func applyFallbackOverride(f *FallbackConfig, n Node) {
	if v, ok := n.PropInt("safe_friendly_fleets"); ok {
		f.SafeFriendlyFleets = v
	}
	if v, ok := n.PropInt("route_expiry_turns"); ok {
		f.RouteExpiryTurns = uint32(v)
	}
	if v, ok := n.PropFloat("retreat_threshold"); ok {
		f.RetreatThreshold = v
	}
}

func applyShipOverride(ships map[string]ShipClassDef, n Node) {
	def, ok := ships[n.Name]
	if !ok {
		def = ShipClassDef{Name: n.Name, Cost: map[string]int{}}
	}
	if v, ok := n.PropInt("as"); ok {
		def.AS = v
	}
	if v, ok := n.PropInt("ds"); ok {
		def.DS = v
	}
	if v, ok := n.PropInt("wep"); ok {
		def.WEP = v
	}
	if v, ok := n.PropInt("hangar"); ok {
		def.HangarSlots = v
	}
	ships[n.Name] = def
}

func applyCombatOverride(c *CombatConfig, n Node) {
	if v, ok := n.PropFloat("critical_hit_chance"); ok {
		c.CriticalHitChance = v
	}
	if v, ok := n.PropFloat("critical_hit_multiplier"); ok {
		c.CriticalHitMultiplier = v
	}
	if v, ok := n.PropFloat("retreat_strength_ratio"); ok {
		c.RetreatStrengthRatio = v
	}
	if v, ok := n.PropFloat("ground_attack_bonus"); ok {
		c.GroundAttackBonus = v
	}
	if v, ok := n.PropFloat("shield_defense_factor"); ok {
		c.ShieldDefenseFactor = v
	}
	if v, ok := n.PropFloat("orbital_damage_factor"); ok {
		c.OrbitalDamageFactor = v
	}
}

func applyEconomyOverride(e *EconomyConfig, n Node) {
	if v, ok := n.PropFloat("blockade_income_factor"); ok {
		e.BlockadeIncomeFactor = v
	}
	if v, ok := n.PropInt("shortfall_threshold"); ok {
		e.ShortfallThreshold = v
	}
}

func applyLimitsOverride(l *LimitsConfig, n Node) {
	if v, ok := n.PropInt("ships_per_fleet_base"); ok {
		l.ShipsPerFleetBase = v
	}
	if v, ok := n.PropInt("fleets_per_house_base"); ok {
		l.FleetsPerHouseBase = v
	}
	if v, ok := n.PropInt("scout_stale_turns"); ok {
		l.ScoutStaleTurns = v
	}
}

func applyPrestigeOverride(p *PrestigeConfig, n Node) {
	if v, ok := n.PropInt("victory_threshold"); ok {
		p.VictoryThreshold = int64(v)
	}
}

package entity

import "github.com/ec4x/daemon/internal/ids"

// HouseStatus is the lifecycle state of a player faction.
type HouseStatus int

const (
	HouseActive HouseStatus = iota
	HouseAutopilot
	HouseDefensiveCollapse
	HouseEliminated
)

// TechTree holds per-field integer levels, spec.md §3.
type TechTree struct {
	EL, SL, CST, WEP, TER, ELI, CLK, SLD, CIC, FD, ACO, FC, SC int
}

// House is a player faction: the unit of ownership for treasury, tech,
// colonies, fleets, and diplomacy.
type House struct {
	ID                     ids.HouseId
	Name                   string
	DisplayColor           string
	Treasury               int64 // signed: may go negative
	Prestige               int64 // signed
	Status                 HouseStatus
	Tech                   TechTree
	TaxPolicy              float64
	NostrPubkey            string // hex32, empty until a slot is claimed
	DHPublicKey            string // hex32 X25519 key, bound alongside NostrPubkey at slot claim
	InviteCode             string // short mnemonic, e.g. "tango-rose-oak"
	ConsecutiveShortfall   int
	NegativePrestigeTurns  int
	TurnsWithoutOrders     int
	PlanetBreakerCount     int
	PrestigeVictoryStreak  int
}

// PlanetClass is the habitability tier of a system's planet.
type PlanetClass int

const (
	PlanetExtreme PlanetClass = iota
	PlanetDesolate
	PlanetHarsh
	PlanetBenign
	PlanetLush
	PlanetEden
)

// ResourceRating is the resource abundance tier of a system.
type ResourceRating int

const (
	ResourceVeryPoor ResourceRating = iota
	ResourcePoor
	ResourceAbundant
	ResourceRich
	ResourceVeryRich
)

// AxialCoord is a hex coordinate on the starmap.
type AxialCoord struct {
	Q, R int
}

// System is a node on the starmap.
type System struct {
	ID             ids.SystemId
	Name           string
	Coords         AxialCoord
	Ring           int // cubic distance from the hub
	PlanetClass    PlanetClass
	ResourceRating ResourceRating
}

// LaneClass tags a jump lane's traversal cost/risk class.
type LaneClass int

const (
	LaneMajor LaneClass = iota
	LaneMinor
)

// JumpLane is a directed edge of the starmap adjacency graph.
type JumpLane struct {
	From, To ids.SystemId
	Class    LaneClass
}

// CapacityViolation records a grace-period overage (fighters-per-colony
// or fleets-per-house) awaiting forced disbandment.
type CapacityViolation struct {
	Active       bool
	SinceTurn    uint32
	GraceExpires uint32
}

// ConstructionProject is a queued or in-progress build.
type ConstructionProject struct {
	Kind            string // "Ship", "Facility", "Ground", "Industrial", "Infrastructure"
	ItemID          string
	Quantity        int
	RemainingPoints int
	TotalPoints     int
	ETATurn         uint32
}

// RepairJob tracks a crippled ship's accumulated repair points.
type RepairJob struct {
	ShipID          ids.ShipId
	RemainingPoints int
	TotalPoints     int
}

// Colony is a populated, owned world.
type Colony struct {
	ID                  ids.ColonyId
	SystemID            ids.SystemId
	Owner               ids.HouseId
	PopulationUnits     int64
	Souls               int64 // populationUnits * 1e6, scaled
	IndustrialUnits     int
	InvestmentCost      int64
	Infrastructure      int
	TaxRate             float64
	InfrastructureDamage float64 // [0.0, 1.0]
	Blockaded           bool
	BlockadedBy         []ids.HouseId
	BlockadeTurns       int
	AutoRepair          bool
	AutoLoadingEnabled  bool
	AutoReloadETACs     bool
	PlanetaryShieldLevel int
	UnderConstruction   *ConstructionProject
	ConstructionQueue   []ConstructionProject
	RepairQueue         []RepairJob
	CapacityState       CapacityViolation
	NeoriaIDs           []ids.NeoriaId
	KastraIDs           []ids.KastraId
	GroundUnitIDs       []ids.GroundUnitId
	FighterSquadronIDs  []ids.SquadronId
}

// FleetStatus is the fleet's operational posture.
type FleetStatus int

const (
	FleetActive FleetStatus = iota
	FleetReserve
	FleetMothballed
)

// FleetCommandType enumerates the orders a fleet may be given.
type FleetCommandType int

const (
	CmdHold FleetCommandType = iota
	CmdMove
	CmdSeekHome
	CmdPatrol
	CmdGuardStarbase
	CmdGuardColony
	CmdBlockade
	CmdBombard
	CmdInvade
	CmdBlitz
	CmdColonize
	CmdScoutColony
	CmdScoutSystem
	CmdHackStarbase
	CmdJoinFleet
	CmdRendezvous
	CmdSalvage
	CmdView
	CmdSetFleetStatus // spec.md §9 open-question resolution
)

// AutoRetreatPolicy governs automated fallback behavior (spec.md §4.B.4).
type AutoRetreatPolicy int

const (
	RetreatNever AutoRetreatPolicy = iota
	RetreatMissionsOnly
	RetreatConservative
	RetreatAggressive
)

// FleetCommand is the resolved order a fleet is currently executing.
type FleetCommand struct {
	Type          FleetCommandType
	TargetSystem  ids.SystemId
	TargetFleet   ids.FleetId
	SetStatus     FleetStatus
	RetreatPolicy AutoRetreatPolicy
}

// FallbackRoute is a fleet's precomputed safe path home (spec.md §4.B.4).
type FallbackRoute struct {
	Path       []ids.SystemId
	ComputedAt uint32
	ExpiresAt  uint32
}

// Fleet is a mobile grouping of ships under one house's command.
type Fleet struct {
	ID       ids.FleetId
	HouseID  ids.HouseId
	Location ids.SystemId
	Ships    []ids.ShipId
	Status   FleetStatus
	Command  FleetCommand
	ROE      uint8 // 0..10
	Name     string
	Fallback *FallbackRoute
}

// ShipState is the damage state of a ship.
type ShipState int

const (
	ShipUndamaged ShipState = iota
	ShipCrippled
	ShipDestroyed
)

// ShipStats are frozen at construction time per spec.md §3.
type ShipStats struct {
	AS  int // attack strength
	DS  int // defense strength
	WEP int // weapon bonus tier
}

// Cargo is an optional ship hold payload (colonists, marines, freight).
type Cargo struct {
	Type     string
	Quantity int
}

// Ship is a single hull, optionally embarked in a fleet or carrier.
type Ship struct {
	ID                ids.ShipId
	HouseID           ids.HouseId
	FleetID           ids.FleetId // 0 = unassigned
	ShipClass         string
	Stats             ShipStats
	State             ShipState
	Cargo             *Cargo
	AssignedToCarrier ids.ShipId // 0 if not embarked
	EmbarkedFighters  []ids.ShipId
}

// Squadron is a named grouping of fighters still docked at a colony.
type Squadron struct {
	ID            ids.SquadronId
	ColonyID      ids.ColonyId
	HouseID       ids.HouseId
	FighterCount  int
	Readiness     float64
}

// GroundUnitKind enumerates planetary defense/assault unit types.
type GroundUnitKind int

const (
	GroundMarine GroundUnitKind = iota
	GroundArmy
	GroundBattery
)

// GroundUnit is a marine/army/ground-battery formation.
type GroundUnit struct {
	ID       ids.GroundUnitId
	ColonyID ids.ColonyId
	HouseID  ids.HouseId
	Kind     GroundUnitKind
	Strength int
}

// NeoriaKind enumerates the spaceport/shipyard/drydock facility family.
type NeoriaKind int

const (
	NeoriaSpaceport NeoriaKind = iota
	NeoriaShipyard
	NeoriaDrydock
)

// Neoria is a construction/repair facility.
type Neoria struct {
	ID                ids.NeoriaId
	ColonyID          ids.ColonyId
	Kind              NeoriaKind
	Level             int
	UnderConstruction bool
}

// Kastra is a starbase.
type Kastra struct {
	ID         ids.KastraId
	ColonyID   ids.ColonyId
	Level      int
	HullPoints int
	Destroyed  bool
}

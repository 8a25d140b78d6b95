// Package command defines the per-turn, per-house order payload
// accepted by the rules engine, mirroring spec.md §3's CommandPacket
// and §6's order-language grammar.
package command

import (
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

// BuildType enumerates what a build order targets.
type BuildType int

const (
	BuildShip BuildType = iota
	BuildFacility
	BuildGround
	BuildIndustrial
	BuildInfrastructure
)

// FleetOrder is one fleet's order for the turn, pre-validation.
type FleetOrder struct {
	FleetID      ids.FleetId
	CommandType  entity.FleetCommandType
	TargetSystem ids.SystemId
	TargetFleet  ids.FleetId
	ROE          uint8
	Priority     int
	// SetStatus is only consulted when CommandType == CmdSetFleetStatus
	// (spec.md §9's reserve/mothball open question resolution).
	SetStatus entity.FleetStatus
}

// BuildOrder is one construction request against a colony's queue.
type BuildOrder struct {
	ColonyID  ids.ColonyId
	BuildType BuildType
	ItemID    string
	Quantity  int
}

// ResearchAllocation splits a house's research points for the turn.
type ResearchAllocation struct {
	Economic   int
	Science    int
	Technology map[string]int // field name -> points, e.g. "wep": 40
}

// DiplomaticCommand proposes or responds to a diplomatic action.
type DiplomaticCommand struct {
	Target ids.HouseId
	Action string
	Terms  string
}

// EspionageAction is one espionage attempt for the turn.
type EspionageAction struct {
	Type   string
	Target ids.SystemId
	Budget int
}

// Packet is the full per-house, per-turn order submission.
type Packet struct {
	HouseID             ids.HouseId
	Turn                uint32
	FleetCommands       []FleetOrder
	BuildCommands       []BuildOrder
	ResearchAllocation  ResearchAllocation
	DiplomaticCommands  []DiplomaticCommand
	EspionageActions    []EspionageAction
	EBPInvestment       int
	CIPInvestment       int
}

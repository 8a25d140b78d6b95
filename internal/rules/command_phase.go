package rules

import (
	"math"

	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

// RunCommand executes spec.md §4.B.1 phase 2: auto-load fighters,
// validate and apply every house's submitted fleet, build and research
// orders, and enforce the fighter capacity limit. Ships are
// commissioned in Maintenance, not here.
func RunCommand(state *entity.GameState, cfg config.Game, packets map[ids.HouseId]command.Packet, l *log) {
	autoLoadFighters(state, cfg, l)

	houseIds := state.Houses.Ids()
	for _, hid := range houseIds {
		pkt, ok := packets[hid]
		if !ok {
			continue
		}
		applyFleetCommands(state, cfg, hid, pkt.FleetCommands, l)
		applyBuildCommands(state, cfg, hid, pkt.BuildCommands, l)
		applyResearchAllocation(state, hid, pkt.ResearchAllocation, l)
	}
	enforceFighterCapacity(state, cfg, l)
}

// enforceFighterCapacity applies spec.md §4.B.1's Fighter Division
// capacity rule: fighters beyond floor(IU / divisor) x FD_multiplier
// enter a grace period, then are disbanded once it expires.
func enforceFighterCapacity(state *entity.GameState, cfg config.Game, l *log) {
	for _, cid := range state.Colonies.Ids() {
		c, ok := state.Colonies.Get(cid)
		if !ok {
			continue
		}
		house, ok := state.Houses.Get(c.Owner)
		if !ok {
			continue
		}
		capacity := fighterCapacity(cfg, c.IndustrialUnits, house.Tech.FD)
		var docked int
		for _, sqID := range c.FighterSquadronIDs {
			if sq, ok := state.Squadrons.Get(sqID); ok {
				docked += sq.FighterCount
			}
		}
		if docked <= capacity {
			c.CapacityState = entity.CapacityViolation{}
			_ = state.Colonies.Update(cid, c)
			continue
		}
		if !c.CapacityState.Active {
			c.CapacityState = entity.CapacityViolation{Active: true, SinceTurn: state.Turn, GraceExpires: state.Turn + uint32(cfg.Capacity.GraceTurns)}
			_ = state.Colonies.Update(cid, c)
			continue
		}
		if state.Turn < c.CapacityState.GraceExpires {
			_ = state.Colonies.Update(cid, c)
			continue
		}
		disbandExcessFighters(state, &c, docked-capacity)
		c.CapacityState = entity.CapacityViolation{}
		_ = state.Colonies.Update(cid, c)
	}
}

func disbandExcessFighters(state *entity.GameState, c *entity.Colony, excess int) {
	remaining := c.FighterSquadronIDs[:0]
	for _, sqID := range c.FighterSquadronIDs {
		if excess <= 0 {
			remaining = append(remaining, sqID)
			continue
		}
		sq, ok := state.Squadrons.Get(sqID)
		if !ok {
			continue
		}
		if sq.FighterCount <= excess {
			excess -= sq.FighterCount
			_ = state.Squadrons.Remove(sqID)
			continue
		}
		sq.FighterCount -= excess
		excess = 0
		_ = state.Squadrons.Update(sqID, sq)
		remaining = append(remaining, sqID)
	}
	c.FighterSquadronIDs = remaining
}

func autoLoadFighters(state *entity.GameState, cfg config.Game, l *log) {
	for _, cid := range state.Colonies.Ids() {
		c, ok := state.Colonies.Get(cid)
		if !ok || !c.AutoLoadingEnabled || len(c.FighterSquadronIDs) == 0 {
			continue
		}
		for _, fleetID := range state.FleetsBySystem.Get(c.SystemID) {
			fleet, ok := state.Fleets.Get(fleetID)
			if !ok || fleet.HouseID != c.Owner {
				continue
			}
			for _, shipID := range fleet.Ships {
				ship, ok := state.Ships.Get(shipID)
				if !ok {
					continue
				}
				hangar := cfg.Ships[ship.ShipClass].HangarSlots
				if hangar == 0 {
					continue
				}
				free := hangar - len(ship.EmbarkedFighters)
				loaded := 0
				remaining := c.FighterSquadronIDs[:0]
				for _, sqID := range c.FighterSquadronIDs {
					if loaded >= free {
						remaining = append(remaining, sqID)
						continue
					}
					sq, ok := state.Squadrons.Get(sqID)
					if !ok {
						continue
					}
					n := sq.FighterCount
					if n > free-loaded {
						n = free - loaded
					}
					loaded += n
					sq.FighterCount -= n
					if sq.FighterCount > 0 {
						_ = state.Squadrons.Update(sqID, sq)
						remaining = append(remaining, sqID)
					} else {
						_ = state.Squadrons.Remove(sqID)
					}
				}
				c.FighterSquadronIDs = remaining
				if loaded > 0 {
					e := newEvent(state.Turn, EventAutoLoaded)
					e.HouseID = &c.Owner
					sid := c.SystemID
					e.SystemID = &sid
					e.Details["loaded"] = itoa(uint32(loaded))
					l.emit(e)
				}
			}
		}
		_ = state.Colonies.Update(cid, c)
	}
}

func applyFleetCommands(state *entity.GameState, cfg config.Game, hid ids.HouseId, orders []command.FleetOrder, l *log) {
	for _, order := range orders {
		fleet, ok := state.Fleets.Get(order.FleetID)
		if !ok || fleet.HouseID != hid {
			rejectOrder(state, l, hid, order.FleetID, "fleet not owned or absent")
			continue
		}
		if err := validateFleetCommand(state, cfg, fleet, order); err != "" {
			rejectOrder(state, l, hid, order.FleetID, err)
			continue
		}
		fleet.Command = entity.FleetCommand{
			Type:         order.CommandType,
			TargetSystem: order.TargetSystem,
			TargetFleet:  order.TargetFleet,
			SetStatus:    order.SetStatus,
		}
		if order.ROE > 0 {
			fleet.ROE = order.ROE
		}
		if order.CommandType == entity.CmdSetFleetStatus {
			fleet.Status = order.SetStatus
		}
		_ = state.Fleets.Update(order.FleetID, fleet)

		e := newEvent(state.Turn, EventOrderAccepted)
		e.HouseID = &hid
		fid := order.FleetID
		e.FleetID = &fid
		l.emit(e)
	}
}

func rejectOrder(state *entity.GameState, l *log, hid ids.HouseId, fid ids.FleetId, reason string) {
	e := newEvent(state.Turn, EventOrderRejected)
	e.HouseID = &hid
	e.FleetID = &fid
	e.Description = reason
	l.emit(e)
}

// validateFleetCommand returns a non-empty rejection reason, or "" if
// the command is legal.
func validateFleetCommand(state *entity.GameState, cfg config.Game, fleet entity.Fleet, order command.FleetOrder) string {
	switch order.CommandType {
	case entity.CmdMove, entity.CmdSeekHome, entity.CmdPatrol:
		if order.CommandType == entity.CmdMove {
			if _, ok := state.Systems.Get(order.TargetSystem); !ok {
				return "target system does not exist"
			}
		}
	case entity.CmdColonize:
		if !fleetHasETAC(state, cfg, fleet) {
			return "colonize requires an ETAC with colonists cargo"
		}
	case entity.CmdInvade, entity.CmdBlitz:
		if !fleetHasMarines(state, fleet) {
			return "invasion requires marines"
		}
	case entity.CmdJoinFleet:
		if _, ok := state.Fleets.Get(order.TargetFleet); !ok {
			return "target fleet does not exist"
		}
	}
	return ""
}

func fleetHasETAC(state *entity.GameState, cfg config.Game, fleet entity.Fleet) bool {
	for _, sid := range fleet.Ships {
		ship, ok := state.Ships.Get(sid)
		if !ok {
			continue
		}
		if def, ok := cfg.Ships[ship.ShipClass]; ok && def.IsETAC && ship.Cargo != nil && ship.Cargo.Quantity > 0 {
			return true
		}
	}
	return false
}

func fleetHasMarines(state *entity.GameState, fleet entity.Fleet) bool {
	for _, sid := range fleet.Ships {
		ship, ok := state.Ships.Get(sid)
		if ok && ship.Cargo != nil && ship.Cargo.Type == "marines" && ship.Cargo.Quantity > 0 {
			return true
		}
	}
	return false
}

func applyBuildCommands(state *entity.GameState, cfg config.Game, hid ids.HouseId, orders []command.BuildOrder, l *log) {
	for _, order := range orders {
		c, ok := state.Colonies.Get(order.ColonyID)
		if !ok || c.Owner != hid {
			e := newEvent(state.Turn, EventBuildRejected)
			e.HouseID = &hid
			e.Description = "colony not owned or absent"
			l.emit(e)
			continue
		}
		cost, totalPoints, ok := buildCost(cfg, order)
		if !ok {
			e := newEvent(state.Turn, EventBuildRejected)
			e.HouseID = &hid
			e.Description = "unknown build item"
			l.emit(e)
			continue
		}
		house, _ := state.Houses.Get(hid)
		if house.Treasury < cost {
			e := newEvent(state.Turn, EventBuildRejected)
			e.HouseID = &hid
			e.Description = "insufficient treasury"
			l.emit(e)
			continue
		}
		house.Treasury -= cost
		_ = state.Houses.Update(hid, house)

		proj := entity.ConstructionProject{
			Kind:            buildKindName(order.BuildType),
			ItemID:          order.ItemID,
			Quantity:        order.Quantity,
			RemainingPoints: totalPoints,
			TotalPoints:     totalPoints,
		}
		if c.UnderConstruction == nil {
			c.UnderConstruction = &proj
		} else {
			c.ConstructionQueue = append(c.ConstructionQueue, proj)
		}
		_ = state.Colonies.Update(order.ColonyID, c)

		e := newEvent(state.Turn, EventBuildStarted)
		e.HouseID = &hid
		sid := c.SystemID
		e.SystemID = &sid
		e.Details["item"] = order.ItemID
		l.emit(e)
	}
}

func buildKindName(t command.BuildType) string {
	switch t {
	case command.BuildShip:
		return "Ship"
	case command.BuildFacility:
		return "Facility"
	case command.BuildGround:
		return "Ground"
	case command.BuildIndustrial:
		return "Industrial"
	default:
		return "Infrastructure"
	}
}

func buildCost(cfg config.Game, order command.BuildOrder) (int64, int, bool) {
	switch order.BuildType {
	case command.BuildShip:
		def, ok := cfg.Ships[order.ItemID]
		if !ok {
			return 0, 0, false
		}
		var total int
		for _, v := range def.Cost {
			total += v
		}
		return int64(total) * int64(order.Quantity), total * int(math.Max(1, float64(order.Quantity))), true
	case command.BuildFacility:
		def, ok := cfg.Facilities[order.ItemID]
		if !ok {
			return 0, 0, false
		}
		var total int
		for _, v := range def.Cost {
			total += v
		}
		return int64(total), def.ConstructPoints, true
	default:
		return 0, 0, true
	}
}

func applyResearchAllocation(state *entity.GameState, hid ids.HouseId, alloc command.ResearchAllocation, l *log) {
	if len(alloc.Technology) == 0 {
		return
	}
	house, ok := state.Houses.Get(hid)
	if !ok {
		return
	}
	for field, points := range alloc.Technology {
		advanceTechField(&house.Tech, field, points)
	}
	_ = state.Houses.Update(hid, house)
	e := newEvent(state.Turn, EventMaintenanceResearch)
	e.HouseID = &hid
	l.emit(e)
}

func advanceTechField(t *entity.TechTree, field string, points int) {
	// Research points convert directly into level deltas at a flat
	// 100 points per level. config.ResearchConfig's threshold table is
	// not consulted, points below a full level are discarded rather
	// than kept in a bucket, and no treasury cost is charged.
	levels := points / 100
	if levels == 0 {
		return
	}
	switch field {
	case "el":
		t.EL += levels
	case "sl":
		t.SL += levels
	case "cst":
		t.CST += levels
	case "wep":
		t.WEP += levels
	case "ter":
		t.TER += levels
	case "eli":
		t.ELI += levels
	case "clk":
		t.CLK += levels
	case "sld":
		t.SLD += levels
	case "cic":
		t.CIC += levels
	case "fd":
		t.FD += levels
	case "aco":
		t.ACO += levels
	case "fc":
		t.FC += levels
	case "sc":
		t.SC += levels
	}
}

// capacityForHouse enforces Strategic Command's combat-fleets-per-
// house cap with the map-scale logarithmic factor of spec.md §4.B.1.
func capacityForHouse(cfg config.Game, scTech, systemsPerPlayer int) int {
	base := cfg.Limits.FleetsPerHouseBase
	if systemsPerPlayer <= 0 {
		systemsPerPlayer = 1
	}
	scale := 1.0 + math.Log2(float64(systemsPerPlayer)/float64(cfg.Limits.MapScaleDivisor))*cfg.Limits.MapScaleFactor
	if scale < 1 {
		scale = 1
	}
	return base + scTech + int(scale)
}

// fighterCapacity is Fighter Division tech's per-colony cap, spec.md
// §4.B.1: floor(IU / divisor) x FD_multiplier.
func fighterCapacity(cfg config.Game, industrialUnits, fdTech int) int {
	base := industrialUnits / cfg.Capacity.FightersPerIUDivisor
	return base * (1 + fdTech)
}

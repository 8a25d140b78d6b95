package rules

import (
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/rng"
)

// RunMaintenance executes spec.md §4.B.1 phase 1 in place on state,
// appending events to l. Called once per turn before the Command
// phase; state.Turn is advanced at the end.
func RunMaintenance(state *entity.GameState, cfg config.Game, stream *rng.Stream, l *log) {
	advanceConstruction(state, &state.Allocators, cfg, l)
	advanceRepairs(state, cfg, l)
	payUpkeep(state, cfg, l)
	collectIncome(state, cfg, l)
	advanceResearch(state, cfg, l)
	growPopulation(state, cfg)
	decayDiplomacy(state, cfg)
	state.Turn++
}

func advanceConstruction(state *entity.GameState, alloc *entity.IDAllocators, cfg config.Game, l *log) {
	colonyIDs := state.Colonies.Ids()
	for _, cid := range colonyIDs {
		c, ok := state.Colonies.Get(cid)
		if !ok || c.UnderConstruction == nil {
			continue
		}
		proj := *c.UnderConstruction
		proj.RemainingPoints -= pointsPerTurn(proj, cfg)
		if proj.RemainingPoints <= 0 {
			l.emit(completionEvent(state.Turn, c, proj))
			commissionProject(state, alloc, cfg, &c, proj)
			c.UnderConstruction = popNextProject(&c)
		} else {
			c.UnderConstruction = &proj
		}
		_ = state.Colonies.Update(cid, c)
	}
}

func pointsPerTurn(proj entity.ConstructionProject, cfg config.Game) int {
	if proj.TotalPoints <= 0 {
		return proj.RemainingPoints
	}
	// Spread evenly across a fixed ten turns (one tenth of the total
	// per turn); a minimum of one point per turn guarantees termination.
	per := proj.TotalPoints / 10
	if per < 1 {
		per = 1
	}
	return per
}

func completionEvent(turn uint32, c entity.Colony, proj entity.ConstructionProject) entity.GameEvent {
	e := newEvent(turn, EventMaintenanceCommissioned)
	sys := c.SystemID
	e.SystemID = &sys
	e.Description = proj.Kind + " " + proj.ItemID + " commissioned"
	e.Details["colonyId"] = itoa(uint32(c.ID))
	return e
}

func popNextProject(c *entity.Colony) *entity.ConstructionProject {
	if len(c.ConstructionQueue) == 0 {
		return nil
	}
	next := c.ConstructionQueue[0]
	c.ConstructionQueue = c.ConstructionQueue[1:]
	return &next
}

// commissionProject instantiates the entity a completed construction
// project represents, in the Maintenance phase in which it completes.
// Ships join the colony's home fleet; Facility projects create a
// Neoria (a shipyard or drydock by item id, a spaceport for any other
// item id); Ground projects create a Marine unit of the project's
// quantity; Industrial and Infrastructure projects add to the
// colony's totals. No fighter squadron, Kastra (starbase) or ground
// battery is created here.
func commissionProject(state *entity.GameState, alloc *entity.IDAllocators, cfg config.Game, c *entity.Colony, proj entity.ConstructionProject) {
	switch proj.Kind {
	case "Ship":
		newID := ids.ShipId(alloc.Ship.Next())
		def := cfg.Ships[proj.ItemID]
		ship := entity.Ship{
			ID:        newID,
			HouseID:   c.Owner,
			ShipClass: proj.ItemID,
			Stats:     entity.ShipStats{AS: def.AS, DS: def.DS, WEP: def.WEP},
		}
		fleetID, ok := homeFleetForColony(state, alloc, cfg, c)
		if ok {
			_ = state.AddShipToFleet(fleetID, ship)
		} else {
			_ = state.Ships.Add(newID, ship)
			state.ShipsByHouse.Add(ship.HouseID, newID)
		}
	case "Facility":
		newID := ids.NeoriaId(alloc.Neoria.Next())
		kind := entity.NeoriaSpaceport
		switch proj.ItemID {
		case "shipyard":
			kind = entity.NeoriaShipyard
		case "drydock":
			kind = entity.NeoriaDrydock
		}
		n := entity.Neoria{ID: newID, ColonyID: c.ID, Kind: kind, Level: 1}
		_ = state.Neoria.Add(newID, n)
		c.NeoriaIDs = append(c.NeoriaIDs, newID)
	case "Ground":
		newID := ids.GroundUnitId(alloc.GroundUnit.Next())
		g := entity.GroundUnit{ID: newID, ColonyID: c.ID, HouseID: c.Owner, Kind: entity.GroundMarine, Strength: proj.Quantity}
		_ = state.GroundUnits.Add(newID, g)
		c.GroundUnitIDs = append(c.GroundUnitIDs, newID)
	case "Industrial":
		c.IndustrialUnits += proj.Quantity
	case "Infrastructure":
		c.Infrastructure += proj.Quantity
	}
}

// homeFleetForColony returns the fleet newly commissioned ships join:
// the house's existing fleet at the colony's system if one exists,
// else a freshly allocated one, subject to Strategic Command's
// combat-fleets-per-house cap (spec.md §4.B.1). ok is false only when
// no fleet exists at the colony's system AND the house is already at
// its fleet cap, in which case the caller leaves the ship unassigned
// rather than fabricate a fleet over the limit.
func homeFleetForColony(state *entity.GameState, alloc *entity.IDAllocators, cfg config.Game, c *entity.Colony) (ids.FleetId, bool) {
	for _, fid := range state.FleetsBySystem.Get(c.SystemID) {
		if f, ok := state.Fleets.Get(fid); ok && f.HouseID == c.Owner {
			return fid, true
		}
	}
	if atFleetCapacity(state, cfg, c.Owner) {
		return 0, false
	}
	newID := ids.FleetId(alloc.Fleet.Next())
	_ = state.AddFleet(entity.Fleet{ID: newID, HouseID: c.Owner, Location: c.SystemID, Status: entity.FleetActive})
	return newID, true
}

// atFleetCapacity reports whether houseID already holds as many
// active fleets as capacityForHouse allows, given the current map's
// systems-per-player ratio.
func atFleetCapacity(state *entity.GameState, cfg config.Game, houseID ids.HouseId) bool {
	house, ok := state.Houses.Get(houseID)
	if !ok {
		return false
	}
	systemsPerPlayer := state.Systems.Len()
	if n := state.Houses.Len(); n > 0 {
		systemsPerPlayer /= n
	}
	capacity := capacityForHouse(cfg, house.Tech.SC, systemsPerPlayer)

	count := 0
	for _, fid := range state.FleetsByHouse.Get(houseID) {
		if f, ok := state.Fleets.Get(fid); ok && f.Status == entity.FleetActive {
			count++
		}
	}
	return count >= capacity
}

func advanceRepairs(state *entity.GameState, cfg config.Game, l *log) {
	colonyIDs := state.Colonies.Ids()
	for _, cid := range colonyIDs {
		c, ok := state.Colonies.Get(cid)
		if !ok || len(c.RepairQueue) == 0 {
			continue
		}
		remaining := c.RepairQueue[:0]
		for _, job := range c.RepairQueue {
			job.RemainingPoints -= repairPointsPerTurn(job)
			if job.RemainingPoints <= 0 {
				if ship, ok := state.Ships.Get(job.ShipID); ok && ship.State == entity.ShipCrippled {
					ship.State = entity.ShipUndamaged
					_ = state.Ships.Update(job.ShipID, ship)
					e := newEvent(state.Turn, EventMaintenanceRepaired)
					e.Details["shipId"] = itoa(uint32(job.ShipID))
					l.emit(e)
				}
				continue
			}
			remaining = append(remaining, job)
		}
		c.RepairQueue = remaining
		_ = state.Colonies.Update(cid, c)
	}
}

func repairPointsPerTurn(job entity.RepairJob) int {
	if job.TotalPoints <= 0 {
		return job.RemainingPoints
	}
	per := job.TotalPoints / 5
	if per < 1 {
		per = 1
	}
	return per
}

func fleetUpkeepPct(status entity.FleetStatus, cfg config.Game) float64 {
	switch status {
	case entity.FleetActive:
		return cfg.Economy.UpkeepActivePct
	case entity.FleetReserve:
		return cfg.Economy.UpkeepReservePct
	case entity.FleetMothballed:
		return cfg.Economy.UpkeepMothballedPct
	default:
		return cfg.Economy.UpkeepActivePct
	}
}

func payUpkeep(state *entity.GameState, cfg config.Game, l *log) {
	houseIds := state.Houses.Ids()
	for _, hid := range houseIds {
		house, ok := state.Houses.Get(hid)
		if !ok || house.Status == entity.HouseEliminated {
			continue
		}
		var total int64
		for _, fid := range state.FleetsByHouse.Get(hid) {
			fleet, ok := state.Fleets.Get(fid)
			if !ok {
				continue
			}
			pct := fleetUpkeepPct(fleet.Status, cfg)
			for _, sid := range fleet.Ships {
				ship, ok := state.Ships.Get(sid)
				if !ok {
					continue
				}
				cost := float64(shipUpkeepBase(ship)) * pct
				if ship.State == entity.ShipCrippled {
					cost *= cfg.Economy.UpkeepCrippledPct
				}
				total += int64(cost)
			}
		}

		house.Treasury -= total
		e := newEvent(state.Turn, EventMaintenanceUpkeepPaid)
		e.HouseID = &hid
		e.Details["amount"] = itoa64(total)
		l.emit(e)

		if house.Treasury < 0 {
			house.ConsecutiveShortfall++
			applyShortfallDamage(state, hid, cfg)
			e := newEvent(state.Turn, EventMaintenanceShortfall)
			e.HouseID = &hid
			l.emit(e)
			if house.ConsecutiveShortfall >= cfg.Economy.ShortfallThreshold && house.Status == entity.HouseActive {
				house.Status = entity.HouseAutopilot
				se := newEvent(state.Turn, EventMaintenanceHouseStatus)
				se.HouseID = &hid
				se.Description = "Autopilot"
				l.emit(se)
			}
		} else {
			house.ConsecutiveShortfall = 0
		}
		_ = state.Houses.Update(hid, house)
	}
}

func shipUpkeepBase(ship entity.Ship) int {
	return (ship.Stats.AS + ship.Stats.DS) / 2
}

func applyShortfallDamage(state *entity.GameState, hid ids.HouseId, cfg config.Game) {
	for _, cid := range state.Colonies.Ids() {
		c, ok := state.Colonies.Get(cid)
		if !ok || c.Owner != hid {
			continue
		}
		c.InfrastructureDamage += cfg.Economy.InfraDamagePerShortfall
		if c.InfrastructureDamage > 1.0 {
			c.InfrastructureDamage = 1.0
		}
		_ = state.Colonies.Update(cid, c)
	}
}

func collectIncome(state *entity.GameState, cfg config.Game, l *log) {
	colonyIds := state.Colonies.Ids()
	for _, cid := range colonyIds {
		c, ok := state.Colonies.Get(cid)
		if !ok {
			continue
		}
		house, ok := state.Houses.Get(c.Owner)
		if !ok {
			continue
		}
		sys, ok := state.Systems.Get(c.SystemID)
		if !ok {
			continue
		}
		gross := colonyIncome(c, sys, house.Tech)
		if c.Blockaded {
			gross = int64(float64(gross) * cfg.Economy.BlockadeIncomeFactor)
		}
		house.Treasury += gross
		_ = state.Houses.Update(c.Owner, house)

		e := newEvent(state.Turn, EventMaintenanceIncome)
		e.HouseID = &c.Owner
		sid := c.SystemID
		e.SystemID = &sid
		e.Details["amount"] = itoa64(gross)
		l.emit(e)
	}
}

// colonyIncome is the base(planetClass, resourceRating) x population x
// tech multiplier x (1 - infraDamage) x taxRate formula of spec.md
// §4.B.1, kept as a small pure function over primitive inputs in the
// style of pkg/game/mechanics.go's CalculateBurnPayout.
func colonyIncome(c entity.Colony, sys entity.System, tech entity.TechTree) int64 {
	base := planetClassBase(sys.PlanetClass) * resourceMultiplier(sys.ResourceRating)
	techMul := 1.0 + float64(tech.CST)*0.05
	gross := base * float64(c.PopulationUnits) * techMul * (1.0 - c.InfrastructureDamage) * c.TaxRate
	if gross < 0 {
		gross = 0
	}
	return int64(gross)
}

func planetClassBase(pc entity.PlanetClass) float64 {
	switch pc {
	case entity.PlanetExtreme:
		return 0.2
	case entity.PlanetDesolate:
		return 0.4
	case entity.PlanetHarsh:
		return 0.7
	case entity.PlanetBenign:
		return 1.0
	case entity.PlanetLush:
		return 1.4
	case entity.PlanetEden:
		return 1.8
	default:
		return 1.0
	}
}

func resourceMultiplier(rr entity.ResourceRating) float64 {
	switch rr {
	case entity.ResourceVeryPoor:
		return 0.5
	case entity.ResourcePoor:
		return 0.75
	case entity.ResourceAbundant:
		return 1.0
	case entity.ResourceRich:
		return 1.5
	case entity.ResourceVeryRich:
		return 2.0
	default:
		return 1.0
	}
}

func advanceResearch(state *entity.GameState, cfg config.Game, l *log) {
	// Does nothing: research levels are applied directly in the
	// Command phase by applyResearchAllocation (command_phase.go),
	// which also emits the research event. No research buckets are
	// stored, and no level-up event is emitted here.
	_ = state
	_ = cfg
	_ = l
}

func growPopulation(state *entity.GameState, cfg config.Game) {
	colonyIDs := state.Colonies.Ids()
	for _, cid := range colonyIDs {
		c, ok := state.Colonies.Get(cid)
		if !ok {
			continue
		}
		rate := cfg.Population.BaseGrowthRate
		if c.PlanetaryShieldLevel > 0 {
			rate += cfg.Population.StarbaseBonus
		}
		grown := float64(c.PopulationUnits) * rate
		c.PopulationUnits += int64(grown)
		if c.PopulationUnits < 0 {
			c.PopulationUnits = 0
		}
		c.Souls = c.PopulationUnits * 1_000_000
		_ = state.Colonies.Update(cid, c)
	}
}

func decayDiplomacy(state *entity.GameState, cfg config.Game) {
	for key, rel := range state.Diplomacy.Relations {
		if rel.Violations > 0 && int(state.Turn)-int(rel.SinceTurn) >= cfg.Diplomacy.ViolationDecayTurns {
			rel.Violations--
			rel.SinceTurn = state.Turn
			state.Diplomacy.Set(key.A, key.B, rel)
		}
	}
}

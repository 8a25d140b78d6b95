package rules

import (
	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/rng"
)

// RunConflict executes spec.md §4.B.1 phase 3: movement,
// colonization, combat at every contested system, espionage, blockade
// updates and house-elimination checks. Diplomacy is not updated here,
// and prestige/victory accounting runs afterwards in Resolve.
func RunConflict(state *entity.GameState, cfg config.Game, gameID string, packets map[ids.HouseId]command.Packet, l *log) {
	moveFleets(state, cfg, gameID, l)
	resolveColonization(state, cfg, l)
	for _, sysID := range contestedSystems(state) {
		resolveSystemCombat(state, cfg, gameID, sysID, l)
	}
	resolveEspionage(state, cfg, gameID, packets, l)
	updateBlockades(state, l)
	checkHouseEliminations(state, l)
}

// resolveColonization founds a new colony for every fleet holding a
// Colonize order that has arrived at a colony-less system carrying an
// ETAC with colonist cargo, spec.md §3's Colonize fleet command.
func resolveColonization(state *entity.GameState, cfg config.Game, l *log) {
	for _, fid := range state.Fleets.Ids() {
		fleet, ok := state.Fleets.Get(fid)
		if !ok || fleet.Command.Type != entity.CmdColonize {
			continue
		}
		if _, exists := colonyAtSystem(state, fleet.Location); exists {
			continue
		}
		etac, ok := colonistETAC(state, cfg, fleet)
		if !ok {
			continue
		}

		cid := ids.ColonyId(state.Allocators.Colony.Next())
		colony := entity.Colony{
			ID:              cid,
			SystemID:        fleet.Location,
			Owner:           fleet.HouseID,
			PopulationUnits: 1,
			Souls:           1_000_000,
			TaxRate:         0.2,
		}
		if err := state.AddColony(colony); err != nil {
			continue
		}

		etac.Cargo = nil
		_ = state.Ships.Update(etac.ID, etac)

		fleet.Command = entity.FleetCommand{Type: entity.CmdHold}
		_ = state.Fleets.Update(fid, fleet)

		e := newEvent(state.Turn, EventColonyFounded)
		hid := fleet.HouseID
		e.HouseID = &hid
		sid := fleet.Location
		e.SystemID = &sid
		l.emit(e)
	}
}

func colonistETAC(state *entity.GameState, cfg config.Game, fleet entity.Fleet) (entity.Ship, bool) {
	for _, sid := range fleet.Ships {
		ship, ok := state.Ships.Get(sid)
		if !ok {
			continue
		}
		if def, ok := cfg.Ships[ship.ShipClass]; ok && def.IsETAC && ship.Cargo != nil && ship.Cargo.Quantity > 0 {
			return ship, true
		}
	}
	return entity.Ship{}, false
}

func moveFleets(state *entity.GameState, cfg config.Game, gameID string, l *log) {
	for _, fid := range state.Fleets.Ids() {
		fleet, ok := state.Fleets.Get(fid)
		if !ok {
			continue
		}
		var target ids.SystemId
		switch fleet.Command.Type {
		case entity.CmdMove:
			target = fleet.Command.TargetSystem
		case entity.CmdSeekHome:
			if fleet.Fallback == nil || len(fleet.Fallback.Path) < 2 {
				continue
			}
			target = fleet.Fallback.Path[1]
		default:
			continue
		}
		lane := findLane(state, fleet.Location, target)
		if lane == nil {
			e := newEvent(state.Turn, EventFleetMoveFailed)
			fidCopy := fid
			e.FleetID = &fidCopy
			e.Description = "no jump lane to target"
			l.emit(e)
			continue
		}
		origin := fleet.Location
		if err := state.MoveFleet(fid, target); err != nil {
			continue
		}
		e := newEvent(state.Turn, EventFleetMoved)
		fidCopy := fid
		e.FleetID = &fidCopy
		sidCopy := target
		e.SystemID = &sidCopy
		e.Description = "moved from system " + itoa(uint32(origin)) + " to " + itoa(uint32(target))
		l.emit(e)
	}
}

func findLane(state *entity.GameState, from, to ids.SystemId) *entity.JumpLane {
	for _, lane := range state.Starmap.Neighbors(from) {
		if lane.To == to {
			l := lane
			return &l
		}
	}
	return nil
}

// contestedSystems returns every system with fleets from more than
// one house present, in Systems store (insertion) order for
// deterministic iteration.
func contestedSystems(state *entity.GameState) []ids.SystemId {
	var out []ids.SystemId
	for _, sysID := range state.Systems.Ids() {
		houses := map[ids.HouseId]bool{}
		for _, fid := range state.FleetsBySystem.Get(sysID) {
			if f, ok := state.Fleets.Get(fid); ok {
				houses[f.HouseID] = true
			}
		}
		if len(houses) > 1 {
			out = append(out, sysID)
		}
	}
	return out
}

func resolveSystemCombat(state *entity.GameState, cfg config.Game, gameID string, sysID ids.SystemId, l *log) {
	byHouse := map[ids.HouseId][]ids.FleetId{}
	for _, fid := range state.FleetsBySystem.Get(sysID) {
		if f, ok := state.Fleets.Get(fid); ok {
			byHouse[f.HouseID] = append(byHouse[f.HouseID], fid)
		}
	}
	if len(byHouse) < 2 {
		return
	}
	houseList := sortedHouseKeys(byHouse)
	for i := 0; i < len(houseList); i++ {
		for j := i + 1; j < len(houseList); j++ {
			a, b := houseList[i], houseList[j]
			if !isHostile(state, a, b) {
				continue
			}
			stream := rng.New(gameID, state.Turn, rng.PhaseConflict, "combat-"+itoa(uint32(sysID))+"-"+itoa(uint32(a))+"-"+itoa(uint32(b)))
			fightPair(state, cfg, sysID, a, byHouse[a], b, byHouse[b], stream, l)
		}
	}
}

func sortedHouseKeys(m map[ids.HouseId][]ids.FleetId) []ids.HouseId {
	out := make([]ids.HouseId, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return sortHouseIDs(out)
}

func sortHouseIDs(in []ids.HouseId) []ids.HouseId {
	for i := 1; i < len(in); i++ {
		for j := i; j > 0 && in[j-1] > in[j]; j-- {
			in[j-1], in[j] = in[j], in[j-1]
		}
	}
	return in
}

// isHostile reports whether a and b's ships fight on sight: spec.md
// §4.B.1 triggers combat resolution "at every system containing
// hostile fleets", meaning Hostile or Enemy relation, not Neutral.
func isHostile(state *entity.GameState, a, b ids.HouseId) bool {
	rel := state.Diplomacy.Get(a, b)
	return rel.State != entity.RelationNeutral
}

func fightPair(state *entity.GameState, cfg config.Game, sysID ids.SystemId, houseA ids.HouseId, fleetsA []ids.FleetId, houseB ids.HouseId, fleetsB []ids.FleetId, stream *rng.Stream, l *log) {
	shipsA := shipsOfFleets(state, fleetsA)
	shipsB := shipsOfFleets(state, fleetsB)
	if len(shipsA) == 0 || len(shipsB) == 0 {
		return
	}
	techA := houseTech(state, houseA)
	techB := houseTech(state, houseB)

	strengthA := sideTotalStrength(shipsA, techA, techB.CLK)
	strengthB := sideTotalStrength(shipsB, techB, techA.CLK)

	resultsA, resultsB := resolveSpaceCombat(cfg, techA, techB, shipsA, shipsB, stream)
	applyCombatResults(state, resultsA, houseA, houseB, sysID, l)
	applyCombatResults(state, resultsB, houseB, houseA, sysID, l)

	recordViolation(state, cfg, houseA, houseB)

	// Orbital assault and ground combat are directional: each side may
	// be the invader of the other's colony at this system, per
	// spec.md §4.B.1's "only if attacker wins space combat" gate.
	attemptInvasion(state, cfg, sysID, houseA, houseB, strengthA, strengthB, fleetsA, stream, l)
	attemptInvasion(state, cfg, sysID, houseB, houseA, strengthB, strengthA, fleetsB, stream, l)
}

func shipsOfFleets(state *entity.GameState, fleetIDs []ids.FleetId) []entity.Ship {
	var out []entity.Ship
	for _, fid := range fleetIDs {
		fleet, ok := state.Fleets.Get(fid)
		if !ok || fleet.Status != entity.FleetActive {
			continue
		}
		for _, sid := range fleet.Ships {
			if s, ok := state.Ships.Get(sid); ok && s.State != entity.ShipDestroyed {
				out = append(out, s)
			}
		}
	}
	return out
}

func houseTech(state *entity.GameState, hid ids.HouseId) entity.TechTree {
	if h, ok := state.Houses.Get(hid); ok {
		return h.Tech
	}
	return entity.TechTree{}
}

// applyCombatResults applies per-ship results for the defending side
// of one engagement (attackerHouse beat on defenderHouse's ships).
func applyCombatResults(state *entity.GameState, results []combatResult, attackerHouse, defenderHouse ids.HouseId, sysID ids.SystemId, l *log) {
	for _, r := range results {
		sid := ids.ShipId(r.ShipID)
		ship, ok := state.Ships.Get(sid)
		if !ok {
			continue
		}
		switch {
		case r.Destroyed:
			_ = state.RemoveShip(sid)
			e := newEvent(state.Turn, EventShipsDestroyed)
			e.HouseID = &defenderHouse
			e.SourceHouseID = &attackerHouse
			e.TargetHouseID = &defenderHouse
			sidCopy := sysID
			e.SystemID = &sidCopy
			e.Details["shipId"] = itoa(r.ShipID)
			l.emit(e)
		case r.Crippled:
			ship.State = entity.ShipCrippled
			_ = state.Ships.Update(sid, ship)
		}
	}
}

func recordViolation(state *entity.GameState, cfg config.Game, a, b ids.HouseId) {
	rel := state.Diplomacy.Get(a, b)
	if rel.State == entity.RelationNeutral {
		return
	}
	// Hostile/Enemy combat is expected, not a violation; a violation
	// is only recorded when a pact (tracked as RelationNeutral with a
	// nonzero SinceTurn in practice) is broken, which diplomatic
	// command handling (not yet wired) would set explicitly.
}

// spaceCombatWon reports whether the attacking side has beaten the
// defending side down far enough to proceed to orbital assault,
// reusing the same ROE/strength-ratio test combat.go applies to
// voluntary retreats: a defender whose ratio falls under the
// configured threshold has lost control of the system, per spec.md
// §4.B.1's "only if attacker wins space combat" gate.
func spaceCombatWon(defenderStrength, attackerStrength float64, cfg config.Game) bool {
	const neutralROE = 5
	return retreatDecision(neutralROE, defenderStrength, attackerStrength, cfg)
}

func attemptInvasion(state *entity.GameState, cfg config.Game, sysID ids.SystemId, attacker, defender ids.HouseId, attackerStrength, defenderStrength float64, attackerFleetIDs []ids.FleetId, stream *rng.Stream, l *log) {
	if !spaceCombatWon(defenderStrength, attackerStrength, cfg) {
		return
	}
	c, ok := colonyAtSystem(state, sysID)
	if !ok || c.Owner != defender {
		return
	}

	resolveOrbitalAssault(state, cfg, c, attackerStrength, l)

	if !hasInvadeOrder(state, attackerFleetIDs) {
		return
	}
	resolveGroundCombat(state, cfg, c.ID, attacker, defender, attackerFleetIDs, stream, l)
}

// colonyAtSystem looks up the system's colony via the ColonyBySystem
// index: spec.md I4 guarantees at most one per system.
func colonyAtSystem(state *entity.GameState, sysID ids.SystemId) (entity.Colony, bool) {
	cids := state.ColonyBySystem.Get(sysID)
	if len(cids) == 0 {
		return entity.Colony{}, false
	}
	return state.Colonies.Get(cids[0])
}

func hasInvadeOrder(state *entity.GameState, fleetIDs []ids.FleetId) bool {
	for _, fid := range fleetIDs {
		f, ok := state.Fleets.Get(fid)
		if ok && (f.Command.Type == entity.CmdInvade || f.Command.Type == entity.CmdBlitz) {
			return true
		}
	}
	return false
}

// resolveOrbitalAssault chips attacker space-combat strength off
// every starbase defending c, destroying any whose hull is exhausted,
// spec.md §4.B.1's orbital-assault sub-phase.
func resolveOrbitalAssault(state *entity.GameState, cfg config.Game, c entity.Colony, attackerStrength float64, l *log) {
	for _, kid := range c.KastraIDs {
		k, ok := state.Kastra.Get(kid)
		if !ok || k.Destroyed {
			continue
		}
		damage := int(attackerStrength * cfg.Combat.OrbitalDamageFactor)
		if damage < 1 {
			damage = 1
		}
		k.HullPoints -= damage
		if k.HullPoints <= 0 {
			k.HullPoints = 0
			k.Destroyed = true
			e := newEvent(state.Turn, EventStarbaseDestroyed)
			owner := c.Owner
			e.HouseID = &owner
			sid := c.SystemID
			e.SystemID = &sid
			l.emit(e)
		}
		_ = state.Kastra.Update(kid, k)
	}
}

// resolveGroundCombat runs spec.md §4.B.1's ground-combat sub-phase:
// marine attack strength against ground battery + shield + army
// defense. Success transfers colony ownership with infrastructure
// damage; failure largely destroys the attacking marines.
func resolveGroundCombat(state *entity.GameState, cfg config.Game, cid ids.ColonyId, attacker, defender ids.HouseId, attackerFleetIDs []ids.FleetId, stream *rng.Stream, l *log) {
	c, ok := state.Colonies.Get(cid)
	if !ok {
		return
	}
	marines := marineCount(state, attackerFleetIDs)
	if marines == 0 {
		return
	}
	attackStrength := float64(marines) * (1 + cfg.Combat.GroundAttackBonus)

	var defenseStrength float64
	for _, gid := range c.GroundUnitIDs {
		g, ok := state.GroundUnits.Get(gid)
		if !ok || g.Kind == entity.GroundMarine {
			continue
		}
		defenseStrength += float64(g.Strength)
	}
	defenseStrength += float64(c.PlanetaryShieldLevel) * cfg.Combat.ShieldDefenseFactor

	variance := 0.85 + stream.Float64()*0.3
	won := attackStrength*variance > defenseStrength

	sid := c.SystemID
	if won {
		consumeMarines(state, attackerFleetIDs, 0.4)
		destroyGroundDefenders(state, &c)
		c.Owner = attacker
		c.InfrastructureDamage += 0.1
		if c.InfrastructureDamage > 1 {
			c.InfrastructureDamage = 1
		}
		c.Blockaded = false
		c.BlockadedBy = nil
		c.BlockadeTurns = 0
		_ = state.Colonies.Update(cid, c)

		e := newEvent(state.Turn, EventColonyInvaded)
		src, tgt := attacker, defender
		e.SourceHouseID = &src
		e.TargetHouseID = &tgt
		e.SystemID = &sid
		l.emit(e)
		return
	}

	consumeMarines(state, attackerFleetIDs, 0.1)
	e := newEvent(state.Turn, EventInvasionFailed)
	src := attacker
	e.SourceHouseID = &src
	e.SystemID = &sid
	l.emit(e)
}

func marineCount(state *entity.GameState, fleetIDs []ids.FleetId) int {
	total := 0
	for _, fid := range fleetIDs {
		fleet, ok := state.Fleets.Get(fid)
		if !ok {
			continue
		}
		for _, sid := range fleet.Ships {
			s, ok := state.Ships.Get(sid)
			if ok && s.State != entity.ShipDestroyed && s.Cargo != nil && s.Cargo.Type == "marines" {
				total += s.Cargo.Quantity
			}
		}
	}
	return total
}

func consumeMarines(state *entity.GameState, fleetIDs []ids.FleetId, survivalFrac float64) {
	for _, fid := range fleetIDs {
		fleet, ok := state.Fleets.Get(fid)
		if !ok {
			continue
		}
		for _, sid := range fleet.Ships {
			s, ok := state.Ships.Get(sid)
			if !ok || s.Cargo == nil || s.Cargo.Type != "marines" {
				continue
			}
			remaining := int(float64(s.Cargo.Quantity) * survivalFrac)
			if remaining <= 0 {
				s.Cargo = nil
			} else {
				s.Cargo.Quantity = remaining
			}
			_ = state.Ships.Update(sid, s)
		}
	}
}

func destroyGroundDefenders(state *entity.GameState, c *entity.Colony) {
	for _, gid := range c.GroundUnitIDs {
		_ = state.GroundUnits.Remove(gid)
	}
	c.GroundUnitIDs = nil
}

// resolveEspionage rolls each house's queued espionage actions
// against the target's CIC-derived detection chance, per spec.md
// §4.B.1: success records an intelligence report in the acting
// house's IntelligenceDatabase, and an independent detection roll may
// attribute the action to its perpetrator regardless of success.
// action.Type selects which report kind is gathered ("colony",
// "starbase", or "system" as the default): spec.md §3 names the field
// but not its value set, so this rewrite decides it here (recorded in
// DESIGN.md).
func resolveEspionage(state *entity.GameState, cfg config.Game, gameID string, packets map[ids.HouseId]command.Packet, l *log) {
	actors := make([]ids.HouseId, 0, len(packets))
	for hid := range packets {
		actors = append(actors, hid)
	}
	actors = sortHouseIDs(actors)

	for _, hid := range actors {
		pkt := packets[hid]
		for i, action := range pkt.EspionageActions {
			stream := rng.New(gameID, state.Turn, rng.PhaseConflict, "espionage-"+itoa(uint32(hid))+"-"+itoa(uint32(i)))
			successChance := cfg.Espionage.BaseSuccessChance + float64(action.Budget)*0.0001
			if successChance > 0.95 {
				successChance = 0.95
			}
			success := stream.Bool(successChance)
			detected := stream.Bool(cfg.Espionage.DetectionChance)

			if success {
				recordEspionageReport(state, hid, action)
				e := newEvent(state.Turn, EventEspionageSucceeded)
				src := hid
				e.SourceHouseID = &src
				sid := action.Target
				e.SystemID = &sid
				l.emit(e)
			}
			if detected {
				e := newEvent(state.Turn, EventEspionageDetected)
				src := hid
				e.SourceHouseID = &src
				if c, ok := colonyAtSystem(state, action.Target); ok {
					owner := c.Owner
					e.TargetHouseID = &owner
				}
				sid := action.Target
				e.SystemID = &sid
				l.emit(e)
			}
		}
	}
}

func recordEspionageReport(state *entity.GameState, actor ids.HouseId, action command.EspionageAction) {
	intel := state.IntelFor(actor)
	switch action.Type {
	case "colony":
		if c, ok := colonyAtSystem(state, action.Target); ok {
			intel.RecordColonyReport(entity.ColonyReport{
				ColonyID:        c.ID,
				Owner:           c.Owner,
				PopulationUnits: c.PopulationUnits,
				IndustrialUnits: c.IndustrialUnits,
				Infrastructure:  c.Infrastructure,
				GatheredTurn:    state.Turn,
			})
		}
	case "starbase":
		c, ok := colonyAtSystem(state, action.Target)
		if !ok {
			return
		}
		for _, kid := range c.KastraIDs {
			if k, ok := state.Kastra.Get(kid); ok {
				intel.RecordStarbaseReport(entity.StarbaseReport{
					KastraID:     k.ID,
					Level:        k.Level,
					HullPoints:   k.HullPoints,
					GatheredTurn: state.Turn,
				})
			}
		}
	default: // "system"
		occupying, strength := systemOccupancy(state, action.Target)
		intel.RecordSystemReport(entity.SystemReport{
			SystemID:         action.Target,
			ApproxStrength:   strength,
			OccupyingHouseID: occupying,
			GatheredTurn:     state.Turn,
		})
	}
}

func systemOccupancy(state *entity.GameState, sysID ids.SystemId) (ids.HouseId, float64) {
	totals := map[ids.HouseId]float64{}
	for _, fid := range state.FleetsBySystem.Get(sysID) {
		f, ok := state.Fleets.Get(fid)
		if !ok {
			continue
		}
		totals[f.HouseID] += fleetStrength(state, f)
	}
	keys := make([]ids.HouseId, 0, len(totals))
	for h := range totals {
		keys = append(keys, h)
	}
	keys = sortHouseIDs(keys)

	var dominant ids.HouseId
	var max, total float64
	for _, h := range keys {
		s := totals[h]
		total += s
		if s > max {
			max = s
			dominant = h
		}
	}
	return dominant, total
}

// checkHouseEliminations marks every Active or Autopilot house that
// owns no colony as Eliminated, crediting the eliminating house's
// prestige via the ColonyInvaded event that took the victim's last
// colony this turn, if one is found in the same resolution's log.
func checkHouseEliminations(state *entity.GameState, l *log) {
	owned := make(map[ids.HouseId]bool)
	state.Colonies.All(func(_ ids.ColonyId, c entity.Colony) bool {
		owned[c.Owner] = true
		return true
	})

	for _, hid := range sortHouseIDs(state.Houses.Ids()) {
		h, ok := state.Houses.Get(hid)
		if !ok || h.Status == entity.HouseEliminated || owned[hid] {
			continue
		}
		victor := lastConqueror(l, hid)
		if err := state.EliminateHouse(hid); err != nil {
			continue
		}
		e := newEvent(state.Turn, EventHouseEliminated)
		victim := hid
		e.HouseID = &victim
		if victor != nil {
			e.SourceHouseID = victor
		}
		l.emit(e)
	}
}

// lastConqueror returns the attacking house of the most recent
// ColonyInvaded event targeting victim this turn, or nil if the
// house's last colony was lost some other way (e.g. scrapped).
func lastConqueror(l *log, victim ids.HouseId) *ids.HouseId {
	var found *ids.HouseId
	for i := range l.events {
		e := l.events[i]
		if e.Type != EventColonyInvaded || e.TargetHouseID == nil || *e.TargetHouseID != victim {
			continue
		}
		found = e.SourceHouseID
	}
	return found
}

func updateBlockades(state *entity.GameState, l *log) {
	for _, cid := range state.Colonies.Ids() {
		c, ok := state.Colonies.Get(cid)
		if !ok {
			continue
		}
		var blockaders []ids.HouseId
		for _, fid := range state.FleetsBySystem.Get(c.SystemID) {
			if f, ok := state.Fleets.Get(fid); ok && f.HouseID != c.Owner && f.Status == entity.FleetActive {
				blockaders = append(blockaders, f.HouseID)
			}
		}
		wasBlockaded := c.Blockaded
		c.Blockaded = len(blockaders) > 0
		c.BlockadedBy = blockaders
		if c.Blockaded {
			c.BlockadeTurns++
		} else {
			c.BlockadeTurns = 0
		}
		if c.Blockaded && !wasBlockaded {
			e := newEvent(state.Turn, EventColonyBlockaded)
			e.HouseID = &c.Owner
			blockader := blockaders[0]
			e.SourceHouseID = &blockader
			sid := c.SystemID
			e.SystemID = &sid
			l.emit(e)
		}
		_ = state.Colonies.Update(cid, c)
	}
}

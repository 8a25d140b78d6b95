package rules

import (
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/rng"
)

// effectiveAttack computes one ship's contribution to its side's
// attack strength: base AS x (1 + WEP bonus) x (1 + morale bonus) x
// detection modifier, per spec.md §4.B.1.
func effectiveAttack(ship entity.Ship, wepBonus, moraleBonus, detectionModifier float64) float64 {
	return float64(ship.Stats.AS) * (1 + wepBonus) * (1 + moraleBonus) * detectionModifier
}

// detectionModifier derives the ELI-vs-CLK visibility multiplier: a
// cloaked defender (high CLK) is harder for a low-ELI attacker to
// target effectively.
func detectionModifier(attackerELI, defenderCLK int) float64 {
	diff := attackerELI - defenderCLK
	mod := 1.0 + float64(diff)*0.03
	if mod < 0.25 {
		mod = 0.25
	}
	if mod > 1.75 {
		mod = 1.75
	}
	return mod
}

// resolveSpaceCombat runs one round of space combat between two
// houses' ship rosters at a system, returning destroyed ship ids and
// crippled ship ids for each side. Pure function of its inputs plus
// the deterministic stream.
func resolveSpaceCombat(cfg config.Game, attackerTech, defenderTech entity.TechTree, attackerShips, defenderShips []entity.Ship, stream *rng.Stream) (attackerResults, defenderResults []combatResult) {
	attackerStrength := sideTotalStrength(attackerShips, attackerTech, defenderTech.CLK)
	defenderStrength := sideTotalStrength(defenderShips, defenderTech, attackerTech.CLK)

	attackerResults = distributeDamage(cfg, defenderShips, attackerStrength, stream)
	defenderResults = distributeDamage(cfg, attackerShips, defenderStrength, stream)
	return
}

type combatResult struct {
	ShipID     uint32
	Destroyed  bool
	Crippled   bool
	Critical   bool
}

func sideTotalStrength(ships []entity.Ship, tech entity.TechTree, enemyCLK int) float64 {
	var total float64
	detect := detectionModifier(tech.ELI, enemyCLK)
	wepBonus := float64(tech.WEP) * 0.05
	for _, s := range ships {
		if s.State == entity.ShipDestroyed {
			continue
		}
		total += effectiveAttack(s, wepBonus, 0, detect)
	}
	return total
}

// distributeDamage spreads attackerStrength across the defending
// roster: each ship rolls against a per-ship damage share, crippling
// or destroying it, with a configured critical-hit chance doubling
// the share. Results are ordered to match defenders input order.
func distributeDamage(cfg config.Game, defenders []entity.Ship, attackerStrength float64, stream *rng.Stream) []combatResult {
	results := make([]combatResult, len(defenders))
	if len(defenders) == 0 || attackerStrength <= 0 {
		return results
	}
	sharePerShip := attackerStrength / float64(len(defenders))
	for i, s := range defenders {
		results[i].ShipID = uint32(s.ID)
		share := sharePerShip
		if stream.Bool(cfg.Combat.CriticalHitChance) {
			share *= cfg.Combat.CriticalHitMultiplier
			results[i].Critical = true
		}
		ds := float64(s.Stats.DS)
		if ds <= 0 {
			ds = 1
		}
		ratio := share / ds
		switch {
		case s.State == entity.ShipUndamaged && ratio >= 1.5:
			results[i].Destroyed = true
		case s.State == entity.ShipUndamaged && ratio >= 0.6:
			results[i].Crippled = true
		case s.State == entity.ShipCrippled && ratio >= 0.4:
			results[i].Destroyed = true
		}
	}
	return results
}

// retreatDecision applies ROE and the strength ratio to decide
// whether a side should break off combat, spec.md §4.B.1.
func retreatDecision(roe uint8, ownStrength, enemyStrength float64, cfg config.Game) bool {
	if ownStrength <= 0 {
		return true
	}
	ratio := ownStrength / (enemyStrength + 1)
	threshold := cfg.Combat.RetreatStrengthRatio * (1 + float64(10-roe)*0.05)
	return ratio < threshold
}

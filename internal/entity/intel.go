package entity

import "github.com/ec4x/daemon/internal/ids"

// ColonyReport is the last gathered intelligence on a colony.
type ColonyReport struct {
	ColonyID        ids.ColonyId
	Owner           ids.HouseId
	PopulationUnits int64
	IndustrialUnits int
	Infrastructure  int
	GatheredTurn    uint32
}

// SystemReport is the last gathered intelligence on a system's
// occupying forces.
type SystemReport struct {
	SystemID         ids.SystemId
	ApproxStrength   float64
	OccupyingHouseID ids.HouseId
	GatheredTurn     uint32
}

// StarbaseReport is the last gathered intelligence on a starbase.
type StarbaseReport struct {
	KastraID     ids.KastraId
	Level        int
	HullPoints   int
	GatheredTurn uint32
}

// IntelligenceDatabase is one house's accumulated scouting/espionage
// knowledge, spec.md §4.B.3: each slot holds only the most recent
// report and is overwritten, never merged.
type IntelligenceDatabase struct {
	ColonyReports   map[ids.ColonyId]ColonyReport
	SystemReports   map[ids.SystemId]SystemReport
	StarbaseReports map[ids.KastraId]StarbaseReport
}

// NewIntelligenceDatabase constructs an empty database.
func NewIntelligenceDatabase() *IntelligenceDatabase {
	return &IntelligenceDatabase{
		ColonyReports:   make(map[ids.ColonyId]ColonyReport),
		SystemReports:   make(map[ids.SystemId]SystemReport),
		StarbaseReports: make(map[ids.KastraId]StarbaseReport),
	}
}

// Clone deep-copies the database.
func (d *IntelligenceDatabase) Clone() *IntelligenceDatabase {
	clone := NewIntelligenceDatabase()
	for k, v := range d.ColonyReports {
		clone.ColonyReports[k] = v
	}
	for k, v := range d.SystemReports {
		clone.SystemReports[k] = v
	}
	for k, v := range d.StarbaseReports {
		clone.StarbaseReports[k] = v
	}
	return clone
}

// RecordColonyReport overwrites the stored report with a fresher one.
func (d *IntelligenceDatabase) RecordColonyReport(r ColonyReport) {
	d.ColonyReports[r.ColonyID] = r
}

// RecordSystemReport overwrites the stored report with a fresher one.
func (d *IntelligenceDatabase) RecordSystemReport(r SystemReport) {
	d.SystemReports[r.SystemID] = r
}

// RecordStarbaseReport overwrites the stored report with a fresher one.
func (d *IntelligenceDatabase) RecordStarbaseReport(r StarbaseReport) {
	d.StarbaseReports[r.KastraID] = r
}

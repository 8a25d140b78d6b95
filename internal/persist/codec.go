// codec.go implements the state_blob wire format: a version varint
// followed by length-delimited, tagged fields — one per top-level
// GameState section — encoded with protowire so the framing is real
// protobuf wire format even though each field's payload is plain JSON.
// Secondary multimap indexes are never serialized (spec.md §4.A calls
// them "rebuildable from primaries"); GameState.RebuildIndexes
// regenerates them after decode. Starmap.Systems is likewise omitted:
// nothing in the resolver or visibility filter reads it, only
// Starmap.Lanes/Hub matter, so only those two fields travel on the
// wire.
package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

const stateBlobVersion = 1

// Field numbers, one per top-level GameState section.
const (
	fieldMeta        = 1
	fieldHouses      = 2
	fieldSystems     = 3
	fieldColonies    = 4
	fieldFleets      = 5
	fieldShips       = 6
	fieldSquadrons   = 7
	fieldGroundUnits = 8
	fieldNeoria      = 9
	fieldKastra      = 10
	fieldDiplomacy   = 11
	fieldIntel       = 12
	fieldAllocators  = 13
	fieldEvents      = 14
	fieldStarmap     = 15
)

type metaDTO struct {
	Turn  uint32
	Phase entity.Phase
	Meta  entity.GameMeta
}

type relationEntryDTO struct {
	A, B     ids.HouseId
	Relation entity.Relation
}

type diplomacyDTO struct {
	Relations        []relationEntryDTO
	ViolationHistory map[ids.HouseId][]string
}

type allocatorsDTO struct {
	House, System, Fleet, Ship, Colony, Squadron, Neoria, Kastra, GroundUnit uint32
}

type starmapDTO struct {
	Hub   ids.SystemId
	Lanes []entity.JumpLane
}

// EncodeState serializes state into the state_blob binary format.
func EncodeState(state *entity.GameState) ([]byte, error) {
	buf := protowire.AppendVarint(nil, stateBlobVersion)

	sections := []struct {
		num uint32
		val any
	}{
		{fieldMeta, metaDTO{Turn: state.Turn, Phase: state.Phase, Meta: state.Meta}},
		{fieldHouses, allValues(state.Houses)},
		{fieldSystems, allValues(state.Systems)},
		{fieldColonies, allValues(state.Colonies)},
		{fieldFleets, allValues(state.Fleets)},
		{fieldShips, allValues(state.Ships)},
		{fieldSquadrons, allValues(state.Squadrons)},
		{fieldGroundUnits, allValues(state.GroundUnits)},
		{fieldNeoria, allValues(state.Neoria)},
		{fieldKastra, allValues(state.Kastra)},
		{fieldDiplomacy, diplomacyToDTO(state.Diplomacy)},
		{fieldIntel, state.Intel},
		{fieldAllocators, allocatorsToDTO(state.Allocators)},
		{fieldEvents, state.LastTurnEvents},
		{fieldStarmap, starmapDTO{Hub: state.Starmap.Hub, Lanes: state.Starmap.Lanes}},
	}

	for _, s := range sections {
		payload, err := json.Marshal(s.val)
		if err != nil {
			return nil, fmt.Errorf("persist: encode field %d: %w: %w", s.num, err, daemonerr.ErrPersistence)
		}
		buf = protowire.AppendTag(buf, protowire.Number(s.num), protowire.BytesType)
		buf = protowire.AppendBytes(buf, payload)
	}
	return buf, nil
}

// DecodeState parses a state_blob back into a fresh GameState, then
// rebuilds every secondary index.
func DecodeState(blob []byte) (*entity.GameState, error) {
	version, n := protowire.ConsumeVarint(blob)
	if n < 0 {
		return nil, fmt.Errorf("persist: decode: malformed version varint: %w", daemonerr.ErrPersistence)
	}
	if version != stateBlobVersion {
		return nil, fmt.Errorf("persist: decode: unsupported state_blob version %d: %w", version, daemonerr.ErrPersistence)
	}
	rest := blob[n:]

	raw := map[uint32][]byte{}
	for len(rest) > 0 {
		num, typ, tn := protowire.ConsumeTag(rest)
		if tn < 0 {
			return nil, fmt.Errorf("persist: decode: malformed field tag: %w", daemonerr.ErrPersistence)
		}
		rest = rest[tn:]
		if typ != protowire.BytesType {
			return nil, fmt.Errorf("persist: decode: unexpected wire type for field %d: %w", num, daemonerr.ErrPersistence)
		}
		val, vn := protowire.ConsumeBytes(rest)
		if vn < 0 {
			return nil, fmt.Errorf("persist: decode: malformed field %d payload: %w", num, daemonerr.ErrPersistence)
		}
		rest = rest[vn:]
		raw[uint32(num)] = val
	}

	state := entity.NewGameState("", 0)

	var meta metaDTO
	if b, ok := raw[fieldMeta]; ok {
		if err := json.Unmarshal(b, &meta); err != nil {
			return nil, decodeErr(fieldMeta, err)
		}
	}
	state.Turn = meta.Turn
	state.Phase = meta.Phase
	state.Meta = meta.Meta

	if b, ok := raw[fieldHouses]; ok {
		var houses []entity.House
		if err := json.Unmarshal(b, &houses); err != nil {
			return nil, decodeErr(fieldHouses, err)
		}
		for _, h := range houses {
			_ = state.Houses.Add(h.ID, h)
		}
	}
	if b, ok := raw[fieldSystems]; ok {
		var systems []entity.System
		if err := json.Unmarshal(b, &systems); err != nil {
			return nil, decodeErr(fieldSystems, err)
		}
		for _, s := range systems {
			_ = state.Systems.Add(s.ID, s)
		}
	}
	if b, ok := raw[fieldColonies]; ok {
		var colonies []entity.Colony
		if err := json.Unmarshal(b, &colonies); err != nil {
			return nil, decodeErr(fieldColonies, err)
		}
		for _, c := range colonies {
			_ = state.Colonies.Add(c.ID, c)
		}
	}
	if b, ok := raw[fieldFleets]; ok {
		var fleets []entity.Fleet
		if err := json.Unmarshal(b, &fleets); err != nil {
			return nil, decodeErr(fieldFleets, err)
		}
		for _, f := range fleets {
			_ = state.Fleets.Add(f.ID, f)
		}
	}
	if b, ok := raw[fieldShips]; ok {
		var ships []entity.Ship
		if err := json.Unmarshal(b, &ships); err != nil {
			return nil, decodeErr(fieldShips, err)
		}
		for _, s := range ships {
			_ = state.Ships.Add(s.ID, s)
		}
	}
	if b, ok := raw[fieldSquadrons]; ok {
		var squadrons []entity.Squadron
		if err := json.Unmarshal(b, &squadrons); err != nil {
			return nil, decodeErr(fieldSquadrons, err)
		}
		for _, s := range squadrons {
			_ = state.Squadrons.Add(s.ID, s)
		}
	}
	if b, ok := raw[fieldGroundUnits]; ok {
		var units []entity.GroundUnit
		if err := json.Unmarshal(b, &units); err != nil {
			return nil, decodeErr(fieldGroundUnits, err)
		}
		for _, u := range units {
			_ = state.GroundUnits.Add(u.ID, u)
		}
	}
	if b, ok := raw[fieldNeoria]; ok {
		var neoria []entity.Neoria
		if err := json.Unmarshal(b, &neoria); err != nil {
			return nil, decodeErr(fieldNeoria, err)
		}
		for _, nn := range neoria {
			_ = state.Neoria.Add(nn.ID, nn)
		}
	}
	if b, ok := raw[fieldKastra]; ok {
		var kastra []entity.Kastra
		if err := json.Unmarshal(b, &kastra); err != nil {
			return nil, decodeErr(fieldKastra, err)
		}
		for _, k := range kastra {
			_ = state.Kastra.Add(k.ID, k)
		}
	}
	if b, ok := raw[fieldDiplomacy]; ok {
		var d diplomacyDTO
		if err := json.Unmarshal(b, &d); err != nil {
			return nil, decodeErr(fieldDiplomacy, err)
		}
		for _, re := range d.Relations {
			state.Diplomacy.Relations[entity.NewRelationKey(re.A, re.B)] = re.Relation
		}
		if d.ViolationHistory != nil {
			state.Diplomacy.ViolationHistory = d.ViolationHistory
		}
	}
	if b, ok := raw[fieldIntel]; ok {
		var intel map[ids.HouseId]*entity.IntelligenceDatabase
		if err := json.Unmarshal(b, &intel); err != nil {
			return nil, decodeErr(fieldIntel, err)
		}
		state.Intel = intel
	}
	if b, ok := raw[fieldAllocators]; ok {
		var a allocatorsDTO
		if err := json.Unmarshal(b, &a); err != nil {
			return nil, decodeErr(fieldAllocators, err)
		}
		state.Allocators = allocatorsFromDTO(a)
	}
	if b, ok := raw[fieldEvents]; ok {
		var events []entity.GameEvent
		if err := json.Unmarshal(b, &events); err != nil {
			return nil, decodeErr(fieldEvents, err)
		}
		state.LastTurnEvents = events
	}
	if b, ok := raw[fieldStarmap]; ok {
		var sm starmapDTO
		if err := json.Unmarshal(b, &sm); err != nil {
			return nil, decodeErr(fieldStarmap, err)
		}
		state.Starmap = entity.NewStarmap(sm.Hub)
		for _, lane := range sm.Lanes {
			state.Starmap.AddLane(lane)
		}
	}

	state.RebuildIndexes()
	return state, nil
}

func decodeErr(field uint32, err error) error {
	return fmt.Errorf("persist: decode field %d: %w: %w", field, err, daemonerr.ErrPersistence)
}

func allValues[K entity.Id, V any](s *entity.Store[K, V]) []V {
	out := make([]V, 0, s.Len())
	s.All(func(_ K, v V) bool {
		out = append(out, v)
		return true
	})
	return out
}

func diplomacyToDTO(d *entity.DiplomacyTable) diplomacyDTO {
	out := diplomacyDTO{
		Relations:        make([]relationEntryDTO, 0, len(d.Relations)),
		ViolationHistory: d.ViolationHistory,
	}
	for k, r := range d.Relations {
		out.Relations = append(out.Relations, relationEntryDTO{A: k.A, B: k.B, Relation: r})
	}
	return out
}

func allocatorsToDTO(a entity.IDAllocators) allocatorsDTO {
	return allocatorsDTO{
		House:      a.House.HighWaterMark(),
		System:     a.System.HighWaterMark(),
		Fleet:      a.Fleet.HighWaterMark(),
		Ship:       a.Ship.HighWaterMark(),
		Colony:     a.Colony.HighWaterMark(),
		Squadron:   a.Squadron.HighWaterMark(),
		Neoria:     a.Neoria.HighWaterMark(),
		Kastra:     a.Kastra.HighWaterMark(),
		GroundUnit: a.GroundUnit.HighWaterMark(),
	}
}

func allocatorsFromDTO(d allocatorsDTO) entity.IDAllocators {
	return entity.IDAllocators{
		House:      ids.NewAllocator(d.House),
		System:     ids.NewAllocator(d.System),
		Fleet:      ids.NewAllocator(d.Fleet),
		Ship:       ids.NewAllocator(d.Ship),
		Colony:     ids.NewAllocator(d.Colony),
		Squadron:   ids.NewAllocator(d.Squadron),
		Neoria:     ids.NewAllocator(d.Neoria),
		Kastra:     ids.NewAllocator(d.Kastra),
		GroundUnit: ids.NewAllocator(d.GroundUnit),
	}
}

// CompressBlob lz4-compresses a state_blob before it hits SQLite,
// adapted from the teacher's compressLZ4 (utils.go) / Compress
// (pkg/core/security.go).
func CompressBlob(blob []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(blob); err != nil {
		return nil, fmt.Errorf("persist: lz4 compress: %w: %w", err, daemonerr.ErrPersistence)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("persist: lz4 compress: %w: %w", err, daemonerr.ErrPersistence)
	}
	return buf.Bytes(), nil
}

// DecompressBlob reverses CompressBlob.
func DecompressBlob(compressed []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(compressed))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("persist: lz4 decompress: %w: %w", err, daemonerr.ErrPersistence)
	}
	return out, nil
}

package orders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

func TestParseGrammarExample(t *testing.T) {
	src := `
orders turn=4 house=1 {
  fleet 7 { move to=12 roe=5 }
  fleet 8 patrol
  build 3 { ship destroyer quantity=2 }
  research { economic 100; science 50; technology { wep 40 } }
  espionage { hack_starbase target=12 budget=200 }
}
`
	pkt, err := Parse(src)
	require.NoError(t, err)

	require.Equal(t, uint32(4), pkt.Turn)
	require.Equal(t, ids.HouseId(1), pkt.HouseID)

	require.Len(t, pkt.FleetCommands, 2)
	require.Equal(t, entity.CmdMove, pkt.FleetCommands[0].CommandType)
	require.Equal(t, ids.SystemId(12), pkt.FleetCommands[0].TargetSystem)
	require.Equal(t, uint8(5), pkt.FleetCommands[0].ROE)
	require.Equal(t, entity.CmdPatrol, pkt.FleetCommands[1].CommandType)

	require.Len(t, pkt.BuildCommands, 1)
	require.Equal(t, command.BuildShip, pkt.BuildCommands[0].BuildType)
	require.Equal(t, "destroyer", pkt.BuildCommands[0].ItemID)
	require.Equal(t, 2, pkt.BuildCommands[0].Quantity)

	require.Equal(t, 100, pkt.ResearchAllocation.Economic)
	require.Equal(t, 50, pkt.ResearchAllocation.Science)
	require.Equal(t, 40, pkt.ResearchAllocation.Technology["wep"])

	require.Len(t, pkt.EspionageActions, 1)
	require.Equal(t, "hack_starbase", pkt.EspionageActions[0].Type)
	require.Equal(t, ids.SystemId(12), pkt.EspionageActions[0].Target)
	require.Equal(t, 200, pkt.EspionageActions[0].Budget)
}

func TestParseRejectsUnknownNode(t *testing.T) {
	_, err := Parse(`orders turn=1 house=1 { teleport 9 }`)
	require.Error(t, err)
}

func TestParseRejectsMissingTurn(t *testing.T) {
	_, err := Parse(`orders house=1 {}`)
	require.Error(t, err)
}

func TestUnparseThenParseRoundTrips(t *testing.T) {
	pkt := command.Packet{
		HouseID: 1,
		Turn:    9,
		FleetCommands: []command.FleetOrder{
			{FleetID: 7, CommandType: entity.CmdMove, TargetSystem: 12, ROE: 5},
			{FleetID: 8, CommandType: entity.CmdPatrol},
		},
		BuildCommands: []command.BuildOrder{
			{ColonyID: 3, BuildType: command.BuildShip, ItemID: "destroyer", Quantity: 2},
		},
		ResearchAllocation: command.ResearchAllocation{Economic: 100, Science: 50},
		EspionageActions: []command.EspionageAction{
			{Type: "hack_starbase", Target: 12, Budget: 200},
		},
	}

	text := Unparse(pkt)
	reparsed, err := Parse(text)
	require.NoError(t, err)

	require.Equal(t, pkt.Turn, reparsed.Turn)
	require.Equal(t, pkt.HouseID, reparsed.HouseID)
	require.Equal(t, pkt.FleetCommands, reparsed.FleetCommands)
	require.Equal(t, pkt.BuildCommands, reparsed.BuildCommands)
	require.Equal(t, pkt.EspionageActions, reparsed.EspionageActions)
}

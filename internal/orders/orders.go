// Package orders parses and renders the structured-text turn-command
// grammar of spec.md §6 (the content of a kind 30402 event) into and
// out of command.Packet, reusing internal/config's KDL tokenizer —
// the same node/arg/prop/child grammar, a different node vocabulary.
package orders

import (
	"fmt"
	"strings"

	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

var fleetCommandNames = map[string]entity.FleetCommandType{
	"hold":           entity.CmdHold,
	"move":           entity.CmdMove,
	"seek_home":      entity.CmdSeekHome,
	"patrol":         entity.CmdPatrol,
	"guard_starbase": entity.CmdGuardStarbase,
	"guard_colony":   entity.CmdGuardColony,
	"blockade":       entity.CmdBlockade,
	"bombard":        entity.CmdBombard,
	"invade":         entity.CmdInvade,
	"blitz":          entity.CmdBlitz,
	"colonize":       entity.CmdColonize,
	"scout_colony":   entity.CmdScoutColony,
	"scout_system":   entity.CmdScoutSystem,
	"hack_starbase":  entity.CmdHackStarbase,
	"join_fleet":     entity.CmdJoinFleet,
	"rendezvous":     entity.CmdRendezvous,
	"salvage":        entity.CmdSalvage,
	"view":           entity.CmdView,
	"set_status":     entity.CmdSetFleetStatus,
}

var buildTypeNames = map[string]command.BuildType{
	"ship":           command.BuildShip,
	"facility":       command.BuildFacility,
	"ground":         command.BuildGround,
	"industrial":     command.BuildIndustrial,
	"infrastructure": command.BuildInfrastructure,
}

// Parse decodes one turn-command payload into a command.Packet.
// Syntactic validation happens here (unknown node/command names,
// missing required arguments); semantic validation against live game
// state is internal/rules/command_phase.go's job.
func Parse(src string) (command.Packet, error) {
	doc, err := config.Parse(src)
	if err != nil {
		return command.Packet{}, fmt.Errorf("orders: %w", err)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Name != "orders" {
		return command.Packet{}, fmt.Errorf("orders: expected exactly one top-level 'orders' node")
	}
	root := doc.Nodes[0]

	turn, ok := root.PropInt("turn")
	if !ok {
		return command.Packet{}, fmt.Errorf("orders: missing turn= property")
	}
	houseID, ok := root.PropInt("house")
	if !ok {
		return command.Packet{}, fmt.Errorf("orders: missing house= property")
	}

	pkt := command.Packet{HouseID: ids.HouseId(houseID), Turn: uint32(turn)}

	for _, child := range root.Children {
		switch child.Name {
		case "fleet":
			order, err := parseFleetOrder(child)
			if err != nil {
				return command.Packet{}, err
			}
			pkt.FleetCommands = append(pkt.FleetCommands, order)
		case "build":
			bo, err := parseBuildOrder(child)
			if err != nil {
				return command.Packet{}, err
			}
			pkt.BuildCommands = append(pkt.BuildCommands, bo)
		case "research":
			pkt.ResearchAllocation = parseResearch(child)
		case "diplomacy":
			for _, dc := range child.Children {
				pkt.DiplomaticCommands = append(pkt.DiplomaticCommands, parseDiplomatic(dc))
			}
		case "espionage":
			for _, ea := range child.Children {
				act, err := parseEspionage(ea)
				if err != nil {
					return command.Packet{}, err
				}
				pkt.EspionageActions = append(pkt.EspionageActions, act)
			}
		case "ebp":
			if v, ok := child.IntArg(0); ok {
				pkt.EBPInvestment = v
			}
		case "cip":
			if v, ok := child.IntArg(0); ok {
				pkt.CIPInvestment = v
			}
		default:
			return command.Packet{}, fmt.Errorf("orders: unknown node %q", child.Name)
		}
	}
	return pkt, nil
}

func parseFleetOrder(n config.Node) (command.FleetOrder, error) {
	fid, ok := n.IntArg(0)
	if !ok {
		return command.FleetOrder{}, fmt.Errorf("orders: fleet node missing id argument")
	}
	order := command.FleetOrder{FleetID: ids.FleetId(fid)}

	switch {
	case len(n.Children) > 0:
		c := n.Children[0]
		ct, ok := fleetCommandNames[c.Name]
		if !ok {
			return command.FleetOrder{}, fmt.Errorf("orders: unknown fleet command %q", c.Name)
		}
		order.CommandType = ct
		if v, ok := c.PropInt("to"); ok {
			order.TargetSystem = ids.SystemId(v)
		}
		if v, ok := c.PropInt("target"); ok {
			order.TargetSystem = ids.SystemId(v)
		}
		if v, ok := c.PropInt("fleet"); ok {
			order.TargetFleet = ids.FleetId(v)
		}
		if v, ok := c.PropInt("roe"); ok {
			order.ROE = uint8(v)
		}
		if v, ok := c.PropInt("priority"); ok {
			order.Priority = v
		}
		if v, ok := c.PropInt("status"); ok {
			order.SetStatus = entity.FleetStatus(v)
		}
	case len(n.Args) >= 2:
		name := n.Args[1].String()
		ct, ok := fleetCommandNames[name]
		if !ok {
			return command.FleetOrder{}, fmt.Errorf("orders: unknown fleet command %q", name)
		}
		order.CommandType = ct
	default:
		return command.FleetOrder{}, fmt.Errorf("orders: fleet %d has no command", fid)
	}
	return order, nil
}

func parseBuildOrder(n config.Node) (command.BuildOrder, error) {
	cid, ok := n.IntArg(0)
	if !ok {
		return command.BuildOrder{}, fmt.Errorf("orders: build node missing colony id argument")
	}
	if len(n.Children) != 1 {
		return command.BuildOrder{}, fmt.Errorf("orders: build %d must have exactly one item node", cid)
	}
	item := n.Children[0]
	bt, ok := buildTypeNames[item.Name]
	if !ok {
		return command.BuildOrder{}, fmt.Errorf("orders: unknown build type %q", item.Name)
	}
	itemID, _ := item.StringArg(0)
	qty, _ := item.PropInt("quantity")
	return command.BuildOrder{ColonyID: ids.ColonyId(cid), BuildType: bt, ItemID: itemID, Quantity: qty}, nil
}

func parseResearch(n config.Node) command.ResearchAllocation {
	ra := command.ResearchAllocation{Technology: map[string]int{}}
	for _, c := range n.Children {
		switch c.Name {
		case "economic":
			if v, ok := c.IntArg(0); ok {
				ra.Economic = v
			}
		case "science":
			if v, ok := c.IntArg(0); ok {
				ra.Science = v
			}
		case "technology":
			for _, field := range c.Children {
				if v, ok := field.IntArg(0); ok {
					ra.Technology[field.Name] = v
				}
			}
		}
	}
	return ra
}

func parseDiplomatic(n config.Node) command.DiplomaticCommand {
	dc := command.DiplomaticCommand{Action: n.Name}
	if v, ok := n.IntArg(0); ok {
		dc.Target = ids.HouseId(v)
	}
	if v, ok := n.PropString("terms"); ok {
		dc.Terms = v
	}
	return dc
}

func parseEspionage(n config.Node) (command.EspionageAction, error) {
	target, ok := n.PropInt("target")
	if !ok {
		return command.EspionageAction{}, fmt.Errorf("orders: espionage %q missing target=", n.Name)
	}
	budget, _ := n.PropInt("budget")
	return command.EspionageAction{Type: n.Name, Target: ids.SystemId(target), Budget: budget}, nil
}

// Unparse renders a command.Packet back into the structured-text
// grammar, used by the R3 parse/unparse round-trip property. Only
// move orders keep their target system and ROE; every other fleet
// order renders as its bare command name. Diplomatic commands, EBP
// and CIP investment, fleet targets, priorities and set-status values
// are not rendered, so those fields do not survive a round trip.
func Unparse(pkt command.Packet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "orders turn=%d house=%d {\n", pkt.Turn, pkt.HouseID)

	for _, fc := range pkt.FleetCommands {
		if fc.CommandType == entity.CmdMove {
			fmt.Fprintf(&b, "  fleet %d { move to=%d roe=%d }\n", fc.FleetID, fc.TargetSystem, fc.ROE)
			continue
		}
		fmt.Fprintf(&b, "  fleet %d %s\n", fc.FleetID, fleetCommandName(fc.CommandType))
	}

	for _, bo := range pkt.BuildCommands {
		fmt.Fprintf(&b, "  build %d { %s %s quantity=%d }\n", bo.ColonyID, buildTypeName(bo.BuildType), bo.ItemID, bo.Quantity)
	}

	if pkt.ResearchAllocation.Economic != 0 || pkt.ResearchAllocation.Science != 0 || len(pkt.ResearchAllocation.Technology) > 0 {
		fmt.Fprintf(&b, "  research { economic %d; science %d", pkt.ResearchAllocation.Economic, pkt.ResearchAllocation.Science)
		if len(pkt.ResearchAllocation.Technology) > 0 {
			b.WriteString("; technology {")
			for field, pts := range pkt.ResearchAllocation.Technology {
				fmt.Fprintf(&b, " %s %d", field, pts)
			}
			b.WriteString(" }")
		}
		b.WriteString(" }\n")
	}

	for _, ea := range pkt.EspionageActions {
		fmt.Fprintf(&b, "  espionage { %s target=%d budget=%d }\n", ea.Type, ea.Target, ea.Budget)
	}

	b.WriteString("}\n")
	return b.String()
}

func fleetCommandName(ct entity.FleetCommandType) string {
	for name, v := range fleetCommandNames {
		if v == ct {
			return name
		}
	}
	return "hold"
}

func buildTypeName(bt command.BuildType) string {
	for name, v := range buildTypeNames {
		if v == bt {
			return name
		}
	}
	return "ship"
}

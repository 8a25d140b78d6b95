package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/config"
)

func TestParseBasicNode(t *testing.T) {
	doc, err := config.Parse(`data_dir "./data"`)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	require.Equal(t, "data_dir", doc.Nodes[0].Name)
	s, ok := doc.Nodes[0].StringArg(0)
	require.True(t, ok)
	require.Equal(t, "./data", s)
}

func TestParseNestedChildrenAndProps(t *testing.T) {
	src := `
orders turn=1 house=2 {
  fleet 7 { move to=12 roe=5 }
  fleet 9 patrol
  build 3 { ship destroyer quantity=2 }
  research { economic 100; science 50; technology { wep 40 } }
}
`
	doc, err := config.Parse(src)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)

	orders := doc.Nodes[0]
	require.Equal(t, "orders", orders.Name)
	turn, ok := orders.PropInt("turn")
	require.True(t, ok)
	require.Equal(t, 1, turn)
	house, ok := orders.PropInt("house")
	require.True(t, ok)
	require.Equal(t, 2, house)

	require.Len(t, orders.Children, 4)

	move, ok := orders.Children[0].Child("move")
	require.True(t, ok)
	to, ok := move.PropInt("to")
	require.True(t, ok)
	require.Equal(t, 12, to)
	roe, ok := move.PropInt("roe")
	require.True(t, ok)
	require.Equal(t, 5, roe)

	patrolArg, ok := orders.Children[1].StringArg(1)
	require.True(t, ok)
	require.Equal(t, "patrol", patrolArg)

	build := orders.Children[2]
	require.Equal(t, "build", build.Name)
	ship, ok := build.Child("ship")
	require.True(t, ok)
	name, ok := ship.StringArg(0)
	require.True(t, ok)
	require.Equal(t, "destroyer", name)
	qty, ok := ship.PropInt("quantity")
	require.True(t, ok)
	require.Equal(t, 2, qty)

	research := orders.Children[3]
	econNodes := research.ChildrenNamed("economic")
	require.Len(t, econNodes, 1)
	v, ok := econNodes[0].IntArg(0)
	require.True(t, ok)
	require.Equal(t, 100, v)

	tech, ok := research.Child("technology")
	require.True(t, ok)
	wep, ok := tech.Child("wep")
	require.True(t, ok)
	wepVal, ok := wep.IntArg(0)
	require.True(t, ok)
	require.Equal(t, 40, wepVal)
}

func TestParseRejectsUnterminatedString(t *testing.T) {
	_, err := config.Parse(`data_dir "unterminated`)
	require.Error(t, err)
}

func TestDefaultGameHasCoreShipClasses(t *testing.T) {
	g := config.DefaultGame()
	require.Contains(t, g.Ships, "scout")
	require.Contains(t, g.Ships, "destroyer")
	require.Greater(t, g.Ships["carrier"].HangarSlots, 0)
}

package entity

import "github.com/ec4x/daemon/internal/ids"

// Starmap is a finite set of systems at axial hex coordinates with a
// fixed adjacency graph of jump lanes, plus a designated hub system.
type Starmap struct {
	Systems *Store[ids.SystemId, System]
	Lanes   []JumpLane
	adj     map[ids.SystemId][]JumpLane
	Hub     ids.SystemId
}

// NewStarmap builds an empty starmap.
func NewStarmap(hub ids.SystemId) *Starmap {
	return &Starmap{
		Systems: NewStore[ids.SystemId, System](),
		adj:     make(map[ids.SystemId][]JumpLane),
		Hub:     hub,
	}
}

// AddLane inserts a directed jump lane and reindexes adjacency.
func (s *Starmap) AddLane(lane JumpLane) {
	s.Lanes = append(s.Lanes, lane)
	s.adj[lane.From] = append(s.adj[lane.From], lane)
}

// Neighbors returns the jump lanes leaving sys.
func (s *Starmap) Neighbors(sys ids.SystemId) []JumpLane {
	lanes := s.adj[sys]
	out := make([]JumpLane, len(lanes))
	copy(out, lanes)
	return out
}

// AxialDistance computes cubic hex distance between two axial coords,
// used to derive System.Ring relative to the hub.
func AxialDistance(a, b AxialCoord) int {
	ax, az := a.Q, a.R
	ay := -ax - az
	bx, bz := b.Q, b.R
	by := -bx - bz
	return maxInt(maxInt(absInt(ax-bx), absInt(ay-by)), absInt(az-bz))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ShortestPath runs BFS over jump lanes, optionally avoiding any
// system for which avoid returns true (used by fallback-route
// computation to dodge hostile-held systems). Returns nil if no path.
func (s *Starmap) ShortestPath(from, to ids.SystemId, avoid func(ids.SystemId) bool) []ids.SystemId {
	if from == to {
		return []ids.SystemId{from}
	}
	visited := map[ids.SystemId]bool{from: true}
	prev := map[ids.SystemId]ids.SystemId{}
	queue := []ids.SystemId{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, lane := range s.Neighbors(cur) {
			next := lane.To
			if visited[next] {
				continue
			}
			if avoid != nil && avoid(next) && next != to {
				continue
			}
			visited[next] = true
			prev[next] = cur
			if next == to {
				return reconstructPath(prev, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func reconstructPath(prev map[ids.SystemId]ids.SystemId, from, to ids.SystemId) []ids.SystemId {
	path := []ids.SystemId{to}
	cur := to
	for cur != from {
		cur = prev[cur]
		path = append(path, cur)
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

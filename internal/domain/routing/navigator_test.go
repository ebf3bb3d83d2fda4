package routing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/routing"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// line builds a bidirectional chain a-b-c-... spaced 1000m apart at 50 km/h.
func line(t *testing.T, ids ...shared.NodeID) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i, id := range ids {
		require.NoError(t, g.AddNode(graph.NewNode(id, float64(i)*1000, 0)))
	}
	for i := 0; i+1 < len(ids); i++ {
		for _, pair := range [][2]shared.NodeID{{ids[i], ids[i+1]}, {ids[i+1], ids[i]}} {
			require.NoError(t, g.AddEdge(&graph.Edge{
				ID: graph.EdgeIDBetween(pair[0], pair[1]), From: pair[0], To: pair[1],
				LengthM: 1000, MaxSpeedKPH: 50,
			}))
		}
	}
	return g
}

func TestFindRoute_Basics(t *testing.T) {
	g := line(t, "a", "b", "c", "d")
	nav := routing.New(g)

	route := nav.FindRoute("a", "d", 80)
	assert.Equal(t, []shared.NodeID{"a", "b", "c", "d"}, route.Nodes)
	assert.InDelta(t, 3.0/50.0, route.TotalHrs, 1e-9)

	assert.Equal(t, []shared.NodeID{"a"}, nav.FindRoute("a", "a", 80).Nodes)
	assert.Empty(t, nav.FindRoute("a", "nope", 80).Nodes)
}

func TestFindRoute_PrefersFasterDetour(t *testing.T) {
	// a->b direct at 30 km/h vs a->x->b at 90 km/h: detour wins on time.
	g := graph.New()
	require.NoError(t, g.AddNode(graph.NewNode("a", 0, 0)))
	require.NoError(t, g.AddNode(graph.NewNode("b", 2000, 0)))
	require.NoError(t, g.AddNode(graph.NewNode("x", 1000, 100)))
	add := func(from, to shared.NodeID, lengthM, speed float64) {
		require.NoError(t, g.AddEdge(&graph.Edge{
			ID: graph.EdgeIDBetween(from, to), From: from, To: to,
			LengthM: lengthM, MaxSpeedKPH: speed,
		}))
	}
	add("a", "b", 2000, 30)
	add("a", "x", 1100, 90)
	add("x", "b", 1100, 90)

	route := routing.New(g).FindRoute("a", "b", 120)
	assert.Equal(t, []shared.NodeID{"a", "x", "b"}, route.Nodes)
}

func TestFindRoute_Unreachable(t *testing.T) {
	g := line(t, "a", "b")
	require.NoError(t, g.AddNode(graph.NewNode("island", 9000, 9000)))
	nav := routing.New(g)

	assert.Empty(t, nav.FindRoute("a", "island", 80).Nodes)
	assert.True(t, math.IsInf(nav.EstimateTravelTimeHours("a", "island", 80), 1))
}

func TestFindClosestNode_BuildingCriteria(t *testing.T) {
	g := line(t, "a", "b", "c", "d")
	g.Node("c").AttachBuilding("parking", "p-c")
	g.Node("d").AttachBuilding("parking", "p-d")
	nav := routing.New(g)

	res := nav.FindClosestNode("a", &routing.BuildingOfType{Type: "parking"}, 80)
	require.True(t, res.Found)
	assert.Equal(t, shared.NodeID("c"), res.Node)
	assert.Equal(t, shared.BuildingID("p-c"), res.MatchedItem)

	// Excluding the closer lot must surface the farther one, even through
	// the cache.
	res = nav.FindClosestNode("a", &routing.BuildingOfType{
		Type:    "parking",
		Exclude: map[shared.BuildingID]bool{"p-c": true},
	}, 80)
	require.True(t, res.Found)
	assert.Equal(t, shared.NodeID("d"), res.Node)
}

func TestFindClosestNode_EdgeCountCriteria(t *testing.T) {
	g := line(t, "a", "b", "c")
	nav := routing.New(g)

	// Endpoints have 2 incident edges, the middle node has 4.
	res := nav.FindClosestNode("a", &routing.EdgeCountInRange{Min: 4, Max: 4}, 80)
	require.True(t, res.Found)
	assert.Equal(t, shared.NodeID("b"), res.Node)
}

func TestFindClosestNodeOnRoute_PicksOnPathWaypoint(t *testing.T) {
	// a-b-c-d is the direct corridor; "far" hangs off b at a long detour.
	// Both b-adjacent far lot and on-path lot at c exist; total travel time
	// must decide, so c wins and the returned path is the a->c prefix.
	g := line(t, "a", "b", "c", "d")
	require.NoError(t, g.AddNode(graph.NewNode("far", 1000, 8000)))
	for _, pair := range [][2]shared.NodeID{{"b", "far"}, {"far", "b"}} {
		require.NoError(t, g.AddEdge(&graph.Edge{
			ID: graph.EdgeIDBetween(pair[0], pair[1]), From: pair[0], To: pair[1],
			LengthM: 8000, MaxSpeedKPH: 50,
		}))
	}
	g.Node("far").AttachBuilding("parking", "p-far")
	g.Node("c").AttachBuilding("parking", "p-near")

	nav := routing.New(g)
	res := nav.FindClosestNodeOnRoute("a", "d", &routing.BuildingOfType{Type: "parking"}, 80)

	require.True(t, res.Found)
	assert.Equal(t, shared.NodeID("c"), res.Waypoint)
	assert.Equal(t, shared.BuildingID("p-near"), res.MatchedItem)
	assert.Equal(t, []shared.NodeID{"a", "b", "c"}, res.Path)
}

func TestFindClosestNodeOnRoute_NoMatch(t *testing.T) {
	g := line(t, "a", "b", "c")
	nav := routing.New(g)
	res := nav.FindClosestNodeOnRoute("a", "c", &routing.BuildingOfType{Type: "parking"}, 80)
	assert.False(t, res.Found)
}

func TestCompositeCriteria(t *testing.T) {
	g := line(t, "a", "b", "c")
	g.Node("b").AttachBuilding("parking", "p-b")
	nav := routing.New(g)

	both := &routing.Composite{Mode: routing.CompositeAnd, Criteria: []routing.Criteria{
		&routing.BuildingOfType{Type: "parking"},
		&routing.EdgeCountInRange{Min: 4, Max: 4},
	}}
	res := nav.FindClosestNode("a", both, 80)
	require.True(t, res.Found)
	assert.Equal(t, shared.NodeID("b"), res.Node)

	either := &routing.Composite{Mode: routing.CompositeOr, Criteria: []routing.Criteria{
		&routing.BuildingOfType{Type: "gas_station"},
		&routing.BuildingOfType{Type: "parking"},
	}}
	res = nav.FindClosestNode("a", either, 80)
	require.True(t, res.Found)
	assert.Equal(t, shared.BuildingID("p-b"), res.MatchedItem)
}

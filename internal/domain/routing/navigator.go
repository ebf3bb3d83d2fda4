package routing

import (
	"container/heap"
	"math"

	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// Navigator answers routing queries against one graph. It owns a
// per-criteria result cache so repeated closest-node searches (e.g. every
// truck asking "nearest gas station") avoid re-expanding the whole graph.
type Navigator struct {
	g     *graph.Graph
	cache map[string][]cachedMatch
}

type cachedMatch struct {
	start       shared.NodeID
	cost        float64
	node        shared.NodeID
	matchedItem shared.BuildingID
}

// New creates a Navigator over the given graph.
func New(g *graph.Graph) *Navigator {
	return &Navigator{g: g, cache: make(map[string][]cachedMatch)}
}

type nodeView struct {
	g  *graph.Graph
	id shared.NodeID
}

func (v nodeView) ID() shared.NodeID { return v.id }
func (v nodeView) BuildingsOfType(t string) []shared.BuildingID {
	n := v.g.Node(v.id)
	if n == nil {
		return nil
	}
	return n.BuildingsOfType(t)
}
func (v nodeView) OutgoingEdgeCount() int { return len(v.g.OutgoingEdges(v.id)) }
func (v nodeView) IncomingEdgeCount() int { return len(v.g.IncomingEdges(v.id)) }

// Route is the full path found by FindRoute, including the starting node.
type Route struct {
	Nodes    []shared.NodeID
	TotalHrs float64
}

// pqItem is an entry in the A*/Dijkstra priority queue, ordered by
// (priority, insertion counter) so ties break deterministically regardless
// of map iteration order.
type pqItem struct {
	node     shared.NodeID
	priority float64
	counter  int
	index    int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].counter < pq[j].counter
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// FindRoute runs A* from start to goal using the straight-line distance
// heuristic (admissible because no agent can beat free-flight at its own
// speed cap). Returns an empty Route if start/goal are unknown or
// unreachable; the returned node list always includes start.
func (n *Navigator) FindRoute(start, goal shared.NodeID, maxSpeedKPH float64) Route {
	if n.g.Node(start) == nil || n.g.Node(goal) == nil {
		return Route{}
	}
	if start == goal {
		return Route{Nodes: []shared.NodeID{start}}
	}

	goalNode := n.g.Node(goal)
	heuristic := func(id shared.NodeID) float64 {
		node := n.g.Node(id)
		if node == nil || maxSpeedKPH <= 0 {
			return math.Inf(1)
		}
		return node.DistanceTo(goalNode) / (maxSpeedKPH * 1000)
	}

	gScore := map[shared.NodeID]float64{start: 0}
	cameFrom := map[shared.NodeID]shared.NodeID{}
	visited := map[shared.NodeID]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	counter := 0
	heap.Push(pq, &pqItem{node: start, priority: heuristic(start), counter: counter})

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*pqItem)
		if visited[current.node] {
			continue
		}
		visited[current.node] = true

		if current.node == goal {
			return Route{Nodes: reconstructPath(cameFrom, start, goal), TotalHrs: gScore[goal]}
		}

		for _, edge := range n.g.OutgoingEdges(current.node) {
			travelTime := edge.TravelTimeHours(maxSpeedKPH)
			if travelTime < 0 {
				continue
			}
			tentative := gScore[current.node] + travelTime
			if existing, ok := gScore[edge.To]; !ok || tentative < existing {
				gScore[edge.To] = tentative
				cameFrom[edge.To] = current.node
				counter++
				heap.Push(pq, &pqItem{node: edge.To, priority: tentative + heuristic(edge.To), counter: counter})
			}
		}
	}
	return Route{}
}

func reconstructPath(cameFrom map[shared.NodeID]shared.NodeID, start, goal shared.NodeID) []shared.NodeID {
	path := []shared.NodeID{goal}
	current := goal
	for current != start {
		prev, ok := cameFrom[current]
		if !ok {
			return nil
		}
		path = append([]shared.NodeID{prev}, path...)
		current = prev
	}
	return path
}

// ClosestNodeResult is the outcome of FindClosestNode.
type ClosestNodeResult struct {
	Found       bool
	Node        shared.NodeID
	MatchedItem shared.BuildingID
	CostHrs     float64
}

// FindClosestNode runs Dijkstra from start, halting at the first settled
// node matching criteria. Prior matches for this criteria+start pair are
// cached (cost-sorted) and re-validated against current exclusions before
// a fresh search is attempted.
func (n *Navigator) FindClosestNode(start shared.NodeID, criteria Criteria, maxSpeedKPH float64) ClosestNodeResult {
	cacheKey := criteria.CacheKey() + "|" + string(start)
	for _, cached := range n.cache[cacheKey] {
		view := nodeView{g: n.g, id: cached.node}
		result := criteria.Matches(view)
		if result.Matches {
			return ClosestNodeResult{Found: true, Node: cached.node, MatchedItem: result.MatchedItem, CostHrs: cached.cost}
		}
	}

	if n.g.Node(start) == nil {
		return ClosestNodeResult{}
	}

	dist := map[shared.NodeID]float64{start: 0}
	visited := map[shared.NodeID]bool{}
	pq := &priorityQueue{}
	heap.Init(pq)
	counter := 0
	heap.Push(pq, &pqItem{node: start, priority: 0, counter: counter})

	var matches []cachedMatch
	for pq.Len() > 0 {
		current := heap.Pop(pq).(*pqItem)
		if visited[current.node] {
			continue
		}
		visited[current.node] = true

		view := nodeView{g: n.g, id: current.node}
		result := criteria.Matches(view)
		if result.Matches {
			matches = append(matches, cachedMatch{start: start, cost: current.priority, node: current.node, matchedItem: result.MatchedItem})
			n.cache[cacheKey] = append(n.cache[cacheKey], matches[len(matches)-1])
			return ClosestNodeResult{Found: true, Node: current.node, MatchedItem: result.MatchedItem, CostHrs: current.priority}
		}

		for _, edge := range n.g.OutgoingEdges(current.node) {
			travelTime := edge.TravelTimeHours(maxSpeedKPH)
			if travelTime < 0 {
				continue
			}
			tentative := dist[current.node] + travelTime
			if existing, ok := dist[edge.To]; !ok || tentative < existing {
				dist[edge.To] = tentative
				counter++
				heap.Push(pq, &pqItem{node: edge.To, priority: tentative, counter: counter})
			}
		}
	}
	return ClosestNodeResult{}
}

// WaypointResult is the outcome of FindClosestNodeOnRoute.
type WaypointResult struct {
	Found       bool
	Waypoint    shared.NodeID
	MatchedItem shared.BuildingID
	Path        []shared.NodeID
}

// FindClosestNodeOnRoute minimizes total start->waypoint->destination time.
// Phase A runs Dijkstra on the reverse graph from destination to get
// dist-to-destination for every reachable node. Phase B runs forward
// Dijkstra from start, tracking the best g(v)+distToDest(v) seen among
// matching nodes, stopping early once the open set's minimum exceeds the
// best total found so far.
func (n *Navigator) FindClosestNodeOnRoute(start, destination shared.NodeID, criteria Criteria, maxSpeedKPH float64) WaypointResult {
	if n.g.Node(start) == nil || n.g.Node(destination) == nil {
		return WaypointResult{}
	}

	distToDest := n.reverseDijkstra(destination, maxSpeedKPH)

	gScore := map[shared.NodeID]float64{start: 0}
	cameFrom := map[shared.NodeID]shared.NodeID{}
	visited := map[shared.NodeID]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	counter := 0
	heap.Push(pq, &pqItem{node: start, priority: 0, counter: counter})

	bestTotal := math.Inf(1)
	bestNode := shared.NodeID("")
	var bestMatch MatchResult

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*pqItem)
		if current.priority > bestTotal {
			break
		}
		if visited[current.node] {
			continue
		}
		visited[current.node] = true

		view := nodeView{g: n.g, id: current.node}
		result := criteria.Matches(view)
		if result.Matches {
			if toDest, ok := distToDest[current.node]; ok {
				total := gScore[current.node] + toDest
				if total < bestTotal {
					bestTotal = total
					bestNode = current.node
					bestMatch = result
				}
			}
		}

		for _, edge := range n.g.OutgoingEdges(current.node) {
			travelTime := edge.TravelTimeHours(maxSpeedKPH)
			if travelTime < 0 {
				continue
			}
			tentative := gScore[current.node] + travelTime
			if existing, ok := gScore[edge.To]; !ok || tentative < existing {
				gScore[edge.To] = tentative
				cameFrom[edge.To] = current.node
				counter++
				heap.Push(pq, &pqItem{node: edge.To, priority: tentative, counter: counter})
			}
		}
	}

	if bestNode == "" {
		return WaypointResult{}
	}
	return WaypointResult{
		Found:       true,
		Waypoint:    bestNode,
		MatchedItem: bestMatch.MatchedItem,
		Path:        reconstructPath(cameFrom, start, bestNode),
	}
}

// reverseDijkstra computes, for every node reachable from it in the
// reversed graph, the shortest time to reach destination.
func (n *Navigator) reverseDijkstra(destination shared.NodeID, maxSpeedKPH float64) map[shared.NodeID]float64 {
	dist := map[shared.NodeID]float64{destination: 0}
	visited := map[shared.NodeID]bool{}
	pq := &priorityQueue{}
	heap.Init(pq)
	counter := 0
	heap.Push(pq, &pqItem{node: destination, priority: 0, counter: counter})

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*pqItem)
		if visited[current.node] {
			continue
		}
		visited[current.node] = true

		for _, edge := range n.g.IncomingEdges(current.node) {
			travelTime := edge.TravelTimeHours(maxSpeedKPH)
			if travelTime < 0 {
				continue
			}
			tentative := dist[current.node] + travelTime
			if existing, ok := dist[edge.From]; !ok || tentative < existing {
				dist[edge.From] = tentative
				counter++
				heap.Push(pq, &pqItem{node: edge.From, priority: tentative, counter: counter})
			}
		}
	}
	return dist
}

// EstimateTravelTimeHours returns the A* route cost between two nodes, or
// +Inf if no route exists; used by the truck's proposal evaluator and the
// broker's candidate ranking.
func (n *Navigator) EstimateTravelTimeHours(from, to shared.NodeID, maxSpeedKPH float64) float64 {
	route := n.FindRoute(from, to, maxSpeedKPH)
	if len(route.Nodes) == 0 {
		return math.Inf(1)
	}
	return route.TotalHrs
}

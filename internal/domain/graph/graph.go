// Package graph owns the directed road network: nodes, edges, and the
// buildings attached to nodes. It is built once (by a generator or an
// import) and mutated only through admin actions between runs, never
// during a tick.
package graph

import (
	"fmt"
	"math"

	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// Node is a vertex in the road network at a fixed 2-D position, with a
// type-indexed index of the buildings attached to it so "has a gas
// station?" and "how many parkings?" are O(1).
type Node struct {
	ID shared.NodeID
	X  float64
	Y  float64

	buildingsByType map[string][]shared.BuildingID
	countByType     map[string]int
}

// NewNode creates an empty node at the given coordinates.
func NewNode(id shared.NodeID, x, y float64) *Node {
	return &Node{
		ID:              id,
		X:               x,
		Y:               y,
		buildingsByType: make(map[string][]shared.BuildingID),
		countByType:     make(map[string]int),
	}
}

// AttachBuilding records a building of the given discriminator type as
// present on this node, keeping the typed index current.
func (n *Node) AttachBuilding(buildingType string, id shared.BuildingID) {
	n.buildingsByType[buildingType] = append(n.buildingsByType[buildingType], id)
	n.countByType[buildingType]++
}

// DetachBuilding removes a building of the given type from this node.
func (n *Node) DetachBuilding(buildingType string, id shared.BuildingID) {
	list := n.buildingsByType[buildingType]
	for i, b := range list {
		if b == id {
			n.buildingsByType[buildingType] = append(list[:i], list[i+1:]...)
			n.countByType[buildingType]--
			return
		}
	}
}

// BuildingsOfType returns the buildings of the given type attached here.
func (n *Node) BuildingsOfType(buildingType string) []shared.BuildingID {
	return n.buildingsByType[buildingType]
}

// CountOfType returns how many buildings of the given type are attached here.
func (n *Node) CountOfType(buildingType string) int {
	return n.countByType[buildingType]
}

// DistanceTo returns the straight-line Euclidean distance to another node,
// used as the admissible A* heuristic.
func (n *Node) DistanceTo(other *Node) float64 {
	dx := other.X - n.X
	dy := other.Y - n.Y
	return math.Hypot(dx, dy)
}

// Edge is a directed, weighted connection between two nodes.
type Edge struct {
	ID          shared.EdgeID
	From        shared.NodeID
	To          shared.NodeID
	LengthM     float64
	MaxSpeedKPH float64
	RoadClass   string
	Lanes       int
	Mode        string
}

// TravelTimeHours returns the time in hours to traverse this edge at the
// slower of the edge's speed limit and the traveling agent's own cap.
func (e *Edge) TravelTimeHours(agentMaxSpeedKPH float64) float64 {
	speed := e.MaxSpeedKPH
	if agentMaxSpeedKPH < speed {
		speed = agentMaxSpeedKPH
	}
	if speed <= 0 {
		return -1
	}
	return e.LengthM / (1000 * speed)
}

// Graph is the directed road network: nodes, edges, and adjacency indices.
type Graph struct {
	nodes map[shared.NodeID]*Node
	edges map[shared.EdgeID]*Edge

	outgoing map[shared.NodeID][]shared.EdgeID
	incoming map[shared.NodeID][]shared.EdgeID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[shared.NodeID]*Node),
		edges:    make(map[shared.EdgeID]*Edge),
		outgoing: make(map[shared.NodeID][]shared.EdgeID),
		incoming: make(map[shared.NodeID][]shared.EdgeID),
	}
}

// AddNode inserts a node. It is an error to add a node whose ID already exists.
func (g *Graph) AddNode(node *Node) error {
	if _, exists := g.nodes[node.ID]; exists {
		return shared.NewGraphError(fmt.Sprintf("node %s already exists", node.ID))
	}
	g.nodes[node.ID] = node
	return nil
}

// Node returns the node with the given id, or nil if absent.
func (g *Graph) Node(id shared.NodeID) *Node {
	return g.nodes[id]
}

// Nodes returns the graph's node map; its iteration order is not defined, so
// callers that need determinism should keep their own ordered id list.
func (g *Graph) Nodes() map[shared.NodeID]*Node {
	return g.nodes
}

// RemoveNode deletes a node and every edge incident to it.
func (g *Graph) RemoveNode(id shared.NodeID) error {
	if _, exists := g.nodes[id]; !exists {
		return shared.NewGraphError(fmt.Sprintf("node %s does not exist", id))
	}
	for _, edgeID := range append([]shared.EdgeID{}, g.outgoing[id]...) {
		_ = g.RemoveEdge(edgeID)
	}
	for _, edgeID := range append([]shared.EdgeID{}, g.incoming[id]...) {
		_ = g.RemoveEdge(edgeID)
	}
	delete(g.nodes, id)
	delete(g.outgoing, id)
	delete(g.incoming, id)
	return nil
}

// AddEdge inserts a directed edge; both endpoints must already exist and
// length must be positive.
func (g *Graph) AddEdge(edge *Edge) error {
	if edge.LengthM <= 0 {
		return shared.NewGraphError("edge length_m must be > 0")
	}
	if _, exists := g.nodes[edge.From]; !exists {
		return shared.NewGraphError(fmt.Sprintf("edge references unknown from-node %s", edge.From))
	}
	if _, exists := g.nodes[edge.To]; !exists {
		return shared.NewGraphError(fmt.Sprintf("edge references unknown to-node %s", edge.To))
	}
	if _, exists := g.edges[edge.ID]; exists {
		return shared.NewGraphError(fmt.Sprintf("edge %s already exists", edge.ID))
	}
	g.edges[edge.ID] = edge
	g.outgoing[edge.From] = append(g.outgoing[edge.From], edge.ID)
	g.incoming[edge.To] = append(g.incoming[edge.To], edge.ID)
	return nil
}

// Edge returns the edge with the given id, or nil if absent.
func (g *Graph) Edge(id shared.EdgeID) *Edge {
	return g.edges[id]
}

// Edges returns all edges.
func (g *Graph) Edges() map[shared.EdgeID]*Edge {
	return g.edges
}

// RemoveEdge deletes a single edge and its adjacency-list entries.
func (g *Graph) RemoveEdge(id shared.EdgeID) error {
	edge, exists := g.edges[id]
	if !exists {
		return shared.NewGraphError(fmt.Sprintf("edge %s does not exist", id))
	}
	g.outgoing[edge.From] = removeEdgeID(g.outgoing[edge.From], id)
	g.incoming[edge.To] = removeEdgeID(g.incoming[edge.To], id)
	delete(g.edges, id)
	return nil
}

func removeEdgeID(list []shared.EdgeID, target shared.EdgeID) []shared.EdgeID {
	for i, e := range list {
		if e == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// OutgoingEdges returns the edges leaving a node.
func (g *Graph) OutgoingEdges(id shared.NodeID) []*Edge {
	ids := g.outgoing[id]
	out := make([]*Edge, 0, len(ids))
	for _, eid := range ids {
		out = append(out, g.edges[eid])
	}
	return out
}

// IncomingEdges returns the edges arriving at a node.
func (g *Graph) IncomingEdges(id shared.NodeID) []*Edge {
	ids := g.incoming[id]
	in := make([]*Edge, 0, len(ids))
	for _, eid := range ids {
		in = append(in, g.edges[eid])
	}
	return in
}

// AttachBuilding registers a building of the given type on a node.
func (g *Graph) AttachBuilding(nodeID shared.NodeID, buildingType string, buildingID shared.BuildingID) error {
	node, exists := g.nodes[nodeID]
	if !exists {
		return shared.NewGraphError(fmt.Sprintf("node %s does not exist", nodeID))
	}
	node.AttachBuilding(buildingType, buildingID)
	return nil
}

// EdgeIDBetween returns the canonical edge id for a directed from->to pair.
// Every edge in this simulator is keyed this way so a truck mid-route can
// reconstruct the id of its next hop without a lookup table.
func EdgeIDBetween(from, to shared.NodeID) shared.EdgeID {
	return shared.EdgeID(string(from) + "->" + string(to))
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

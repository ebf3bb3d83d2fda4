// Package routing implements A* point-to-point search, Dijkstra
// closest-node-by-criteria, and waypoint-aware "closest on route" search
// over a graph.Graph.
package routing

import "github.com/logisim-sim/logisim/internal/domain/shared"

// MatchResult is returned by a Criteria when it matches a node.
type MatchResult struct {
	Matches     bool
	MatchedItem shared.BuildingID
}

// Criteria is an abstract predicate evaluated against a settled node during
// a Dijkstra search. Concrete variants: building-of-type (with optional
// exclusions), edge-count-in-range, and composite AND/OR combinations.
type Criteria interface {
	// Matches reports whether the given node satisfies this criteria, and
	// if so which building (if any) was the match.
	Matches(node NodeView) MatchResult
	// CacheKey returns a stable string identifying this criteria instance
	// for use as part of a per-criteria result cache key.
	CacheKey() string
}

// NodeView is the minimal surface Criteria needs from a graph node, kept
// narrow so routing does not import graph's mutation API.
type NodeView interface {
	ID() shared.NodeID
	BuildingsOfType(buildingType string) []shared.BuildingID
	OutgoingEdgeCount() int
	IncomingEdgeCount() int
}

// BuildingOfType matches nodes hosting at least one building of the given
// type, excluding any building ids in Exclude.
type BuildingOfType struct {
	Type    string
	Exclude map[shared.BuildingID]bool
}

func (c *BuildingOfType) Matches(node NodeView) MatchResult {
	for _, b := range node.BuildingsOfType(c.Type) {
		if c.Exclude != nil && c.Exclude[b] {
			continue
		}
		return MatchResult{Matches: true, MatchedItem: b}
	}
	return MatchResult{}
}

func (c *BuildingOfType) CacheKey() string {
	return "building_of_type:" + c.Type
}

// EdgeCountInRange matches nodes whose total (outgoing+incoming) edge count
// falls within [Min, Max].
type EdgeCountInRange struct {
	Min, Max int
}

func (c *EdgeCountInRange) Matches(node NodeView) MatchResult {
	total := node.OutgoingEdgeCount() + node.IncomingEdgeCount()
	if total >= c.Min && total <= c.Max {
		return MatchResult{Matches: true}
	}
	return MatchResult{}
}

func (c *EdgeCountInRange) CacheKey() string {
	return "edge_count_in_range"
}

// CompositeMode selects AND/OR semantics for Composite.
type CompositeMode int

const (
	CompositeAnd CompositeMode = iota
	CompositeOr
)

// Composite combines multiple criteria with AND/OR semantics.
type Composite struct {
	Mode     CompositeMode
	Criteria []Criteria
}

func (c *Composite) Matches(node NodeView) MatchResult {
	var last MatchResult
	for _, crit := range c.Criteria {
		result := crit.Matches(node)
		if c.Mode == CompositeOr && result.Matches {
			return result
		}
		if c.Mode == CompositeAnd && !result.Matches {
			return MatchResult{}
		}
		last = result
	}
	if c.Mode == CompositeAnd {
		return last
	}
	return MatchResult{}
}

func (c *Composite) CacheKey() string {
	key := "composite:"
	for _, crit := range c.Criteria {
		key += crit.CacheKey() + ","
	}
	return key
}

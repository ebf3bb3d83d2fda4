// Package mapgen is the procedural map generator: a deterministic grid
// road network with sites, gas stations, and parking lots scattered over
// it. Everything derives from the explicit seed in the MapSpec and the
// generator never touches a process-global RNG, so the same spec always
// produces the same world.
package mapgen

import (
	"fmt"

	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

const (
	gridEdgeSpeedKPH  = 80
	defaultActivity   = 2.0 // packages/hour per generated site
	gasCostFactorBase = 0.9
	gasCostFactorSpan = 0.4
)

// Generator builds worlds over procedurally generated grid graphs.
type Generator struct {
	baseConfig world.Config
}

// New creates a Generator; generated worlds inherit baseConfig except for
// the seed, which comes from each spec.
func New(baseConfig world.Config) *Generator {
	return &Generator{baseConfig: baseConfig}
}

// Generate implements common.MapGenerator.
func (g *Generator) Generate(spec common.MapSpec) (*world.World, error) {
	if spec.Rows < 2 || spec.Cols < 2 {
		return nil, shared.NewValidationError("rows/cols", "grid must be at least 2x2")
	}
	if spec.SpacingM <= 0 {
		spec.SpacingM = 1000
	}
	total := spec.Rows * spec.Cols
	if spec.SiteCount+spec.GasStations+spec.Parkings > total {
		return nil, shared.NewValidationError("buildings", "more buildings than grid nodes")
	}

	rng := shared.NewSeededRand(spec.Seed)

	road := graph.New()
	nodeID := func(r, c int) shared.NodeID {
		return shared.NodeID(fmt.Sprintf("n%d_%d", r, c))
	}
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			if err := road.AddNode(graph.NewNode(nodeID(r, c), float64(c)*spec.SpacingM, float64(r)*spec.SpacingM)); err != nil {
				return nil, err
			}
		}
	}
	addBoth := func(a, b shared.NodeID) error {
		for _, pair := range [][2]shared.NodeID{{a, b}, {b, a}} {
			edge := &graph.Edge{
				ID:          graph.EdgeIDBetween(pair[0], pair[1]),
				From:        pair[0],
				To:          pair[1],
				LengthM:     spec.SpacingM,
				MaxSpeedKPH: gridEdgeSpeedKPH,
				RoadClass:   "regional",
				Lanes:       2,
				Mode:        "road",
			}
			if err := road.AddEdge(edge); err != nil {
				return err
			}
		}
		return nil
	}
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			if c+1 < spec.Cols {
				if err := addBoth(nodeID(r, c), nodeID(r, c+1)); err != nil {
					return nil, err
				}
			}
			if r+1 < spec.Rows {
				if err := addBoth(nodeID(r, c), nodeID(r+1, c)); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := g.baseConfig
	cfg.Seed = spec.Seed
	w := world.New(road, cfg)

	// Draw distinct nodes for every building placement.
	taken := make(map[int]bool)
	draw := func() (shared.NodeID, error) {
		for attempts := 0; attempts < total*4; attempts++ {
			idx := rng.Intn(total)
			if taken[idx] {
				continue
			}
			taken[idx] = true
			return nodeID(idx/spec.Cols, idx%spec.Cols), nil
		}
		return "", shared.NewValidationError("buildings", "could not place all buildings")
	}

	siteNodes := make([]shared.NodeID, 0, spec.SiteCount)
	for i := 0; i < spec.SiteCount; i++ {
		node, err := draw()
		if err != nil {
			return nil, err
		}
		siteNodes = append(siteNodes, node)
	}
	for i, node := range siteNodes {
		weights := make(map[shared.SiteID]float64, len(siteNodes)-1)
		for _, other := range siteNodes {
			if other != node {
				weights[shared.SiteID(other)] = 1
			}
		}
		id := shared.BuildingID(fmt.Sprintf("site-%d", i+1))
		name := fmt.Sprintf("Site %d", i+1)
		if _, err := w.AddSite(id, name, node, defaultActivity, weights, site.DefaultPackageConfig()); err != nil {
			return nil, err
		}
	}

	for i := 0; i < spec.GasStations; i++ {
		node, err := draw()
		if err != nil {
			return nil, err
		}
		id := shared.BuildingID(fmt.Sprintf("gas-%d", i+1))
		costFactor := gasCostFactorBase + rng.Float64()*gasCostFactorSpan
		if _, err := w.AddGasStation(id, node, 2, costFactor); err != nil {
			return nil, err
		}
	}

	for i := 0; i < spec.Parkings; i++ {
		node, err := draw()
		if err != nil {
			return nil, err
		}
		id := shared.BuildingID(fmt.Sprintf("parking-%d", i+1))
		if _, err := w.AddParking(id, node, 4); err != nil {
			return nil, err
		}
	}

	w.AddBroker("broker")
	return w, nil
}

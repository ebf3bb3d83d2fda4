package world

import (
	"fmt"

	"github.com/logisim-sim/logisim/internal/domain/broker"
	"github.com/logisim-sim/logisim/internal/domain/building"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
	"github.com/logisim-sim/logisim/internal/domain/truck"
)

// AddBroker creates the singleton logistics coordinator. Calling it again
// is a no-op that returns the existing broker's id; the simulator never
// has more than one broker.
func (w *World) AddBroker(id shared.AgentID) shared.AgentID {
	if w.broker != nil {
		return w.brokerID
	}
	w.broker = broker.New(id)
	w.brokerID = id
	w.bus.Register(id)
	w.agentOrder = append(w.agentOrder, id)
	return id
}

// AddTruck creates a Truck parked at startNode and registers it with the
// message bus. Returns a *GraphError if startNode does not exist and a
// *ValidationError if id is already in use.
func (w *World) AddTruck(id shared.AgentID, startNode shared.NodeID, maxSpeedKPH float64, capacity int, fuelTankCapacityL float64) (*truck.Truck, error) {
	if w.g.Node(startNode) == nil {
		return nil, shared.NewGraphError(fmt.Sprintf("node %s does not exist", startNode))
	}
	if _, exists := w.trucks[id]; exists {
		return nil, shared.NewValidationError("id", fmt.Sprintf("truck %s already exists", id))
	}
	tr, err := truck.New(id, startNode, maxSpeedKPH, capacity, fuelTankCapacityL)
	if err != nil {
		return nil, err
	}
	w.trucks[id] = tr
	w.bus.Register(id)
	w.agentOrder = append(w.agentOrder, id)
	return tr, nil
}

// RemoveTruck decommissions a truck: it drops from the tick loop, its
// mailbox is torn down, and any cargo it was carrying is left orphaned:
// neither this method nor agentmgmt's delete_agent handler reassigns it.
func (w *World) RemoveTruck(id shared.AgentID) error {
	if _, exists := w.trucks[id]; !exists {
		return shared.NewValidationError("id", fmt.Sprintf("truck %s does not exist", id))
	}
	delete(w.trucks, id)
	w.bus.Unregister(id)
	for i, a := range w.agentOrder {
		if a == id {
			w.agentOrder = append(w.agentOrder[:i], w.agentOrder[i+1:]...)
			break
		}
	}
	return nil
}

// AddSite creates a package-spawning Site at node and attaches it to the
// graph. A Site's shared.SiteID is always the string form of its node's
// shared.NodeID; this is what lets the truck recognize "I am at my
// task's site" with a plain node comparison instead of a second lookup
// table, and it means at most one site may exist per node.
func (w *World) AddSite(id shared.BuildingID, name string, node shared.NodeID, activityRate float64, destinationWeights map[shared.SiteID]float64, cfg site.PackageConfig) (*site.Site, error) {
	if w.g.Node(node) == nil {
		return nil, shared.NewGraphError(fmt.Sprintf("node %s does not exist", node))
	}
	siteID := shared.SiteID(node)
	if _, exists := w.sites[siteID]; exists {
		return nil, shared.NewValidationError("node", fmt.Sprintf("node %s already hosts a site", node))
	}
	s, err := site.New(id, name, activityRate, destinationWeights, cfg)
	if err != nil {
		return nil, err
	}
	if err := w.g.AttachBuilding(node, string(building.TypeSite), id); err != nil {
		return nil, err
	}
	w.sites[siteID] = s
	w.siteNode[siteID] = node
	w.buildingNode[id] = node
	return s, nil
}

// AddGasStation creates a GasStation at node and attaches it to the graph.
func (w *World) AddGasStation(id shared.BuildingID, node shared.NodeID, capacity int, costFactor float64) (*building.GasStation, error) {
	if w.g.Node(node) == nil {
		return nil, shared.NewGraphError(fmt.Sprintf("node %s does not exist", node))
	}
	gs, err := building.NewGasStation(id, capacity, costFactor)
	if err != nil {
		return nil, err
	}
	if err := w.g.AttachBuilding(node, string(building.TypeGasStation), id); err != nil {
		return nil, err
	}
	w.gasStations[id] = gs
	w.buildingNode[id] = node
	return gs, nil
}

// AddParking creates a Parking lot at node and attaches it to the graph.
func (w *World) AddParking(id shared.BuildingID, node shared.NodeID, capacity int) (*building.Parking, error) {
	if w.g.Node(node) == nil {
		return nil, shared.NewGraphError(fmt.Sprintf("node %s does not exist", node))
	}
	p, err := building.NewParking(id, capacity)
	if err != nil {
		return nil, err
	}
	if err := w.g.AttachBuilding(node, string(building.TypeParking), id); err != nil {
		return nil, err
	}
	w.parkings[id] = p
	w.buildingNode[id] = node
	return p, nil
}

package world

import (
	"github.com/logisim-sim/logisim/internal/domain/broker"
	"github.com/logisim-sim/logisim/internal/domain/building"
	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/ledger"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
	"github.com/logisim-sim/logisim/internal/domain/truck"
)

// FuelPrice returns the current global per-liter fuel price.
func (w *World) FuelPrice() float64 { return w.fuelPrice }

// Graph returns the underlying road network, read-only outside of admin actions.
func (w *World) Graph() *graph.Graph { return w.g }

// Ledger returns the world's append-only transaction log.
func (w *World) Ledger() *ledger.Ledger { return w.ledger }

// RunState returns the simulation's start/pause/resume/stop state machine.
func (w *World) RunState() *shared.RunStateMachine { return w.runState }

// Broker returns the singleton broker, or nil if AddBroker was never called.
func (w *World) Broker() *broker.Broker { return w.broker }

// Truck returns a truck by id.
func (w *World) Truck(id shared.AgentID) (*truck.Truck, bool) {
	tr, ok := w.trucks[id]
	return tr, ok
}

// Trucks returns every registered truck, keyed by id.
func (w *World) Trucks() map[shared.AgentID]*truck.Truck { return w.trucks }

// AgentIDs returns every registered agent id (broker first, then trucks) in
// tick-processing order.
func (w *World) AgentIDs() []shared.AgentID {
	return append([]shared.AgentID{}, w.agentOrder...)
}

// AgentFullState returns an agent's complete serialized state, or nil for
// an unknown id.
func (w *World) AgentFullState(id shared.AgentID) map[string]any {
	if ag := w.agentByID(id); ag != nil {
		return ag.SerializeFull()
	}
	return nil
}

// AgentKind returns an agent's kind discriminator, or "" for an unknown id.
func (w *World) AgentKind(id shared.AgentID) string {
	if ag := w.agentByID(id); ag != nil {
		return ag.Kind()
	}
	return ""
}

// Site returns a site by id.
func (w *World) Site(id shared.SiteID) (*site.Site, bool) {
	s, ok := w.sites[id]
	return s, ok
}

// Sites returns every site, keyed by id.
func (w *World) Sites() map[shared.SiteID]*site.Site { return w.sites }

// Packages returns every known package, keyed by id, including delivered
// and expired ones (nothing is ever removed from this map).
func (w *World) Packages() map[shared.PackageID]*freight.Package { return w.packages }

// GasStations returns every gas station, keyed by building id.
func (w *World) GasStations() map[shared.BuildingID]*building.GasStation { return w.gasStations }

// Parkings returns every parking lot, keyed by building id.
func (w *World) Parkings() map[shared.BuildingID]*building.Parking { return w.parkings }
